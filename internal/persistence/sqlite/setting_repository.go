package sqlite

import (
	"context"
	"database/sql"
	"errors"
)

// SettingRepository implements persistence.SettingRepository using SQLite
type SettingRepository struct {
	base
}

// GetSetting returns the value stored under key
func (r *SettingRepository) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.queryRow(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, r.mapper.MapError(err)
	}
	return value, true, nil
}

// SetSetting upserts key; the last write wins
func (r *SettingRepository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.exec(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, formatTime(r.stamp()))
	return err
}
