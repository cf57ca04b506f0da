package migration

import "time"

// memoryConfig uses one connection so every query sees the same in-memory
// database.
func memoryConfig() SQLiteConfig {
	return SQLiteConfig{
		DSN:               ":memory:",
		BusyTimeout:       time.Second,
		EnableForeignKeys: true,
		JournalMode:       "MEMORY",
		Synchronous:       "OFF",
		MaxOpenConns:      1,
		MaxIdleConns:      1,
	}
}

func fileConfig(path string) SQLiteConfig {
	cfg := DefaultSQLiteConfig(path)
	cfg.Synchronous = "OFF"
	cfg.ConnMaxLifetime = time.Minute
	return cfg
}
