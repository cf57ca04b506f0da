package migration

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// fileScannerImpl implements the FileScanner interface over an fs.FS
type fileScannerImpl struct {
	fsys                 fs.FS
	migrationFilePattern *regexp.Regexp
}

// NewFileScanner creates a FileScanner reading from fsys. Pass an embed.FS
// in production and a fstest.MapFS in tests.
func NewFileScanner(fsys fs.FS) FileScanner {
	// {version}_{description}.sql with a numeric version
	pattern := regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`)

	return &fileScannerImpl{
		fsys:                 fsys,
		migrationFilePattern: pattern,
	}
}

// ScanMigrations scans dir for migration files
func (s *fileScannerImpl) ScanMigrations(dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(s.fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fileError(dir, "scan directory", fmt.Errorf("migration directory does not exist"))
		}
		return nil, fileError(dir, "read directory", err)
	}

	var migrations []Migration
	versionMap := make(map[string]string)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		if err := s.ValidateFileName(entry.Name()); err != nil {
			return nil, versionError("", entry.Name(), "validate filename", err)
		}

		migration, err := s.parseMigrationFile(path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		if existingFile, exists := versionMap[migration.Version]; exists {
			return nil, versionError(migration.Version, entry.Name(), "check duplicates",
				fmt.Errorf("%w: version %s found in both %s and %s",
					ErrDuplicateVersion, migration.Version, existingFile, entry.Name()))
		}
		versionMap[migration.Version] = entry.Name()

		migrations = append(migrations, migration)
	}

	sort.Slice(migrations, func(i, j int) bool {
		versionI, _ := strconv.Atoi(migrations[i].Version)
		versionJ, _ := strconv.Atoi(migrations[j].Version)
		return versionI < versionJ
	})

	return migrations, nil
}

// ValidateFileName checks if migration file follows naming convention
func (s *fileScannerImpl) ValidateFileName(filename string) error {
	matches := s.migrationFilePattern.FindStringSubmatch(filename)
	if matches == nil {
		return fmt.Errorf("%w: filename '%s' does not match pattern '{version}_{description}.sql'",
			ErrInvalidMigrationFile, filename)
	}

	if _, err := strconv.Atoi(matches[1]); err != nil {
		return fmt.Errorf("%w: version '%s' in filename '%s' is not a valid number",
			ErrInvalidVersion, matches[1], filename)
	}

	return nil
}

func (s *fileScannerImpl) parseMigrationFile(filePath string) (Migration, error) {
	matches := s.migrationFilePattern.FindStringSubmatch(path.Base(filePath))
	version := matches[1]
	filenameDescription := matches[2]

	raw, err := fs.ReadFile(s.fsys, filePath)
	if err != nil {
		return Migration{}, fileError(filePath, "read file", err)
	}
	content := string(raw)

	if strings.TrimSpace(stripComments(content)) == "" {
		return Migration{}, versionError(version, filePath, "validate content",
			fmt.Errorf("%w: no SQL statements found", ErrInvalidMigrationFile))
	}
	if err := checkUnmatchedParentheses(content); err != nil {
		return Migration{}, versionError(version, filePath, "validate SQL syntax", err)
	}

	description := descriptionFromContent(content)
	if description == "" {
		description = strings.ReplaceAll(filenameDescription, "_", " ")
	}

	return Migration{
		Version:     version,
		Description: description,
		SQL:         content,
		FilePath:    filePath,
		Checksum:    fmt.Sprintf("%x", sha256.Sum256(raw)),
	}, nil
}

func stripComments(sql string) string {
	var b strings.Builder
	for _, line := range strings.Split(sql, "\n") {
		if i := strings.Index(line, "--"); i != -1 {
			line = line[:i]
		}
		if line = strings.TrimSpace(line); line != "" {
			b.WriteString(line)
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func checkUnmatchedParentheses(sql string) error {
	count := 0
	for _, char := range stripComments(sql) {
		switch char {
		case '(':
			count++
		case ')':
			count--
			if count < 0 {
				return fmt.Errorf("%w: unmatched closing parenthesis", ErrInvalidMigrationFile)
			}
		}
	}
	if count != 0 {
		return fmt.Errorf("%w: unmatched opening parenthesis", ErrInvalidMigrationFile)
	}
	return nil
}

// descriptionFromContent reads a leading "-- Description: ..." comment.
func descriptionFromContent(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "--") {
			break
		}
		if rest, ok := strings.CutPrefix(line, "-- Description:"); ok {
			if description := strings.TrimSpace(rest); description != "" {
				return description
			}
		}
	}
	return ""
}
