package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FilePair is the up/down SQL file pair for one schema version
type FilePair struct {
	Version  string
	Name     string
	UpPath   string
	DownPath string
}

// NewFilePair creates an empty up/down migration pair in dir, named
// <timestamp>_<slug>.{up,down}.sql so golang-migrate orders it last.
func NewFilePair(dir, name string) (*FilePair, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	version := time.Now().Format("20060102150405")
	base := version + "_" + slugify(name)

	pair := &FilePair{
		Version:  version,
		Name:     name,
		UpPath:   filepath.Join(dir, base+".up.sql"),
		DownPath: filepath.Join(dir, base+".down.sql"),
	}

	header := fmt.Sprintf("-- %s\n\n", name)
	if err := os.WriteFile(pair.UpPath, []byte(header), 0o644); err != nil {
		return nil, fmt.Errorf("failed to create up migration: %w", err)
	}
	if err := os.WriteFile(pair.DownPath, []byte(header), 0o644); err != nil {
		_ = os.Remove(pair.UpPath)
		return nil, fmt.Errorf("failed to create down migration: %w", err)
	}

	return pair, nil
}

// List returns the migration SQL files in dir, sorted by version
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") || strings.HasSuffix(name, ".down.sql") {
			files = append(files, name)
		}
	}
	sort.Strings(files)
	return files, nil
}

// slugify lowercases a migration name and collapses everything that is not
// alphanumeric into single underscores.
func slugify(name string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
