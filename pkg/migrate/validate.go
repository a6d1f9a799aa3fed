package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var migrationNameRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

type migrationFile struct {
	Version string
	Name    string
}

// listMigrations returns the .sql files in dir, rejecting names goose would
// order unpredictably.
func listMigrations(dir string) ([]migrationFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}
	var files []migrationFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		m := migrationNameRe.FindStringSubmatch(e.Name())
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", e.Name())
		}
		files = append(files, migrationFile{Version: m[1], Name: e.Name()})
	}
	return files, nil
}

// ValidateDir checks migration filenames, version uniqueness and goose annotations.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	files, err := listMigrations(dir)
	if err != nil {
		return err
	}

	seen := make(map[string]string, len(files))
	for _, f := range files {
		if prev, ok := seen[f.Version]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", f.Version, prev, f.Name)
		}
		seen[f.Version] = f.Name

		if err := checkAnnotations(filepath.Join(dir, f.Name)); err != nil {
			return err
		}
	}
	return nil
}

func checkAnnotations(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file %q: %w", path, err)
	}
	body := string(raw)
	name := filepath.Base(path)

	for _, marker := range []string{"-- +goose Up", "-- +goose Down"} {
		if !strings.Contains(body, marker) {
			return fmt.Errorf("migration %q missing %q", name, marker)
		}
	}
	if strings.Index(body, "-- +goose Down") < strings.Index(body, "-- +goose Up") {
		return fmt.Errorf("migration %q declares Down before Up", name)
	}
	begins := strings.Count(body, "-- +goose StatementBegin")
	ends := strings.Count(body, "-- +goose StatementEnd")
	if begins != ends {
		return fmt.Errorf("migration %q has %d StatementBegin but %d StatementEnd", name, begins, ends)
	}
	return nil
}
