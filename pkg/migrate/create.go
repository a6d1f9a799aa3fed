package migrate

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"
)

const versionLayout = "20060102150405"

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

var sqlTemplate = template.Must(template.New("migration").Parse(`-- +goose Up
-- +goose StatementBegin
-- {{.Slug}}
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- revert {{.Slug}}
-- +goose StatementEnd
`))

// CreateSQLMigration writes an empty goose migration named
// <dir>/<YYYYMMDDHHMMSS>_<slug>.sql and returns its path.
func CreateSQLMigration(dir string, name string) (string, error) {
	return createSQLMigration(dir, name, time.Now().UTC())
}

func createSQLMigration(dir, name string, now time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := Slug(name)
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	version := now.Format(versionLayout)
	existing, err := listMigrations(dir)
	if err != nil {
		return "", err
	}
	for _, m := range existing {
		if m.Version == version {
			return "", fmt.Errorf("migration version %s already used by %q", version, m.Name)
		}
	}

	var body bytes.Buffer
	if err := sqlTemplate.Execute(&body, struct{ Slug string }{slug}); err != nil {
		return "", fmt.Errorf("render migration: %w", err)
	}
	path := filepath.Join(dir, version+"_"+slug+".sql")
	if err := os.WriteFile(path, body.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, nil
}

// Slug lowercases name and collapses every run of other characters to "_".
func Slug(name string) string {
	slug := slugRe.ReplaceAllString(strings.ToLower(name), "_")
	return strings.Trim(slug, "_")
}
