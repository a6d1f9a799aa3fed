package migrate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/printshop-backend/pkg/config"
)

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))
}

func TestMigrationsDeclareDedupConstraints(t *testing.T) {
	sql := readAllMigrations(t)

	for _, want := range []string{
		"ux_payment_events_provider_event UNIQUE (provider, provider_event_id)",
		"ux_transactions_provider_event UNIQUE (provider_event_id)",
		"ux_outbox_events_event_aggregate UNIQUE (event_type, aggregate_type, aggregate_id)",
		"CHECK (status IN ('pending', 'placed', 'missing payment'))",
		"CHECK (payment_status IN ('pending', 'paid', 'failed'))",
		"unit_price NUMERIC(10,2) NOT NULL",
	} {
		require.Contains(t, sql, want)
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "create_users.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))

	err := ValidateDir(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid migration filename")
}

func TestValidateDirRejectsMissingDown(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_x.sql"), []byte("-- +goose Up\nSELECT 1;\n"), 0o644))

	err := ValidateDir(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "goose Down")
}

func TestValidateDirRejectsUnbalancedStatements(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_x.sql"), []byte(body), 0o644))

	require.Error(t, ValidateDir(dir))
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()

	path, err := CreateSQLMigration(dir, "Add Print Sizes!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_print_sizes.sql"))
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "!!!")
	require.Error(t, err)
}

func TestCreateSQLMigrationRejectsReusedVersion(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := createSQLMigration(dir, "add_paper_stock", now)
	require.NoError(t, err)
	_, err = createSQLMigration(dir, "add_paper_finish", now)
	require.ErrorContains(t, err, "20260301120000")
}

func TestSlug(t *testing.T) {
	require.Equal(t, "add_print_sizes", Slug("  Add  Print-Sizes! "))
	require.Empty(t, Slug("__"))
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("20260105090000")
	require.NoError(t, err)
	require.Equal(t, int64(20260105090000), v)

	for _, bad := range []string{"", "2026", "2026010509000x"} {
		_, err := ParseVersion(bad)
		require.Error(t, err, bad)
	}
}

func readAllMigrations(t *testing.T) string {
	t.Helper()
	entries, err := os.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	var b strings.Builder
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join("migrations", e.Name()))
		require.NoError(t, err)
		b.Write(data)
	}
	return b.String()
}

func TestAutoRunOnlyInDevWithFlag(t *testing.T) {
	dev := &config.Config{App: config.AppConfig{Env: "dev"}, FeatureFlags: config.FeatureFlagsConfig{AutoMigrate: true}}
	require.True(t, autoRunEnabled(dev))

	prod := *dev
	prod.App.Env = "prod"
	require.False(t, autoRunEnabled(&prod))

	off := *dev
	off.FeatureFlags.AutoMigrate = false
	require.False(t, autoRunEnabled(&off))
	require.False(t, autoRunEnabled(nil))

	require.NoError(t, MaybeRunDev(context.Background(), &prod, nil, nil))
}

func TestNewRunnerRequiresDatabase(t *testing.T) {
	_, err := NewRunner(nil, "sqlite", DefaultDir, nil)
	require.Error(t, err)
}

func TestWrapCommandErrIgnoresNoNextVersion(t *testing.T) {
	require.NoError(t, wrapCommandErr("up-by-one", goose.ErrNoNextVersion))
	require.ErrorContains(t, wrapCommandErr("down", errors.New("boom")), "goose down: boom")
}
