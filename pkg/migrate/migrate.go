package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pressly/goose/v3"
)

const DefaultDir = "pkg/migrate/migrations"

// Commands lists the operations Run accepts.
var Commands = []string{"up", "up-by-one", "down", "redo", "status"}

// Runner applies migrations from one directory to one database.
type Runner struct {
	provider *goose.Provider
	out      io.Writer
}

// NewRunner builds a runner for the given driver. Progress lines go to out.
func NewRunner(sqlDB *sql.DB, driver, dir string, out io.Writer) (*Runner, error) {
	if sqlDB == nil {
		return nil, errors.New("sql db is required")
	}
	if dir == "" {
		return nil, errors.New("migrations dir is required")
	}
	provider, err := newProvider(sqlDB, driver, dir)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = io.Discard
	}
	return &Runner{provider: provider, out: out}, nil
}

// Run executes one of Commands.
func (r *Runner) Run(ctx context.Context, command string) error {
	switch command {
	case "up":
		results, err := r.provider.Up(ctx)
		r.report(results...)
		return wrapCommandErr(command, err)
	case "up-by-one":
		res, err := r.provider.UpByOne(ctx)
		r.report(res)
		return wrapCommandErr(command, err)
	case "down":
		res, err := r.provider.Down(ctx)
		r.report(res)
		return wrapCommandErr(command, err)
	case "redo":
		down, err := r.provider.Down(ctx)
		r.report(down)
		if err != nil {
			return wrapCommandErr(command, err)
		}
		up, err := r.provider.UpByOne(ctx)
		r.report(up)
		return wrapCommandErr(command, err)
	case "status":
		return r.status(ctx)
	}
	return fmt.Errorf("unknown migrate command %q", command)
}

// MigrateTo moves the schema up or down until it sits at target.
func (r *Runner) MigrateTo(ctx context.Context, target int64) error {
	current, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	switch {
	case current == target:
		fmt.Fprintf(r.out, "schema already at %d\n", target)
		return nil
	case current < target:
		results, err := r.provider.UpTo(ctx, target)
		r.report(results...)
		return wrapCommandErr(fmt.Sprintf("up-to %d", target), err)
	default:
		results, err := r.provider.DownTo(ctx, target)
		r.report(results...)
		return wrapCommandErr(fmt.Sprintf("down-to %d", target), err)
	}
}

func (r *Runner) status(ctx context.Context) error {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return wrapCommandErr("status", err)
	}
	for _, st := range statuses {
		applied := "pending"
		if st.State == goose.StateApplied {
			applied = st.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(r.out, "%-24s %s\n", applied, st.Source.Path)
	}
	return nil
}

func (r *Runner) report(results ...*goose.MigrationResult) {
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		fmt.Fprintf(r.out, "%-4s %d %s (%s)\n", res.Direction, res.Source.Version, res.Source.Path, res.Duration.Round(time.Millisecond))
	}
}

func wrapCommandErr(command string, err error) error {
	if err == nil || errors.Is(err, goose.ErrNoNextVersion) {
		return nil
	}
	return fmt.Errorf("goose %s: %w", command, err)
}

// ParseVersion parses a YYYYMMDDHHMMSS migration version.
func ParseVersion(raw string) (int64, error) {
	if raw == "" {
		return 0, errors.New("version is required")
	}
	if _, err := time.Parse(versionLayout, raw); err != nil {
		return 0, fmt.Errorf("invalid version %q (expected %s)", raw, versionLayout)
	}
	return strconv.ParseInt(raw, 10, 64)
}
