package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/printshop-backend/pkg/config"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSlowQuery = 200 * time.Millisecond
)

// Client owns the shared GORM handle.
type Client struct {
	conn *gorm.DB
}

// Pinger is what health checks need from a datastore.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New opens the configured driver, applies pool limits and routes GORM
// diagnostics through the service logger.
func New(ctx context.Context, cfg config.DBConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 newGormLogger(logg, defaultSlowQuery),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s connection: %w", cfg.Driver, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}
	configurePool(sqlDB, cfg)

	if logg != nil {
		logg.Info(logg.WithField(ctx, "driver", driverName(cfg)), "database connection established")
	}
	return &Client{conn: conn}, nil
}

func driverName(cfg config.DBConfig) string {
	name := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if name == "" {
		return DriverPostgres
	}
	return name
}

func dialectorFor(cfg config.DBConfig) (gorm.Dialector, error) {
	switch driverName(cfg) {
	case DriverPostgres, "postgresql":
		return postgres.New(postgres.Config{DSN: cfg.DSN, PreferSimpleProtocol: true}), nil
	case DriverSQLite, "sqlite3":
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func configurePool(sqlDB *sql.DB, cfg config.DBConfig) {
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

// Wrap adopts a connection opened elsewhere, e.g. by tests.
func Wrap(conn *gorm.DB) *Client {
	return &Client{conn: conn}
}

func (c *Client) DB() *gorm.DB {
	return c.conn
}

func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (c *Client) Close() error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithTx runs fn in a transaction. A returned error or a panic rolls back;
// the panic is re-raised after rollback.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return c.conn.WithContext(ctx).Transaction(fn)
}
