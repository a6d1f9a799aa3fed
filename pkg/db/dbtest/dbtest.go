// Package dbtest opens isolated in-memory sqlite databases carrying the
// printshop schema for package tests.
package dbtest

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/printshop-backend/pkg/db"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
)

var schema = []string{
	`CREATE TABLE users (
		user_id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		created_at DATETIME
	)`,
	`CREATE TABLE formats (
		format_id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT,
		price NUMERIC NOT NULL
	)`,
	`CREATE TABLE photos (
		photo_id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		image_url TEXT NOT NULL,
		description TEXT
	)`,
	`CREATE TABLE cart_items (
		cart_item_id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		photo_id INTEGER NOT NULL,
		format_id INTEGER NOT NULL,
		quantity INTEGER NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE shipping_addresses (
		address_id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		recipient_name TEXT NOT NULL,
		address TEXT NOT NULL,
		city TEXT NOT NULL,
		state_region TEXT NOT NULL,
		postal_code TEXT NOT NULL,
		country TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE orders (
		order_id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		shipping_address_id INTEGER NOT NULL,
		total_amount NUMERIC NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		payment_status TEXT NOT NULL DEFAULT 'pending',
		payment_intent_id TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE order_items (
		order_item_id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id INTEGER NOT NULL,
		photo_id INTEGER NOT NULL,
		format_id INTEGER NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price NUMERIC NOT NULL
	)`,
	`CREATE TABLE transactions (
		transaction_id INTEGER PRIMARY KEY AUTOINCREMENT,
		payment_provider TEXT NOT NULL,
		payment_id TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		brand TEXT NOT NULL,
		last4 TEXT NOT NULL,
		exp_month INTEGER NOT NULL,
		exp_year INTEGER NOT NULL,
		txn_type TEXT NOT NULL,
		amount INTEGER NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL,
		order_id INTEGER NOT NULL,
		provider_event_id TEXT UNIQUE,
		created_at DATETIME
	)`,
	`CREATE TABLE payment_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		provider TEXT NOT NULL,
		provider_event_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		payload BLOB NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		next_attempt_at DATETIME NOT NULL,
		processed_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_payment_events_provider_event ON payment_events (provider, provider_event_id)`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id INTEGER NOT NULL,
		payload BLOB NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
	`CREATE UNIQUE INDEX ux_outbox_events_event_aggregate ON outbox_events (event_type, aggregate_type, aggregate_id)`,
	`CREATE TABLE outbox_dlq (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id INTEGER NOT NULL,
		payload_json BLOB NOT NULL,
		error_reason TEXT NOT NULL,
		error_message TEXT,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		failed_at DATETIME,
		created_at DATETIME
	)`,
}

// Open returns a client backed by a private in-memory database. The pool is
// pinned to one connection so the database lives as long as the test.
func Open(t testing.TB) *db.Client {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := "file:" + name + "_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return db.Wrap(conn)
}

// SeedUser inserts a user and returns it.
func SeedUser(t testing.TB, client *db.Client, name string) models.User {
	t.Helper()
	user := models.User{Name: name, Email: strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com"}
	if err := client.DB().Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// SeedFormat inserts a catalog format with the given price.
func SeedFormat(t testing.TB, client *db.Client, name, price string) models.Format {
	t.Helper()
	format := models.Format{Name: name, Price: decimal.RequireFromString(price)}
	if err := client.DB().Create(&format).Error; err != nil {
		t.Fatalf("seed format: %v", err)
	}
	return format
}

// SeedPhoto inserts a photo owned by userID.
func SeedPhoto(t testing.TB, client *db.Client, userID int64) models.Photo {
	t.Helper()
	photo := models.Photo{UserID: userID, ImageURL: "https://img.example.com/" + uuid.NewString() + ".jpg"}
	if err := client.DB().Create(&photo).Error; err != nil {
		t.Fatalf("seed photo: %v", err)
	}
	return photo
}

// SeedCartItem inserts a cart line for userID.
func SeedCartItem(t testing.TB, client *db.Client, userID, photoID, formatID int64, quantity int) models.CartItem {
	t.Helper()
	item := models.CartItem{UserID: userID, PhotoID: photoID, FormatID: formatID, Quantity: quantity}
	if err := client.DB().Create(&item).Error; err != nil {
		t.Fatalf("seed cart item: %v", err)
	}
	return item
}
