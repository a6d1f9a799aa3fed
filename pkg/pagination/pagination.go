package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the page size when the caller does not send one.
	DefaultLimit = 20
	// MaxLimit caps how many rows a keyset query can request.
	MaxLimit = 100

	cursorVersion = "v1"
)

// Params holds keyset pagination inputs from controllers.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor points at the last row of the previous page. Rows are served in
// descending ID order, so the next page starts strictly below ID.
type Cursor struct {
	ID int64
}

// NormalizeLimit enforces the default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer returns the normalized limit plus one to detect the next page.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// EncodeCursor builds the opaque cursor string handed to clients.
func EncodeCursor(cursor Cursor) string {
	payload := cursorVersion + "|" + strconv.FormatInt(cursor.ID, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes a cursor string. An empty value means the first page.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	version, rawID, ok := strings.Cut(string(decoded), "|")
	if !ok || version != cursorVersion {
		return nil, fmt.Errorf("invalid cursor format")
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid cursor id %q", rawID)
	}
	return &Cursor{ID: id}, nil
}

// Trim drops the buffer row fetched by LimitWithBuffer and reports whether
// another page exists.
func Trim[T any](rows []T, limit int) ([]T, bool) {
	limit = NormalizeLimit(limit)
	if len(rows) <= limit {
		return rows, false
	}
	return rows[:limit], true
}
