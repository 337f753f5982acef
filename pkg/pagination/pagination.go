// Package pagination implements keyset pagination over (created_at, id),
// newest first.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor marks the last row of a page. Rows strictly older follow it.
type Cursor struct {
	CreatedAt time.Time `json:"t"`
	ID        uuid.UUID `json:"id"`
}

// Page is one page of results plus the cursor of the next page, if any.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// NormalizeLimit maps non-positive limits to DefaultLimit and caps at MaxLimit.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// FetchLimit is the row count to query: one extra row reveals a next page.
func FetchLimit(limit int) int {
	return NormalizeLimit(limit) + 1
}

// Build turns up to FetchLimit(limit) rows, newest first, into a page.
func Build[Row, Item any](rows []Row, limit int, cursorOf func(Row) Cursor, view func(Row) Item) Page[Item] {
	limit = NormalizeLimit(limit)
	page := Page[Item]{Items: make([]Item, 0, min(len(rows), limit))}
	if len(rows) > limit {
		page.NextCursor = EncodeCursor(cursorOf(rows[limit-1]))
		rows = rows[:limit]
	}
	for _, row := range rows {
		page.Items = append(page.Items, view(row))
	}
	return page
}

func EncodeCursor(cursor Cursor) string {
	cursor.CreatedAt = cursor.CreatedAt.UTC()
	payload, _ := json.Marshal(cursor)
	return base64.RawURLEncoding.EncodeToString(payload)
}

// ParseCursor returns nil for a blank value and ErrInvalidCursor for anything
// EncodeCursor could not have produced.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var cursor Cursor
	if err := json.Unmarshal(raw, &cursor); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if cursor.CreatedAt.IsZero() || cursor.ID == uuid.Nil {
		return nil, ErrInvalidCursor
	}
	return &cursor, nil
}
