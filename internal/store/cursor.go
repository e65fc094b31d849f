package store

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"spendlog/internal/core"
)

// Cursor pins a position in the (date desc, createdAt desc, id desc) sort
// order. It is serialized into an opaque token so the public contract stays
// store-agnostic; callers must not interpret it.
type Cursor struct {
	Date      string `json:"d"`
	CreatedAt int64  `json:"c"` // unix microseconds
	ID        string `json:"i"`
}

// EncodeCursor produces the continuation token for the record that closed a
// page.
func EncodeCursor(e core.Expense) string {
	c := Cursor{
		Date:      e.Date,
		CreatedAt: e.CreatedAt.UnixMicro(),
		ID:        e.ID,
	}
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a continuation token produced by EncodeCursor.
func DecodeCursor(token string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: %w", err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, fmt.Errorf("parse cursor: %w", err)
	}
	return c, nil
}

// After reports whether the expense sorts strictly after the cursor position,
// i.e. belongs to a later page.
func (c Cursor) After(e core.Expense) bool {
	if e.Date != c.Date {
		return e.Date < c.Date
	}
	ec := e.CreatedAt.UnixMicro()
	if ec != c.CreatedAt {
		return ec < c.CreatedAt
	}
	return LessID(e.ID, c.ID)
}

// LessID orders numeric string ids: shorter ids sort first, equal lengths
// compare lexicographically. Both backends assign increasing integer ids, so
// this is a numeric comparison without the parse.
func LessID(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
