package models

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// OrderQuery selects a page of order history, newest first.
type OrderQuery struct {
	BuyerID string
	Cursor  string
	Limit   int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageSize clamps the requested limit.
func (q OrderQuery) PageSize() int {
	switch {
	case q.Limit <= 0:
		return DefaultPageSize
	case q.Limit > MaxPageSize:
		return MaxPageSize
	default:
		return q.Limit
	}
}

type OrderPage struct {
	Items      []Order `json:"items"`
	NextCursor string  `json:"nextCursor,omitempty"`
	HasMore    bool    `json:"hasMore"`
}

// OrderCursor points at the last order of a page. Orders sort by
// (createdAt, id) descending.
type OrderCursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
}

// Before reports whether o sorts after the cursor position.
func (c OrderCursor) Before(o Order) bool {
	if o.CreatedAt.Equal(c.CreatedAt) {
		return o.ID < c.ID
	}
	return o.CreatedAt.Before(c.CreatedAt)
}

func EncodeCursor(cursor OrderCursor) string {
	data, err := json.Marshal(cursor)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeCursor parses an encoded cursor. The empty string means the first
// page and yields ok == false.
func DecodeCursor(encoded string) (cursor OrderCursor, ok bool, err error) {
	if encoded == "" {
		return cursor, false, nil
	}

	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return cursor, false, err
	}

	if err := json.Unmarshal(data, &cursor); err != nil {
		return cursor, false, err
	}
	return cursor, true, nil
}
