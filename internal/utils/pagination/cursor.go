package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidToken is returned for tokens that were not produced by Encode.
var ErrInvalidToken = errors.New("invalid pagination token")

// DefaultLimit and MaxLimit bound page sizes requested by callers.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Cursor is the opaque pagination state we encode/decode.
// ID + AtUnix (in millis) establish a stable keyset position; ID breaks ties
// between rows sharing a timestamp.
type Cursor struct {
	ID     uint64 `json:"id"`
	AtUnix int64  `json:"at,omitempty"`
}

// IsZero reports whether the cursor points at the first page.
func (c Cursor) IsZero() bool {
	return c.ID == 0 && c.AtUnix == 0
}

// At returns the cursor timestamp.
func (c Cursor) At() time.Time {
	return time.UnixMilli(c.AtUnix).UTC()
}

// After builds the cursor that resumes right after a row.
func After(id uint64, at time.Time) Cursor {
	return Cursor{ID: id, AtUnix: at.UnixMilli()}
}

// Encode converts a Cursor into a Base64 string.
func Encode(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Decode parses a Base64 string into a Cursor.
// Empty token → empty cursor (first page).
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}

	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrInvalidToken
	}

	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return Cursor{}, ErrInvalidToken
	}
	return c, nil
}

// ClampLimit applies DefaultLimit to non-positive values and caps at MaxLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// Deref safely dereferences a string pointer for pagination tokens.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
