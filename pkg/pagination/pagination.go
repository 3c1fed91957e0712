package pagination

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor is the first row of the next page in (created_at DESC, id DESC)
// order.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// NormalizeLimit maps non-positive limits to DefaultLimit and caps at MaxLimit.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

// LimitWithBuffer is the query limit: one extra row reveals a next page.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// Split trims rows fetched with LimitWithBuffer to a page and returns the
// cursor of the first row left out, if any.
func Split[T any](rows []T, limit int, key func(T) Cursor) ([]T, *Cursor) {
	size := NormalizeLimit(limit)
	if len(rows) <= size {
		return rows, nil
	}
	next := key(rows[size])
	return rows[:size], &next
}

// cursors are 8 bytes of unix nanos followed by the 16 id bytes.
const cursorLen = 8 + 16

func EncodeCursor(c Cursor) string {
	buf := make([]byte, cursorLen)
	binary.BigEndian.PutUint64(buf, uint64(c.CreatedAt.UnixNano()))
	copy(buf[8:], c.ID[:])
	return base64.RawURLEncoding.EncodeToString(buf)
}

// ParseCursor returns nil for a blank value.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil || len(raw) != cursorLen {
		return nil, ErrInvalidCursor
	}
	id, err := uuid.FromBytes(raw[8:])
	if err != nil {
		return nil, ErrInvalidCursor
	}
	nanos := int64(binary.BigEndian.Uint64(raw[:8]))
	return &Cursor{CreatedAt: time.Unix(0, nanos).UTC(), ID: id}, nil
}
