package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	require.Equal(t, DefaultLimit, NormalizeLimit(0))
	require.Equal(t, DefaultLimit, NormalizeLimit(-3))
	require.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+1))
	require.Equal(t, 5, NormalizeLimit(5))
	require.Equal(t, 6, LimitWithBuffer(5))
}

func TestCursorRoundTrip(t *testing.T) {
	original := Cursor{CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 123, time.UTC), ID: uuid.New()}
	encoded := EncodeCursor(original)
	require.Len(t, encoded, 32)

	parsed, err := ParseCursor(encoded)
	require.NoError(t, err)
	require.True(t, parsed.CreatedAt.Equal(original.CreatedAt))
	require.Equal(t, original.ID, parsed.ID)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	parsed, err := ParseCursor("  ")
	require.NoError(t, err)
	require.Nil(t, parsed)

	_, err = ParseCursor("not base64!")
	require.ErrorIs(t, err, ErrInvalidCursor)

	_, err = ParseCursor("c2hvcnQ") // "short"
	require.ErrorIs(t, err, ErrInvalidCursor)
}

func TestSplit(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	key := func(id uuid.UUID) Cursor { return Cursor{ID: id} }

	page, next := Split(ids, 2, key)
	require.Equal(t, ids[:2], page)
	require.Equal(t, ids[2], next.ID)

	page, next = Split(ids, 3, key)
	require.Len(t, page, 3)
	require.Nil(t, next)
}
