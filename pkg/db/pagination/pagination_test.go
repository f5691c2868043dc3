package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "12345", CreatedAt: "2026-08-01T10:00:00Z"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "12345", cursor.ID)
	assert.Equal(t, "2026-08-01T10:00:00Z", cursor.CreatedAt)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("not-base64!")
	require.Error(t, err)

	_, err = DecodeCursor("bm90LWpzb24=")
	require.Error(t, err)
}

type row struct {
	id string
}

func TestBuildCursorPageInfo(t *testing.T) {
	rows := []*row{{id: "3"}, {id: "2"}, {id: "1"}}

	info := BuildCursorPageInfo(rows, 2, func(r *row) string { return r.id })
	require.True(t, info.HasMore)
	assert.Equal(t, "2", info.NextPageToken)

	info = BuildCursorPageInfo(rows, 3, func(r *row) string { return r.id })
	require.False(t, info.HasMore)
	assert.Equal(t, "1", info.NextPageToken)

	info = BuildCursorPageInfo(nil, 3, func(r *row) string { return r.id })
	require.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}
