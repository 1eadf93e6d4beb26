package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "42", CreatedAt: "2025-03-10T09:00:00Z"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "42", cursor.ID)
	assert.Equal(t, "2025-03-10T09:00:00Z", cursor.CreatedAt)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("not base64!!")
	assert.Error(t, err)
}

func TestBuildCursorPageInfo(t *testing.T) {
	type row struct{ ID string }
	extract := func(r *row) string { return r.ID }

	info := BuildCursorPageInfo([]*row{}, 2, extract)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)

	// One row over the limit signals another page.
	rows := []*row{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	info = BuildCursorPageInfo(rows, 2, extract)
	assert.True(t, info.HasMore)
	assert.Equal(t, "b", info.NextPageToken)

	info = BuildCursorPageInfo(rows[:2], 2, extract)
	assert.False(t, info.HasMore)
	assert.Equal(t, "b", info.NextPageToken)
}
