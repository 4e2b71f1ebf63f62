package domain

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFailedItem(t *testing.T) {
	t.Parallel()

	item := NewFailedItem(4, 3, errors.New("api error status 502"))

	assert.Equal(t, ChunkStatusFailed, item.Status)
	assert.Equal(t, "chunk 4 failed after 3 attempts: api error status 502", item.ErrorMessage)
	assert.Nil(t, item.Result)
	require.NoError(t, item.Validate())

	item = NewFailedItem(1, 1, nil)
	assert.Equal(t, "chunk 1 failed after 1 attempt: "+unknownError, item.ErrorMessage)
}

func TestNewSuccessItem(t *testing.T) {
	t.Parallel()

	item := NewSuccessItem(2, ChunkResult{ParsedCount: 5, InsertedCount: 4, DuplicateCount: 1, Attempts: 2})

	assert.Equal(t, ChunkStatusSuccess, item.Status)
	require.NotNil(t, item.Result)
	assert.Equal(t, 4, item.Result.InsertedCount)
	assert.Empty(t, item.ErrorMessage)
	require.NoError(t, item.Validate())
}

func TestChunkItemValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		item ChunkItem
		want error
	}{
		{"zero chunk", ChunkItem{Status: ChunkStatusFailed, ErrorMessage: "x"}, ErrInvalidChunkNo},
		{"success without result", ChunkItem{ChunkNo: 1, Status: ChunkStatusSuccess}, ErrMissingChunkResult},
		{"success with error", ChunkItem{ChunkNo: 1, Status: ChunkStatusSuccess, Result: &ChunkResult{}, ErrorMessage: "x"}, ErrUnexpectedChunkField},
		{"failed without error", ChunkItem{ChunkNo: 1, Status: ChunkStatusFailed}, ErrMissingChunkError},
		{"failed with result", ChunkItem{ChunkNo: 1, Status: ChunkStatusFailed, ErrorMessage: "x", Result: &ChunkResult{}}, ErrUnexpectedChunkField},
		{"unknown status", ChunkItem{ChunkNo: 1, Status: "skipped"}, ErrInvalidChunkStatus},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, tc.item.Validate(), tc.want)
		})
	}
}

func TestTruncateMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unknown error", TruncateMessage(""))
	assert.Equal(t, "short", TruncateMessage("short"))

	long := strings.Repeat("题", MaxErrorMessageLength+50)
	got := TruncateMessage(long)
	assert.Equal(t, MaxErrorMessageLength, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
}
