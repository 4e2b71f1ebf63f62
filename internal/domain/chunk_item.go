package domain

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// ChunkStatus is the outcome of one chunk.
type ChunkStatus string

// Possible chunk outcomes.
const (
	ChunkStatusSuccess ChunkStatus = "success"
	ChunkStatusFailed  ChunkStatus = "failed"
)

// MaxErrorMessageLength bounds stored error messages, in runes.
const MaxErrorMessageLength = 2000

const unknownError = "unknown error"

var (
	ErrInvalidChunkNo       = errors.New("chunk number must be positive")
	ErrMissingChunkResult   = errors.New("successful chunk must carry a result")
	ErrMissingChunkError    = errors.New("failed chunk must carry an error message")
	ErrUnexpectedChunkField = errors.New("chunk item carries fields of the other outcome")
)

// ChunkResult summarises a successful chunk.
type ChunkResult struct {
	ParsedCount    int `json:"parsedCount"`
	InsertedCount  int `json:"insertedCount"`
	DuplicateCount int `json:"duplicateCount"`
	Attempts       int `json:"attempts"`
}

// ChunkItem records the outcome of one chunk of an import job. It is written
// once when the chunk concludes and never modified.
type ChunkItem struct {
	ID           int64        `json:"-"`
	JobID        int64        `json:"-"`
	ChunkNo      int          `json:"chunk_no"`
	Status       ChunkStatus  `json:"status"`
	Result       *ChunkResult `json:"result,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// NewSuccessItem builds a success item for the given chunk.
func NewSuccessItem(chunkNo int, result ChunkResult) *ChunkItem {
	return &ChunkItem{
		ChunkNo:   chunkNo,
		Status:    ChunkStatusSuccess,
		Result:    &result,
		CreatedAt: time.Now().UTC(),
	}
}

// NewFailedItem builds a failed item whose message names the attempt count
// and the last error.
func NewFailedItem(chunkNo, attempts int, lastErr error) *ChunkItem {
	msg := unknownError
	if lastErr != nil {
		msg = lastErr.Error()
	}
	noun := "attempts"
	if attempts == 1 {
		noun = "attempt"
	}
	return &ChunkItem{
		ChunkNo:      chunkNo,
		Status:       ChunkStatusFailed,
		ErrorMessage: TruncateMessage(fmt.Sprintf("chunk %d failed after %d %s: %s", chunkNo, attempts, noun, msg)),
		CreatedAt:    time.Now().UTC(),
	}
}

// Validate checks that exactly the fields of the item's outcome are present.
func (c *ChunkItem) Validate() error {
	if c.ChunkNo <= 0 {
		return ErrInvalidChunkNo
	}
	switch c.Status {
	case ChunkStatusSuccess:
		if c.Result == nil {
			return ErrMissingChunkResult
		}
		if c.ErrorMessage != "" {
			return ErrUnexpectedChunkField
		}
	case ChunkStatusFailed:
		if c.ErrorMessage == "" {
			return ErrMissingChunkError
		}
		if c.Result != nil {
			return ErrUnexpectedChunkField
		}
	default:
		return ErrInvalidChunkStatus
	}
	return nil
}

// TruncateMessage bounds msg to MaxErrorMessageLength runes. Empty messages
// become "unknown error".
func TruncateMessage(msg string) string {
	if msg == "" {
		return unknownError
	}
	if utf8.RuneCountInString(msg) <= MaxErrorMessageLength {
		return msg
	}
	runes := []rune(msg)
	return string(runes[:MaxErrorMessageLength])
}
