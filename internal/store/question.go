package store

import (
	"context"

	"github.com/phrazzld/quizimport/internal/domain"
)

// ImportResult counts what happened to one batch of question records.
type ImportResult struct {
	Parsed    int
	Inserted  int
	Duplicate int
}

// QuestionStore is the question bank that receives imported records.
type QuestionStore interface {
	// ImportBatch persists records. In replace mode every existing question
	// is removed first. Records whose code or exact text already exists are
	// counted as duplicates and skipped.
	ImportBatch(ctx context.Context, records []*domain.Question, mode domain.ImportMode, bankID string) (ImportResult, error)

	// PurgeAll removes every question.
	PurgeAll(ctx context.Context) error
}
