package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/phrazzld/quizimport/internal/domain"
	"github.com/phrazzld/quizimport/internal/store"
)

// QuestionStore is an in-memory question bank.
type QuestionStore struct {
	mu        sync.Mutex
	questions []*domain.Question
}

var _ store.QuestionStore = (*QuestionStore)(nil)

// NewQuestionStore creates an empty QuestionStore.
func NewQuestionStore() *QuestionStore {
	return &QuestionStore{}
}

// ImportBatch implements store.QuestionStore.
func (s *QuestionStore) ImportBatch(_ context.Context, records []*domain.Question, mode domain.ImportMode, bankID string) (store.ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mode == domain.ImportModeReplace {
		s.questions = nil
	}

	res := store.ImportResult{Parsed: len(records)}
	for _, rec := range records {
		if s.existsLocked(rec) {
			res.Duplicate++
			continue
		}
		q := *rec
		q.Options = append([]domain.Option(nil), rec.Options...)
		if q.BankID == "" {
			q.BankID = bankID
		}
		s.questions = append(s.questions, &q)
		res.Inserted++
	}
	return res, nil
}

// PurgeAll implements store.QuestionStore.
func (s *QuestionStore) PurgeAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = nil
	return nil
}

// All returns a copy of every stored question.
func (s *QuestionStore) All() []domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, *q)
	}
	return out
}

func (s *QuestionStore) existsLocked(rec *domain.Question) bool {
	text := strings.TrimSpace(rec.Text)
	for _, q := range s.questions {
		if rec.Code != "" && q.Code == rec.Code {
			return true
		}
		if strings.TrimSpace(q.Text) == text {
			return true
		}
	}
	return false
}
