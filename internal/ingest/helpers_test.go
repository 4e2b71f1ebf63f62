package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/phrazzld/quizimport/internal/domain"
	"github.com/phrazzld/quizimport/internal/generation"
	"github.com/phrazzld/quizimport/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedCompleter answers each call with the next response in a script,
// repeating the last entry once the script is exhausted.
type scriptedCompleter struct {
	mu      sync.Mutex
	calls   atomic.Int64
	script  []completion
	prompts []string
}

type completion struct {
	text string
	err  error
}

func (c *scriptedCompleter) Complete(_ context.Context, _, userPrompt string) (string, error) {
	n := int(c.calls.Add(1))
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, userPrompt)
	step := c.script[min(n, len(c.script))-1]
	return step.text, step.err
}

// echoCompleter turns every "简答题：" line of the chunk into a short-answer
// question, so each chunk yields distinct records.
var echoCompleter = generation.CompleterFunc(func(_ context.Context, _, userPrompt string) (string, error) {
	var parts []string
	for _, line := range strings.Split(userPrompt, "\n") {
		if text, ok := strings.CutPrefix(strings.TrimSpace(line), "简答题："); ok {
			parts = append(parts, fmt.Sprintf(`{"text": %q, "answer": "ok"}`, text))
		}
	}
	return "[" + strings.Join(parts, ",") + "]", nil
})

// failingQuestionStore wraps a QuestionStore and fails ImportBatch a fixed
// number of times.
type failingQuestionStore struct {
	store.QuestionStore
	failures atomic.Int64
}

func (s *failingQuestionStore) ImportBatch(ctx context.Context, records []*domain.Question, mode domain.ImportMode, bankID string) (store.ImportResult, error) {
	if s.failures.Add(-1) >= 0 {
		return store.ImportResult{}, fmt.Errorf("connection reset")
	}
	return s.QuestionStore.ImportBatch(ctx, records, mode, bankID)
}
