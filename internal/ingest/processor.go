package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/phrazzld/quizimport/internal/domain"
	"github.com/phrazzld/quizimport/internal/generation"
	"github.com/phrazzld/quizimport/internal/redact"
	"github.com/phrazzld/quizimport/internal/store"
)

// ProcessorConfig bounds the retry behaviour of a Processor.
type ProcessorConfig struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int
	// BaseDelay is the backoff unit: the wait before attempt n+1 is n*BaseDelay.
	BaseDelay time.Duration
}

// Processor turns one chunk into persisted question records.
type Processor struct {
	completer generation.Completer
	questions store.QuestionStore
	cfg       ProcessorConfig
	logger    *slog.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(
	completer generation.Completer,
	questions store.QuestionStore,
	cfg ProcessorConfig,
	logger *slog.Logger,
) *Processor {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		completer: completer,
		questions: questions,
		cfg:       cfg,
		logger:    logger.With("component", "chunk_processor"),
	}
}

// Process runs up to MaxRetries+1 attempts for the chunk and returns the
// records that were persisted together with the chunk's outcome item. The
// item's JobID is left for the caller to set.
//
// Each attempt calls the completer, parses its response and imports the
// records in add mode. Failures tagged permanent by generation.IsPermanent
// end the loop early.
func (p *Processor) Process(ctx context.Context, chunkNo int, chunk, bankID string) ([]*domain.Question, *domain.ChunkItem) {
	log := p.logger.With("chunk_no", chunkNo)

	var (
		attempts int
		records  []*domain.Question
		result   store.ImportResult
	)
	backoff := retry.WithMaxRetries(uint64(p.cfg.MaxRetries), linearBackoff(p.cfg.BaseDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		recs, res, err := p.attempt(ctx, chunk, bankID)
		if err != nil {
			log.Warn("chunk attempt failed",
				"attempt", attempts,
				"error", redact.Secrets(err.Error()),
				"permanent", generation.IsPermanent(err))
			if generation.IsPermanent(err) {
				return err
			}
			return retry.RetryableError(err)
		}
		records, result = recs, res
		return nil
	})
	if err != nil {
		if attempts == 0 {
			attempts = 1
		}
		log.Error("chunk failed", "attempts", attempts, "error", redact.Secrets(err.Error()))
		return nil, domain.NewFailedItem(chunkNo, attempts, errors.New(redact.Secrets(err.Error())))
	}

	log.Debug("chunk imported",
		"attempts", attempts,
		"parsed", result.Parsed,
		"inserted", result.Inserted,
		"duplicates", result.Duplicate)
	return records, domain.NewSuccessItem(chunkNo, domain.ChunkResult{
		ParsedCount:    result.Parsed,
		InsertedCount:  result.Inserted,
		DuplicateCount: result.Duplicate,
		Attempts:       attempts,
	})
}

func (p *Processor) attempt(ctx context.Context, chunk, bankID string) ([]*domain.Question, store.ImportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, store.ImportResult{}, err
	}
	text, err := p.completer.Complete(ctx, generation.SystemPrompt, generation.UserPrompt(chunk))
	if err != nil {
		return nil, store.ImportResult{}, err
	}

	records, err := ParseQuestions(text)
	if err != nil {
		return nil, store.ImportResult{}, err
	}
	for _, r := range records {
		r.BankID = bankID
	}

	res, err := p.questions.ImportBatch(ctx, records, domain.ImportModeAdd, bankID)
	if err != nil {
		return nil, store.ImportResult{}, fmt.Errorf("failed to import questions: %w", err)
	}
	return records, res, nil
}

// linearBackoff waits base, 2*base, 3*base, ... between attempts.
func linearBackoff(base time.Duration) retry.Backoff {
	var n int64
	return retry.BackoffFunc(func() (time.Duration, bool) {
		n++
		return base * time.Duration(n), false
	})
}
