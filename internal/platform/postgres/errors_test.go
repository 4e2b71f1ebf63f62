package postgres

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/quizimport/internal/store"
)

type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"unique", &pgconn.PgError{Code: uniqueViolationCode}, store.ErrDuplicate},
		{"foreign key", &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "fk"}, store.ErrInvalidEntity},
		{"check", &pgconn.PgError{Code: checkViolationCode}, store.ErrInvalidEntity},
		{"not null", &pgconn.PgError{Code: notNullViolationCode, ColumnName: "text"}, store.ErrInvalidEntity},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, MapError(tc.err), tc.want)
		})
	}

	other := errors.New("connection reset")
	assert.Equal(t, other, MapError(other))
	assert.NoError(t, MapError(nil))
}

func TestViolationHelpers(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: uniqueViolationCode}))
	assert.False(t, IsUniqueViolation(errors.New("x")))
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: foreignKeyViolationCode}))
	assert.False(t, IsForeignKeyViolation(&pgconn.PgError{Code: uniqueViolationCode}))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, CheckRowsAffected(fakeResult{rows: 1}, store.ErrJobNotFound))
	assert.ErrorIs(t, CheckRowsAffected(fakeResult{rows: 0}, store.ErrJobNotFound), store.ErrJobNotFound)
	assert.Error(t, CheckRowsAffected(fakeResult{err: errors.New("boom")}, store.ErrJobNotFound))
	assert.Error(t, CheckRowsAffected(nil, store.ErrJobNotFound))
}

func TestDeleteFinished_WrapsFailures(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("pgx", "postgres://quiz@localhost:5432/quiz")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	jobs := NewPostgresJobStore(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	_, err = jobs.DeleteFinishedBefore(ctx, time.Now())
	assert.ErrorIs(t, err, store.ErrDeleteFailed)
	var storeErr *store.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "import_job", storeErr.Entity)
	assert.Equal(t, "delete_expired", storeErr.Operation)

	_, err = jobs.DeleteFinishedBeyond(ctx, 10)
	assert.ErrorIs(t, err, store.ErrDeleteFailed)
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "delete_excess", storeErr.Operation)
}
