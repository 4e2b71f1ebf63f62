//go:build integration

package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/phrazzld/quizimport/internal/platform/postgres"
)

// TestTimeout defines a default timeout for test database operations.
const TestTimeout = 10 * time.Second

const (
	postgresImage    = "postgres:16-alpine"
	postgresUser     = "quiz"
	postgresPassword = "quiz"
	postgresDB       = "quiz_test"
)

var (
	setupOnce sync.Once
	shared    *sql.DB
	setupErr  error
)

// GetTestDatabaseURL returns the externally provided database URL, if any.
func GetTestDatabaseURL() string {
	if u := os.Getenv("DATABASE_URL"); u != "" {
		return u
	}
	return os.Getenv("QUIZ_TEST_DB_URL")
}

// Open returns the shared migrated test database. The first call starts a
// container when no database URL is configured; the container lives for the
// rest of the test binary.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	setupOnce.Do(func() {
		shared, setupErr = open(context.Background())
	})
	if setupErr != nil {
		t.Skipf("test database unavailable: %v", setupErr)
	}
	return shared
}

// Reset empties every application table.
func Reset(t *testing.T, db *sql.DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()
	_, err := db.ExecContext(ctx, `TRUNCATE import_job_items, import_jobs, questions, question_banks, app_settings RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "failed to reset test database")
}

func open(ctx context.Context) (*sql.DB, error) {
	dbURL := GetTestDatabaseURL()
	if dbURL == "" {
		var err error
		if dbURL, err = startContainer(ctx); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	pingCtx, cancel := context.WithTimeout(ctx, TestTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := postgres.Migrate(ctx, db, quiet, "up"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func startContainer(ctx context.Context) (string, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        postgresImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     postgresUser,
				"POSTGRES_PASSWORD": postgresPassword,
				"POSTGRES_DB":       postgresDB,
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get container host: %w", err)
	}
	if host == "" || host == "null" {
		host = "localhost"
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("failed to get mapped port: %w", err)
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		postgresUser, postgresPassword, host, port.Port(), postgresDB), nil
}
