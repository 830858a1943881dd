package registry

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/versich-treue/vtml-go/pkg/models"
)

// SQLiteStore is the file-backed run registry.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the registry database at the given
// path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Open database with connection pooling parameters
	// Format: file:path?param=value
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writes, so the pool stays small
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &SQLiteStore{db: db}

	// In-memory databases report "delete" or "memory" instead of "wal",
	// which is fine for tests.
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		return nil, fmt.Errorf("failed to check journal mode: %w", err)
	}
	if journalMode != "wal" && journalMode != "delete" && journalMode != "memory" {
		return nil, fmt.Errorf("unexpected journal mode: got %s", journalMode)
	}

	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// retryOnBusy retries a write if it fails with SQLITE_BUSY, on top of the
// busy_timeout pragma.
func (s *SQLiteStore) retryOnBusy(operation func() error, maxRetries int) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if err.Error() == "database is locked (5) (SQLITE_BUSY)" {
			// Exponential backoff: 10ms, 20ms, 40ms, ...
			backoff := time.Duration(10*(1<<uint(i))) * time.Millisecond
			time.Sleep(backoff)
			continue
		}

		return err
	}
	return fmt.Errorf("operation failed after %d retries: %w", maxRetries, err)
}

// initSchema creates the runs table if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		pipeline_name TEXT NOT NULL,
		status TEXT NOT NULL,
		stage TEXT NOT NULL,
		triggered_by TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		completed_at DATETIME,
		data TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun inserts or replaces a run record.
func (s *SQLiteStore) SaveRun(run *models.RunRecord) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO runs (id, pipeline_name, status, stage, triggered_by, started_at, completed_at, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var completedAt interface{}
	if run.CompletedAt != nil {
		completedAt = run.CompletedAt.UTC()
	}

	return s.retryOnBusy(func() error {
		_, err := s.db.Exec(query,
			run.ID,
			run.PipelineName,
			string(run.Status),
			string(run.Stage),
			run.Trigger,
			run.StartedAt.UTC(),
			completedAt,
			string(data),
		)
		if err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		return nil
	}, 5)
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*models.RunRecord, error) {
	var data string
	query := `SELECT data FROM runs WHERE id = ?`

	err := s.db.QueryRow(query, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return unmarshalRun(data)
}

// ListRuns lists runs newest-first. A non-positive limit returns all runs.
func (s *SQLiteStore) ListRuns(limit int) ([]*models.RunRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unlimited
	}
	query := `SELECT data FROM runs ORDER BY started_at DESC LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*models.RunRecord, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run, err := unmarshalRun(data)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, nil
}

// LatestDeployed returns the newest run that deployed a model.
func (s *SQLiteStore) LatestDeployed() (*models.RunRecord, error) {
	var data string
	query := `SELECT data FROM runs WHERE status = ? ORDER BY started_at DESC LIMIT 1`

	err := s.db.QueryRow(query, string(models.RunStatusDeployed)).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest deployed run: %w", err)
	}

	return unmarshalRun(data)
}

func unmarshalRun(data string) (*models.RunRecord, error) {
	var run models.RunRecord
	if err := json.Unmarshal([]byte(data), &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return &run, nil
}
