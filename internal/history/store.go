package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store provides SQLite-backed persistence for attempts.
type Store struct {
	db *sql.DB
}

// NewStore opens the SQLite database at dbPath and creates tables if they don't exist.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS attempts (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		outcome TEXT NOT NULL,
		tries INTEGER DEFAULT 1,
		reason TEXT,
		granted TEXT
	);

	CREATE TABLE IF NOT EXISTS steps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		attempt_id TEXT NOT NULL,
		phase TEXT NOT NULL,
		detail TEXT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (attempt_id) REFERENCES attempts(id)
	);
	`
	_, err := db.Exec(schema)
	return err
}

// RecordAttempt persists a settled attempt and returns its generated ID.
func (s *Store) RecordAttempt(startedAt time.Time, outcome string, tries int, reason, granted string) (*Attempt, error) {
	id := uuid.New().String()
	now := time.Now()

	_, err := s.db.Exec(
		`INSERT INTO attempts (id, started_at, finished_at, outcome, tries, reason, granted)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, startedAt, now, outcome, tries, reason, granted,
	)
	if err != nil {
		return nil, fmt.Errorf("insert attempt: %w", err)
	}

	return &Attempt{
		ID:         id,
		StartedAt:  startedAt,
		FinishedAt: now,
		Outcome:    outcome,
		Tries:      tries,
		Reason:     reason,
		Granted:    granted,
	}, nil
}

// GetAttempt retrieves an attempt by ID.
func (s *Store) GetAttempt(id string) (*Attempt, error) {
	row := s.db.QueryRow(
		`SELECT id, started_at, finished_at, outcome, tries, COALESCE(reason, ''), COALESCE(granted, '')
		 FROM attempts WHERE id = ?`,
		id,
	)

	var att Attempt
	err := row.Scan(&att.ID, &att.StartedAt, &att.FinishedAt, &att.Outcome, &att.Tries, &att.Reason, &att.Granted)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan attempt: %w", err)
	}

	return &att, nil
}

// LatestGranted returns the most recent granted attempt, or nil if none exists.
func (s *Store) LatestGranted() (*Attempt, error) {
	row := s.db.QueryRow(
		`SELECT id, started_at, finished_at, outcome, tries, COALESCE(reason, ''), COALESCE(granted, '')
		 FROM attempts
		 WHERE outcome = 'granted'
		 ORDER BY finished_at DESC
		 LIMIT 1`,
	)

	var att Attempt
	err := row.Scan(&att.ID, &att.StartedAt, &att.FinishedAt, &att.Outcome, &att.Tries, &att.Reason, &att.Granted)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan attempt: %w", err)
	}

	return &att, nil
}

// ListAttempts returns summaries of the most recent attempts.
func (s *Store) ListAttempts(limit int) ([]Summary, error) {
	rows, err := s.db.Query(
		`SELECT a.id, a.outcome, a.tries, COALESCE(a.reason, ''), a.finished_at,
		        COALESCE(COUNT(st.id), 0) as steps
		 FROM attempts a
		 LEFT JOIN steps st ON a.id = st.attempt_id
		 GROUP BY a.id
		 ORDER BY a.finished_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Outcome, &sum.Tries, &sum.Reason, &sum.FinishedAt, &sum.Steps); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return summaries, nil
}

// AddStep records a transition observed during an attempt.
func (s *Store) AddStep(attemptID, phase, detail string) error {
	_, err := s.db.Exec(
		`INSERT INTO steps (attempt_id, phase, detail, timestamp)
		 VALUES (?, ?, ?, ?)`,
		attemptID, phase, detail, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert step: %w", err)
	}

	return nil
}

// GetSteps retrieves all steps for an attempt in order.
func (s *Store) GetSteps(attemptID string) ([]Step, error) {
	rows, err := s.db.Query(
		`SELECT id, attempt_id, phase, COALESCE(detail, ''), timestamp
		 FROM steps
		 WHERE attempt_id = ?
		 ORDER BY id ASC`,
		attemptID,
	)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var steps []Step
	for rows.Next() {
		var st Step
		if err := rows.Scan(&st.ID, &st.AttemptID, &st.Phase, &st.Detail, &st.Timestamp); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		steps = append(steps, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return steps, nil
}
