// Package store keeps an audit log of served predictions in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Record is one served prediction.
type Record struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Class      string    `json:"prediction"`
	Confidence float32   `json:"confidence"`
	Severity   string    `json:"severity_level"`
	LatencyMS  int64     `json:"latency_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Stats aggregates the audit log for the dashboard.
type Stats struct {
	Total         int                `json:"total"`
	PerClass      map[string]int     `json:"per_class"`
	AvgConfidence map[string]float64 `json:"avg_confidence"`
}

// Store handles SQLite operations. SQLite allows one writer, so writes
// are serialized through the mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS predictions (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		class TEXT NOT NULL,
		confidence REAL NOT NULL,
		severity TEXT NOT NULL,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_predictions_class ON predictions(class);
	CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Insert adds a prediction record to the audit log.
func (s *Store) Insert(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO predictions (id, filename, class, confidence, severity, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Filename, rec.Class, rec.Confidence, rec.Severity, rec.LatencyMS, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}

	return nil
}

// Recent returns the latest predictions, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, filename, class, confidence, severity, latency_ms, created_at
		FROM predictions
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		err := rows.Scan(&rec.ID, &rec.Filename, &rec.Class, &rec.Confidence,
			&rec.Severity, &rec.LatencyMS, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetStats returns aggregate counts and average confidence per class.
func (s *Store) GetStats() (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{
		PerClass:      make(map[string]int),
		AvgConfidence: make(map[string]float64),
	}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM predictions`).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("failed to count predictions: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT class, COUNT(*), AVG(confidence)
		FROM predictions
		GROUP BY class
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query class stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var class string
		var count int
		var avg float64
		if err := rows.Scan(&class, &count, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan class stats: %w", err)
		}
		stats.PerClass[class] = count
		stats.AvgConfidence[class] = avg
	}

	return stats, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
