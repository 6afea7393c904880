// Package mariadb persists capture events in the school's existing
// MariaDB instance.
package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/kozaktomas/facegate/internal/capture"
)

// Store is a MariaDB-backed capture log.
type Store struct {
	db *sql.DB
}

// NewStore opens a connection to MariaDB using the given DSN
// (e.g., facegate:secret@tcp(mariadb:3306)/facegate?parseTime=true)
// and creates the captures table if it does not exist.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("capture database DSN is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping capture database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS captures (
			id         CHAR(36) PRIMARY KEY,
			student_id BIGINT NULL,
			device_id  VARCHAR(64) NOT NULL,
			matched    BOOLEAN NOT NULL,
			confidence DOUBLE NOT NULL,
			created_at TIMESTAMP NOT NULL,
			INDEX idx_captures_created_at (created_at)
		)
	`)
	if err != nil {
		return fmt.Errorf("creating captures table: %w", err)
	}
	return nil
}

// Log inserts a capture event.
func (s *Store) Log(ctx context.Context, event capture.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO captures (id, student_id, device_id, matched, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, event.ID, event.StudentID, event.DeviceID, event.Matched, event.Confidence, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting capture: %w", err)
	}
	return nil
}

// List returns the most recent capture events, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]capture.Event, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, student_id, device_id, matched, confidence, created_at
		FROM captures
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying captures: %w", err)
	}
	defer rows.Close()

	var events []capture.Event
	for rows.Next() {
		var e capture.Event
		var studentID sql.NullInt64
		if err := rows.Scan(&e.ID, &studentID, &e.DeviceID, &e.Matched, &e.Confidence, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning capture: %w", err)
		}
		if studentID.Valid {
			e.StudentID = &studentID.Int64
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating captures: %w", err)
	}
	return events, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
