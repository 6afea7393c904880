// Package postgres provides a PostgreSQL-backed snapshot store for the
// roster, using pgvector for the embedding column. Like the file store,
// every save replaces the whole population; the table is a durable
// snapshot, not a log.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/kozaktomas/facegate/internal/roster"
)

// Store is a PostgreSQL-backed snapshot store.
type Store struct {
	db  *sql.DB
	dim int
}

// NewStore opens a connection pool to PostgreSQL and prepares the
// enrollments table for embeddings of the given dimensionality.
func NewStore(url string, dim, maxOpenConns, maxIdleConns int) (*Store, error) {
	if url == "" {
		return nil, errors.New("database URL is required")
	}
	if dim <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", dim)
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, dim: dim}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("creating vector extension: %w", err)
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS enrollments (
			id          BIGINT PRIMARY KEY,
			code        TEXT NOT NULL,
			name        TEXT NOT NULL,
			embedding   vector(%d) NOT NULL,
			facial_area JSONB,
			enrolled_at TIMESTAMPTZ NOT NULL
		)
	`, s.dim)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("creating enrollments table: %w", err)
	}
	return nil
}

// Load reads the whole population. Student IDs are assigned
// monotonically at enrollment time, so ordering by id reproduces
// insertion order.
func (s *Store) Load(ctx context.Context) ([]roster.Student, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, name, embedding, facial_area, enrolled_at
		FROM enrollments
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying enrollments: %w", err)
	}
	defer rows.Close()

	var students []roster.Student
	for rows.Next() {
		var st roster.Student
		var vec pgvector.Vector
		var area []byte
		if err := rows.Scan(&st.ID, &st.Code, &st.Name, &vec, &area, &st.EnrolledAt); err != nil {
			return nil, fmt.Errorf("scanning enrollment: %w", err)
		}
		st.Embedding = vec.Slice()
		if len(area) > 0 {
			var region roster.Region
			if err := json.Unmarshal(area, &region); err != nil {
				return nil, fmt.Errorf("parsing facial area for student %d: %w", st.ID, err)
			}
			st.FacialArea = &region
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating enrollments: %w", err)
	}
	return students, nil
}

// Save replaces the stored population with the given one in a single
// transaction.
func (s *Store) Save(ctx context.Context, students []roster.Student) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM enrollments"); err != nil {
		return fmt.Errorf("clearing enrollments: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO enrollments (id, code, name, embedding, facial_area, enrolled_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return fmt.Errorf("preparing enrollment insert: %w", err)
	}
	defer stmt.Close()

	for i := range students {
		st := &students[i]
		var area any
		if st.FacialArea != nil {
			data, err := json.Marshal(st.FacialArea)
			if err != nil {
				return fmt.Errorf("encoding facial area for student %d: %w", st.ID, err)
			}
			area = data
		}
		vec := pgvector.NewVector(st.Embedding)
		if _, err := stmt.ExecContext(ctx, st.ID, st.Code, st.Name, vec, area, st.EnrolledAt); err != nil {
			return fmt.Errorf("inserting enrollment %d: %w", st.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
