package visual

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/MisbahAN/ChatVid-AI/config"
	"github.com/MisbahAN/ChatVid-AI/core"
)

// PgVectorFrameIndex keeps frame sets in a Postgres table with a
// pgvector column, one set per job ID, and lets Postgres do the
// cosine ranking. Opt-in via STORE=pgvector.
type PgVectorFrameIndex struct {
	conn *pgx.Conn
	dim  int
}

func newPgVectorFrameIndex(cfg *config.Config) (*PgVectorFrameIndex, error) {
	conn, err := pgx.Connect(context.Background(), cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PgVectorFrameIndex{conn: conn}, nil
}

// ensureTable creates the frames table sized to the embedding
// dimension of the current batch. The table is recreated when the
// dimension changes (a model switch).
func (s *PgVectorFrameIndex) ensureTable(ctx context.Context, dim int) error {
	if _, err := s.conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector;"); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	if s.dim != 0 && s.dim != dim {
		if _, err := s.conn.Exec(ctx, "DROP TABLE IF EXISTS video_frames;"); err != nil {
			return fmt.Errorf("drop frames table: %w", err)
		}
		s.dim = 0
	}
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS video_frames (
			id SERIAL PRIMARY KEY,
			job_id VARCHAR(64) NOT NULL,
			timestamp_sec INT NOT NULL,
			description TEXT,
			embedding vector(%d)
		);
	`, dim)
	if _, err := s.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("create frames table: %w", err)
	}
	if _, err := s.conn.Exec(ctx, "CREATE INDEX IF NOT EXISTS video_frames_job_id_idx ON video_frames (job_id);"); err != nil {
		return fmt.Errorf("create job index: %w", err)
	}
	s.dim = dim
	return nil
}

// Replace swaps the job's frame set atomically: the delete and the
// inserts run in one transaction, so a mid-batch failure never leaves
// a partially populated set for later searches to answer from.
func (s *PgVectorFrameIndex) Replace(ctx context.Context, jobID string, frames []core.Frame) (int, error) {
	usable := make([]core.Frame, 0, len(frames))
	for _, f := range frames {
		if f.Embedding != nil {
			usable = append(usable, f)
		}
	}
	if len(usable) == 0 {
		if s.dim != 0 {
			if _, err := s.conn.Exec(ctx, "DELETE FROM video_frames WHERE job_id = $1;", jobID); err != nil {
				return 0, fmt.Errorf("clear frames for job %s: %w", jobID, err)
			}
		}
		return 0, nil
	}
	if err := s.ensureTable(ctx, len(usable[0].Embedding)); err != nil {
		return 0, err
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin frame replace: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "DELETE FROM video_frames WHERE job_id = $1;", jobID); err != nil {
		return 0, fmt.Errorf("clear frames for job %s: %w", jobID, err)
	}
	count := 0
	for _, f := range usable {
		if len(f.Embedding) != s.dim {
			return 0, fmt.Errorf("frame at %ds: embedding dimension mismatch: %d vs %d",
				f.TimestampSec, len(f.Embedding), s.dim)
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO video_frames (job_id, timestamp_sec, description, embedding)
			VALUES ($1, $2, $3, $4)
		`, jobID, f.TimestampSec, f.Description, pgvector.NewVector(f.Embedding))
		if err != nil {
			return 0, fmt.Errorf("insert frame at %ds: %w", f.TimestampSec, err)
		}
		count++
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit frame replace: %w", err)
	}
	return count, nil
}

func (s *PgVectorFrameIndex) Search(ctx context.Context, jobID string, queryVec []float32) (core.SearchResult, error) {
	if s.dim == 0 {
		return core.SearchResult{}, nil
	}
	if len(queryVec) != s.dim {
		return core.SearchResult{}, fmt.Errorf("embedding dimension mismatch: %d vs %d", len(queryVec), s.dim)
	}

	// Ties break on timestamp, keeping the earliest frame, matching
	// the memory backend's first-seen rule.
	row := s.conn.QueryRow(ctx, `
		SELECT timestamp_sec, description, 1 - (embedding <=> $1) AS similarity
		FROM video_frames
		WHERE job_id = $2
		ORDER BY embedding <=> $1, timestamp_sec
		LIMIT 1
	`, pgvector.NewVector(queryVec), jobID)

	var result core.SearchResult
	err := row.Scan(&result.TimestampSec, &result.Description, &result.Score)
	if err == pgx.ErrNoRows {
		return core.SearchResult{}, nil
	}
	if err != nil {
		return core.SearchResult{}, fmt.Errorf("frame search: %w", err)
	}
	result.Found = true
	return result, nil
}

func (s *PgVectorFrameIndex) Drop(ctx context.Context, jobID string) error {
	if s.dim == 0 {
		return nil
	}
	if _, err := s.conn.Exec(ctx, "DELETE FROM video_frames WHERE job_id = $1;", jobID); err != nil {
		return fmt.Errorf("drop frames for job %s: %w", jobID, err)
	}
	return nil
}
