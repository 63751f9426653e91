package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"live-trivia-service/internal/domain"
)

// ResultWriter stores one quiz_results row per participant of a finished session.
type ResultWriter struct {
	pool *pgxpool.Pool
}

func NewResultWriter(pool *pgxpool.Pool) *ResultWriter {
	return &ResultWriter{pool: pool}
}

// SaveResults writes all rows in a single transaction. Scores are expected in ranking order.
func (w *ResultWriter) SaveResults(ctx context.Context, result domain.SessionResult) error {
	return w.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i, entry := range result.Scores {
			batch.Queue(`
				INSERT INTO quiz_results (session_id, quiz_id, host_id, viewer_id, display_name, score, rank, ended_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (session_id, viewer_id) DO UPDATE
				SET score = EXCLUDED.score, rank = EXCLUDED.rank, ended_at = EXCLUDED.ended_at`,
				result.SessionID, result.QuizID, result.HostID,
				entry.ViewerID, entry.DisplayName, entry.Score, i+1, result.EndedAt)
		}
		br := tx.SendBatch(ctx, batch)
		for range result.Scores {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("insert result row: %w", err)
			}
		}
		return br.Close()
	})
}

// Results reads back the rows of a session in rank order.
func (w *ResultWriter) Results(ctx context.Context, sessionID string) ([]domain.ScoreEntry, error) {
	rows, err := w.pool.Query(ctx, `
		SELECT viewer_id, display_name, score FROM quiz_results
		WHERE session_id=$1 ORDER BY rank`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var entries []domain.ScoreEntry
	for rows.Next() {
		var entry domain.ScoreEntry
		if err := rows.Scan(&entry.ViewerID, &entry.DisplayName, &entry.Score); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
