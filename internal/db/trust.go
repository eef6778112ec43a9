package db

import (
	"context"

	"github.com/google/uuid"
)

// AppendEventAndUpdateScore implements internal/trust.Repository: appends
// the TrustEvent and writes the materialized score in one transaction,
// returning the pre-write score so the caller can detect an auto-ban
// floor crossing.
func (s *Store) AppendEventAndUpdateScore(userID string, delta int, reason string, newScore int) (int, error) {
	ctx := context.Background()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var preWriteScore int
	if err := tx.QueryRow(ctx, `SELECT trust_score FROM users WHERE id=$1 FOR UPDATE`, userID).Scan(&preWriteScore); err != nil {
		return 0, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO trust_events (id, user_id, delta, reason, new_score, timestamp)
		VALUES ($1,$2,$3,$4,$5,now())`,
		uuid.NewString(), userID, delta, reason, newScore); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx, `UPDATE users SET trust_score=$2, updated_at=now() WHERE id=$1`, userID, newScore); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return preWriteScore, nil
}

// BanUser implements internal/trust.Repository, idempotently.
func (s *Store) BanUser(userID string, reason string) error {
	_, err := s.pool.Exec(context.Background(), `
		UPDATE users SET is_banned=true, ban_reason=$2, updated_at=now() WHERE id=$1 AND is_banned=false`, userID, reason)
	return err
}

// CurrentScore implements internal/trust.Repository.
func (s *Store) CurrentScore(userID string) (int, error) {
	var score int
	err := s.pool.QueryRow(context.Background(), `SELECT trust_score FROM users WHERE id=$1`, userID).Scan(&score)
	return score, err
}

// SumDeltas implements internal/trust.Repository, recomputing the score
// from the append-only log for the admin recalculate-and-compare check.
func (s *Store) SumDeltas(userID string) (int, error) {
	var sum int
	err := s.pool.QueryRow(context.Background(), `
		SELECT COALESCE(SUM(delta), 0) FROM trust_events WHERE user_id=$1`, userID).Scan(&sum)
	return sum, err
}
