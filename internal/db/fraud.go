package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

// AppendFraudEvent persists one fraud.Assessment for later operator
// review, including assessments that did not block.
func (s *Store) AppendFraudEvent(e models.FraudEvent) error {
	e.ID = uuid.NewString()
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO fraud_events (id, user_id, action, score, level, should_block, factors, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now())`,
		e.ID, e.UserID, e.Action, e.Score, e.Level, e.ShouldBlock, e.Factors)
	return err
}

// FailedAcrossDistinctItems7d counts the distinct lost items a user has
// failed verification against in the trailing 7 days, feeding
// fraud.HistoryContext.
func (s *Store) FailedAcrossDistinctItems7d(userID string) (int, error) {
	var count int
	err := s.pool.QueryRow(context.Background(), `
		SELECT COUNT(DISTINCT c.lost_item_id)
		FROM verification_attempts va
		JOIN claims c ON c.id = va.claim_id
		WHERE va.user_id=$1 AND va.status='failed' AND va.timestamp > now() - interval '7 days'`, userID).Scan(&count)
	return count, err
}

// ClaimCreationsLastHour feeds fraud.VelocityContext.
func (s *Store) ClaimCreationsLastHour(userID string) (int, error) {
	var count int
	err := s.pool.QueryRow(context.Background(), `
		SELECT COUNT(*) FROM claims WHERE claimant_id=$1 AND created_at > now() - interval '1 hour'`, userID).Scan(&count)
	return count, err
}
