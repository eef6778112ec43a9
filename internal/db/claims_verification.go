package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rwandatech/byaboneka-plus/internal/apperr"
	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

// HasNonTerminalClaim implements internal/verification.Repository,
// mirroring the idx_claims_unique_active partial unique index.
func (s *Store) HasNonTerminalClaim(lostItemID, foundItemID, claimantID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(context.Background(), `
		SELECT EXISTS(
			SELECT 1 FROM claims
			WHERE lost_item_id=$1 AND found_item_id=$2 AND claimant_id=$3
			  AND status IN ('pending','verified','disputed')
		)`, lostItemID, foundItemID, claimantID).Scan(&exists)
	return exists, err
}

// CountNonTerminalClaimsByUser implements internal/verification.Repository.
func (s *Store) CountNonTerminalClaimsByUser(userID string) (int, error) {
	var count int
	err := s.pool.QueryRow(context.Background(), `
		SELECT COUNT(*) FROM claims
		WHERE claimant_id=$1 AND status IN ('pending','verified','disputed')`, userID).Scan(&count)
	return count, err
}

// CreateClaim implements internal/verification.Repository.
func (s *Store) CreateClaim(claim models.Claim) error {
	claim.ID = uuid.NewString()
	now := time.Now()
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO claims (id, lost_item_id, found_item_id, claimant_id, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,'pending',$5,$5)`,
		claim.ID, claim.LostItemID, claim.FoundItemID, claim.ClaimantID, now)
	return err
}

func scanClaim(row pgx.Row) (models.Claim, error) {
	var c models.Claim
	err := row.Scan(&c.ID, &c.LostItemID, &c.FoundItemID, &c.ClaimantID, &c.Status, &c.VerificationScore,
		&c.AttemptsMade, &c.ConsecutiveFailures, &c.NextAttemptAt, &c.CreatedAt, &c.UpdatedAt)
	if err == pgx.ErrNoRows {
		return models.Claim{}, apperr.New(apperr.KindNotFound, "claim not found")
	}
	return c, err
}

const claimColumns = `id, lost_item_id, found_item_id, claimant_id, status, verification_score, attempts_made, consecutive_failures, next_attempt_at, created_at, updated_at`

// ClaimByID implements internal/verification.Repository, internal/handover.Repository
// (via ClaimForHandover), and internal/claims.Repository.
func (s *Store) ClaimByID(claimID string) (models.Claim, error) {
	row := s.pool.QueryRow(context.Background(), `SELECT `+claimColumns+` FROM claims WHERE id=$1`, claimID)
	return scanClaim(row)
}

// ClaimForHandover implements internal/handover.Repository.
func (s *Store) ClaimForHandover(claimID string) (models.Claim, error) {
	return s.ClaimByID(claimID)
}

// AttemptsToday implements internal/verification.Repository: attempts in
// the trailing 24h for this claim.
func (s *Store) AttemptsToday(claimID string) (int, error) {
	var count int
	err := s.pool.QueryRow(context.Background(), `
		SELECT COUNT(*) FROM verification_attempts
		WHERE claim_id=$1 AND timestamp > now() - interval '24 hours'`, claimID).Scan(&count)
	return count, err
}

// FailedAttemptsByUserSince implements internal/verification.Repository.
func (s *Store) FailedAttemptsByUserSince(userID string, since time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(context.Background(), `
		SELECT COUNT(*) FROM verification_attempts
		WHERE user_id=$1 AND status='failed' AND timestamp > $2`, userID, since).Scan(&count)
	return count, err
}

// RecordAttempt implements internal/verification.Repository.
func (s *Store) RecordAttempt(a models.VerificationAttempt) error {
	ctx := context.Background()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO verification_attempts (id, claim_id, user_id, correct_answers, status, timestamp, ip)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		uuid.NewString(), a.ClaimID, a.UserID, a.CorrectAnswers, a.Status, a.Timestamp, a.IP); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE claims SET attempts_made = attempts_made + 1, updated_at=now() WHERE id=$1`, a.ClaimID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ApplyFailureCooldown implements internal/verification.Repository.
func (s *Store) ApplyFailureCooldown(claimID string, consecutiveFailures int, nextAttemptAt time.Time) error {
	_, err := s.pool.Exec(context.Background(), `
		UPDATE claims SET consecutive_failures=$2, next_attempt_at=$3, updated_at=now() WHERE id=$1`,
		claimID, consecutiveFailures, nextAttemptAt)
	return err
}

// MarkPassed implements internal/verification.Repository: atomically
// transitions Claim→Verified, LostItem→Claimed, FoundItem→Matched inside
// one durable transaction, row-locking the claim first.
func (s *Store) MarkPassed(claimID string, score float64) error {
	ctx := context.Background()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var lostItemID, foundItemID string
	err = tx.QueryRow(ctx, `SELECT lost_item_id, found_item_id FROM claims WHERE id=$1 FOR UPDATE`, claimID).Scan(&lostItemID, &foundItemID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE claims SET status='verified', verification_score=$2, updated_at=now() WHERE id=$1`, claimID, score); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE lost_items SET status='claimed', updated_at=now() WHERE id=$1`, lostItemID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE found_items SET status='matched', updated_at=now() WHERE id=$1`, foundItemID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
