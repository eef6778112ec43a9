package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rwandatech/byaboneka-plus/internal/apperr"
	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

// LiveConfirmation implements internal/handover.Repository: the most
// recent handover confirmation for a claim, whether expired, verified, or
// neither; callers judge expiry and verification themselves.
func (s *Store) LiveConfirmation(claimID string) (models.HandoverConfirmation, bool, error) {
	var c models.HandoverConfirmation
	err := s.pool.QueryRow(context.Background(), `
		SELECT id, claim_id, otp_hash, expires_at, verified, attempts, max_attempts, redeemer_id, redeemed_at, created_at
		FROM handover_confirmations WHERE claim_id=$1
		ORDER BY created_at DESC LIMIT 1`, claimID,
	).Scan(&c.ID, &c.ClaimID, &c.OTPHash, &c.ExpiresAt, &c.Verified, &c.Attempts, &c.MaxAttempts, &c.RedeemerID, &c.RedeemedAt, &c.CreatedAt)
	if err == pgx.ErrNoRows {
		return models.HandoverConfirmation{}, false, nil
	}
	if err != nil {
		return models.HandoverConfirmation{}, false, err
	}
	return c, true, nil
}

// DeleteConfirmation implements internal/handover.Repository.
func (s *Store) DeleteConfirmation(id string) error {
	_, err := s.pool.Exec(context.Background(), `DELETE FROM handover_confirmations WHERE id=$1`, id)
	return err
}

// CreateConfirmation implements internal/handover.Repository.
func (s *Store) CreateConfirmation(c models.HandoverConfirmation) error {
	c.ID = uuid.NewString()
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO handover_confirmations (id, claim_id, otp_hash, expires_at, verified, attempts, max_attempts, created_at)
		VALUES ($1,$2,$3,$4,false,0,$5,now())`,
		c.ID, c.ClaimID, c.OTPHash, c.ExpiresAt, c.MaxAttempts)
	return err
}

// IncrementAttempts implements internal/handover.Repository.
func (s *Store) IncrementAttempts(id string) error {
	_, err := s.pool.Exec(context.Background(), `UPDATE handover_confirmations SET attempts = attempts + 1 WHERE id=$1`, id)
	return err
}

// RedeemTransactionally implements internal/handover.Repository: marks the
// confirmation verified and stamps the redeemer, then transitions
// Claim→Returned, LostItem→Returned, FoundItem→Returned, all inside one
// durable transaction with the claim row locked first.
func (s *Store) RedeemTransactionally(confirmationID, claimID, redeemerID string, redeemedAt time.Time) error {
	ctx := context.Background()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var lostItemID, foundItemID string
	err = tx.QueryRow(ctx, `SELECT lost_item_id, found_item_id FROM claims WHERE id=$1 FOR UPDATE`, claimID).Scan(&lostItemID, &foundItemID)
	if err == pgx.ErrNoRows {
		return apperr.New(apperr.KindNotFound, "claim not found")
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE handover_confirmations SET verified=true, redeemer_id=$2, redeemed_at=$3 WHERE id=$1`,
		confirmationID, redeemerID, redeemedAt); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE claims SET status='returned', updated_at=now() WHERE id=$1`, claimID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE lost_items SET status='returned', updated_at=now() WHERE id=$1`, lostItemID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE found_items SET status='returned', updated_at=now() WHERE id=$1`, foundItemID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
