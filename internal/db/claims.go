package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rwandatech/byaboneka-plus/internal/apperr"
	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

// CancelClaimAndRevertItems implements internal/claims.Repository:
// transitions Claim→Cancelled and reverts its LostItem/FoundItem back to
// Active/Unclaimed so they can be claimed again, in one transaction.
func (s *Store) CancelClaimAndRevertItems(claimID string) error {
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

	if _, err := tx.Exec(ctx, `UPDATE claims SET status='cancelled', updated_at=now() WHERE id=$1`, claimID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE lost_items SET status='active', updated_at=now() WHERE id=$1`, lostItemID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE found_items SET status='unclaimed', updated_at=now() WHERE id=$1`, foundItemID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// HasOpenDispute implements internal/claims.Repository.
func (s *Store) HasOpenDispute(claimID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(context.Background(), `
		SELECT EXISTS(SELECT 1 FROM disputes WHERE claim_id=$1 AND status='open')`, claimID).Scan(&exists)
	return exists, err
}

// CreateDispute implements internal/claims.Repository.
func (s *Store) CreateDispute(d models.Dispute) (models.Dispute, error) {
	d.ID = uuid.NewString()
	d.CreatedAt = time.Now()
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO disputes (id, claim_id, raised_by_id, reason, status, created_at)
		VALUES ($1,$2,$3,$4,'open',$5)`,
		d.ID, d.ClaimID, d.RaisedByID, d.Reason, d.CreatedAt)
	if err != nil {
		return models.Dispute{}, err
	}
	d.Status = models.DisputeOpen
	return d, nil
}

// DisputeByID implements internal/claims.Repository.
func (s *Store) DisputeByID(disputeID string) (models.Dispute, error) {
	var d models.Dispute
	var resolvedByID *string
	err := s.pool.QueryRow(context.Background(), `
		SELECT id, claim_id, raised_by_id, reason, status, resolution, resolved_by_id, created_at, resolved_at
		FROM disputes WHERE id=$1`, disputeID,
	).Scan(&d.ID, &d.ClaimID, &d.RaisedByID, &d.Reason, &d.Status, &d.Resolution, &resolvedByID, &d.CreatedAt, &d.ResolvedAt)
	if err == pgx.ErrNoRows {
		return models.Dispute{}, apperr.New(apperr.KindNotFound, "dispute not found")
	}
	if err != nil {
		return models.Dispute{}, err
	}
	if resolvedByID != nil {
		d.ResolvedByID = *resolvedByID
	}
	return d, nil
}

// ResolveDisputeTransactionally implements internal/claims.Repository: the
// Dispute row is closed with its resolution, and ResolvedFinder reverts the
// claim to Rejected so the item trio re-opens to other claimants, all
// inside one durable transaction with the claim row locked first.
func (s *Store) ResolveDisputeTransactionally(disputeID, claimID string, resolution models.DisputeResolution, resolvedByID string, resolvedAt time.Time) error {
	ctx := context.Background()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT id FROM claims WHERE id=$1 FOR UPDATE`, claimID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE disputes SET status='resolved', resolution=$2, resolved_by_id=$3, resolved_at=$4 WHERE id=$1`,
		disputeID, resolution, resolvedByID, resolvedAt); err != nil {
		return err
	}

	var claimStatus models.ClaimStatus
	switch resolution {
	case models.DisputeResolvedOwner:
		claimStatus = models.ClaimVerified
	case models.DisputeResolvedFinder:
		claimStatus = models.ClaimRejected
	default:
		claimStatus = models.ClaimPending
	}
	if _, err := tx.Exec(ctx, `UPDATE claims SET status=$2, updated_at=now() WHERE id=$1`, claimID, claimStatus); err != nil {
		return err
	}

	if resolution == models.DisputeResolvedFinder {
		var lostItemID, foundItemID string
		if err := tx.QueryRow(ctx, `SELECT lost_item_id, found_item_id FROM claims WHERE id=$1`, claimID).Scan(&lostItemID, &foundItemID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE lost_items SET status='active', updated_at=now() WHERE id=$1`, lostItemID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE found_items SET status='unclaimed', updated_at=now() WHERE id=$1`, foundItemID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ExpirePendingClaimsOlderThan implements internal/claims.Repository,
// sweeping stale Pending claims into Expired and reverting their items in
// one pass, batched per call to bound a single reaper tick.
func (s *Store) ExpirePendingClaimsOlderThan(cutoff time.Time, batchSize int) ([]string, error) {
	ctx := context.Background()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT id, lost_item_id, found_item_id FROM claims
		WHERE status='pending' AND created_at < $1
		ORDER BY created_at ASC LIMIT $2 FOR UPDATE`, cutoff, batchSize)
	if err != nil {
		return nil, err
	}
	type stale struct{ id, lostItemID, foundItemID string }
	var targets []stale
	for rows.Next() {
		var t stale
		if err := rows.Scan(&t.id, &t.lostItemID, &t.foundItemID); err != nil {
			rows.Close()
			return nil, err
		}
		targets = append(targets, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var expired []string
	for _, t := range targets {
		if _, err := tx.Exec(ctx, `UPDATE claims SET status='expired', updated_at=now() WHERE id=$1`, t.id); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `UPDATE lost_items SET status='active', updated_at=now() WHERE id=$1`, t.lostItemID); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `UPDATE found_items SET status='unclaimed', updated_at=now() WHERE id=$1`, t.foundItemID); err != nil {
			return nil, err
		}
		expired = append(expired, t.id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return expired, nil
}

// AppendAudit implements internal/claims.Repository.
func (s *Store) AppendAudit(e models.AuditEvent) error {
	e.ID = uuid.NewString()
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO audit_events (id, actor_user_id, claim_id, event_type, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,now())`,
		e.ID, nullIfEmpty(e.ActorUserID), nullIfEmpty(e.ClaimID), e.EventType, e.Detail)
	return err
}
