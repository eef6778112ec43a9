package db

import (
	"context"

	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

// SetBanned implements the admin ban/unban operation, independent of the
// Trust Ledger's own automatic floor-crossing ban.
func (s *Store) SetBanned(userID string, banned bool, reason string) error {
	_, err := s.pool.Exec(context.Background(), `
		UPDATE users SET is_banned=$2, ban_reason=$3, updated_at=now() WHERE id=$1`, userID, banned, reason)
	return err
}

// AuditEventsForClaim implements the admin audit-log query endpoint.
func (s *Store) AuditEventsForClaim(claimID string) ([]models.AuditEvent, error) {
	rows, err := s.pool.Query(context.Background(), `
		SELECT id, actor_user_id, claim_id, event_type, detail, created_at
		FROM audit_events WHERE claim_id=$1 ORDER BY created_at ASC`, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AuditEvent
	for rows.Next() {
		var e models.AuditEvent
		var actorID, eClaimID *string
		if err := rows.Scan(&e.ID, &actorID, &eClaimID, &e.EventType, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		if actorID != nil {
			e.ActorUserID = *actorID
		}
		if eClaimID != nil {
			e.ClaimID = *eClaimID
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RecentAuditEvents implements the admin audit-log query endpoint's
// unscoped listing, most recent first, bounded per call.
func (s *Store) RecentAuditEvents(limit int) ([]models.AuditEvent, error) {
	rows, err := s.pool.Query(context.Background(), `
		SELECT id, actor_user_id, claim_id, event_type, detail, created_at
		FROM audit_events ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AuditEvent
	for rows.Next() {
		var e models.AuditEvent
		var actorID, eClaimID *string
		if err := rows.Scan(&e.ID, &actorID, &eClaimID, &e.EventType, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		if actorID != nil {
			e.ActorUserID = *actorID
		}
		if eClaimID != nil {
			e.ClaimID = *eClaimID
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UserExists is used by handlers that need a quick existence check before
// acting on an admin-supplied user id (e.g. ban).
func (s *Store) UserExists(userID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(context.Background(), `SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`, userID).Scan(&exists)
	return exists, err
}
