// Package claims implements the single writer for every Claim-row
// transition, coordinating verification and OTP handover, and owning
// cancellation, dispute resolution, and the reaper sweep. Trust deltas are
// applied inside verification and handover; fraud scoring runs in the
// internal/api handlers before the Machine is called.
//
// One Machine, single-writer-per-claim, mirrors the
// tx.Begin/Exec/Commit/deferred-rollback transaction shape used throughout
// internal/db — cross-entity transitions here (cancel, dispute resolve,
// reap) are expected to run inside one durable transaction at the
// internal/db layer, row-locked via SELECT ... FOR UPDATE on the claim.
// Notification delivery is pushed onto the bounded internal/queue queue,
// the same hub-plus-worker shape used for websocket broadcast, so
// delivery failures never block or fail the transition.
package claims

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rwandatech/byaboneka-plus/internal/apperr"
	"github.com/rwandatech/byaboneka-plus/internal/handover"
	"github.com/rwandatech/byaboneka-plus/internal/queue"
	"github.com/rwandatech/byaboneka-plus/internal/verification"
	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

// expiryAge is the Pending-claim reaper window.
const expiryAge = 7 * 24 * time.Hour

// Notifier delivers a best-effort claim-lifecycle notification — in
// practice, internal/api's websocket hub broadcast. Delivery failures are
// returned so the queue worker can log them; they never alter the
// transition that triggered the notification.
type Notifier interface {
	Notify(ctx context.Context, eventType, claimID string) error
}

// Repository is the persistence boundary internal/db implements for the
// transitions ClaimMachine owns directly (cancel, dispute, reap, audit).
type Repository interface {
	ClaimByID(claimID string) (models.Claim, error)
	FoundItemFinderAndCooperative(foundItemID string) (finderID, cooperativeID string, err error)

	CancelClaimAndRevertItems(claimID string) error

	HasOpenDispute(claimID string) (bool, error)
	CreateDispute(d models.Dispute) (models.Dispute, error)
	DisputeByID(disputeID string) (models.Dispute, error)
	// ResolveDisputeTransactionally applies the operator's resolution to
	// both the Dispute row and the Claim's status (and, for
	// ResolvedFinder, reverts the claim/item trio to their Rejected
	// analogue) in one durable transaction.
	ResolveDisputeTransactionally(disputeID, claimID string, resolution models.DisputeResolution, resolvedByID string, resolvedAt time.Time) error

	ExpirePendingClaimsOlderThan(cutoff time.Time, batchSize int) (expired []string, err error)
	AppendAudit(e models.AuditEvent) error
}

// Machine is the Claim State Machine: it owns Cancel, Dispute, and Reap,
// and delegates open/fetch-questions/verify to Verification and
// mint/redeem to Handover, wrapping every call with audit logging and
// async notification publishing.
type Machine struct {
	repo     Repository
	verify   *verification.Engine
	handover *handover.Handover
	notify   *queue.Queue
	notifier Notifier
	log      *zap.SugaredLogger
}

func NewMachine(repo Repository, verify *verification.Engine, ho *handover.Handover, notify *queue.Queue, notifier Notifier, log *zap.SugaredLogger) *Machine {
	return &Machine{repo: repo, verify: verify, handover: ho, notify: notify, notifier: notifier, log: log}
}

// OpenClaim delegates to the Verification Challenge and audits the result.
func (m *Machine) OpenClaim(lostItemID, foundItemID, claimantID string) (models.Claim, error) {
	claim, err := m.verify.OpenClaim(lostItemID, foundItemID, claimantID)
	if err != nil {
		return models.Claim{}, err
	}
	m.audit(claimantID, claim.ID, "claim_opened", "")
	m.publish("claim_opened", claim.ID)
	return claim, nil
}

// Verify delegates to the Verification Challenge, audits the outcome, and
// publishes a notification on pass (the finder learns the claim closed
// the verification stage).
func (m *Machine) Verify(claimID, userID string, answers [3]string, ip string) (verification.Outcome, error) {
	out, err := m.verify.Verify(claimID, userID, answers, ip)
	if err != nil {
		return verification.Outcome{}, err
	}
	if out.Passed {
		m.audit(userID, claimID, "claim_verified", "")
		m.publish("claim_verified", claimID)
	} else {
		m.audit(userID, claimID, "verification_failed", "")
	}
	return out, nil
}

// MintHandover delegates to OTP Handover.
func (m *Machine) MintHandover(claimID, userID string) (string, error) {
	otp, err := m.handover.Mint(claimID, userID)
	if err != nil {
		return "", err
	}
	m.audit(userID, claimID, "handover_minted", "")
	return otp, nil
}

// RedeemHandover delegates to OTP Handover and publishes a notification to
// both parties on a successful return.
func (m *Machine) RedeemHandover(claimID, userID, otp string) (handover.RedeemOutcome, error) {
	out, err := m.handover.Redeem(claimID, userID, otp)
	if err != nil {
		return handover.RedeemOutcome{}, err
	}
	if out.Success {
		m.audit(userID, claimID, "claim_returned", "")
		m.publish("claim_returned", claimID)
	} else {
		m.audit(userID, claimID, "handover_attempt_failed", "")
	}
	return out, nil
}

// FetchQuestions delegates to the Verification Challenge's question
// lookup, without exposing the stored answers.
func (m *Machine) FetchQuestions(claimID, userID string) ([]string, error) {
	return m.verify.FetchQuestions(claimID, userID)
}

// HandoverStatus delegates to OTP Handover's read-only status view.
func (m *Machine) HandoverStatus(claimID, userID string) (handover.Status, error) {
	return m.handover.Status(claimID, userID)
}

// Cancel transitions a Pending or Verified claim to Cancelled at the
// claimant's request, reverting item statuses.
func (m *Machine) Cancel(claimID, userID string) error {
	claim, err := m.repo.ClaimByID(claimID)
	if err != nil {
		return err
	}
	if claim.ClaimantID != userID {
		return apperr.New(apperr.KindForbidden, "only the claimant may cancel this claim")
	}
	if claim.Status != models.ClaimPending && claim.Status != models.ClaimVerified {
		return apperr.New(apperr.KindConflict, "claim cannot be cancelled from its current state")
	}
	if err := m.repo.CancelClaimAndRevertItems(claimID); err != nil {
		return err
	}
	m.audit(userID, claimID, "claim_cancelled", "")
	m.publish("claim_cancelled", claimID)
	return nil
}

// RaiseDispute forks a non-terminal claim into Disputed. Either the
// claimant or the found item's finder may raise it.
func (m *Machine) RaiseDispute(claimID, raisedByID, reason string) (models.Dispute, error) {
	claim, err := m.repo.ClaimByID(claimID)
	if err != nil {
		return models.Dispute{}, err
	}
	switch claim.Status {
	case models.ClaimPending, models.ClaimVerified, models.ClaimRejected:
	default:
		return models.Dispute{}, apperr.New(apperr.KindConflict, "claim is not in a disputable state")
	}

	finderID, _, err := m.repo.FoundItemFinderAndCooperative(claim.FoundItemID)
	if err != nil {
		return models.Dispute{}, err
	}
	if raisedByID != claim.ClaimantID && raisedByID != finderID {
		return models.Dispute{}, apperr.New(apperr.KindForbidden, "only a participant may raise a dispute")
	}

	open, err := m.repo.HasOpenDispute(claimID)
	if err != nil {
		return models.Dispute{}, err
	}
	if open {
		return models.Dispute{}, apperr.New(apperr.KindConflict, "a dispute is already open for this claim")
	}

	dispute, err := m.repo.CreateDispute(models.Dispute{
		ClaimID:    claimID,
		RaisedByID: raisedByID,
		Reason:     reason,
		Status:     models.DisputeOpen,
	})
	if err != nil {
		return models.Dispute{}, err
	}
	m.audit(raisedByID, claimID, "dispute_raised", reason)
	m.publish("dispute_raised", claimID)
	return dispute, nil
}

// ResolveDispute applies an admin's resolution to an open dispute, per
// Disputed → {Verified, Rejected, Pending} table.
func (m *Machine) ResolveDispute(disputeID, adminID string, resolution models.DisputeResolution) error {
	dispute, err := m.repo.DisputeByID(disputeID)
	if err != nil {
		return err
	}
	if dispute.Status != models.DisputeOpen {
		return apperr.New(apperr.KindConflict, "dispute is already resolved")
	}

	switch resolution {
	case models.DisputeResolvedOwner, models.DisputeResolvedFinder, models.DisputeDismissed:
	default:
		return apperr.New(apperr.KindInvalidInput, "unrecognized dispute resolution")
	}

	if err := m.repo.ResolveDisputeTransactionally(disputeID, dispute.ClaimID, resolution, adminID, time.Now()); err != nil {
		return err
	}
	m.audit(adminID, dispute.ClaimID, "dispute_resolved", string(resolution))
	m.publish("dispute_resolved", dispute.ClaimID)
	return nil
}

// ReapExpired transitions Pending claims older than expiryAge to Expired,
// in bounded batches, as the daily reaper job.
func (m *Machine) ReapExpired(ctx context.Context, batchSize int) (int, error) {
	cutoff := time.Now().Add(-expiryAge)
	expired, err := m.repo.ExpirePendingClaimsOlderThan(cutoff, batchSize)
	if err != nil {
		return 0, err
	}
	for _, claimID := range expired {
		m.audit("", claimID, "claim_expired", "")
	}
	if m.log != nil && len(expired) > 0 {
		m.log.Infow("claims: reaper expired stale pending claims", "count", len(expired))
	}
	return len(expired), nil
}

func (m *Machine) audit(actorUserID, claimID, eventType, detail string) {
	if err := m.repo.AppendAudit(models.AuditEvent{ActorUserID: actorUserID, ClaimID: claimID, EventType: eventType, Detail: detail}); err != nil && m.log != nil {
		m.log.Warnw("claims: failed to append audit event", "eventType", eventType, "claimId", claimID, "error", err)
	}
}

// publish schedules a best-effort notification; scheduling failures are
// logged by the queue itself and never propagate here.
func (m *Machine) publish(eventType, claimID string) {
	if m.notify == nil || m.notifier == nil {
		return
	}
	m.notify.Enqueue(queue.Task{
		Name: eventType + ":" + claimID,
		Run: func(ctx context.Context) error {
			return m.notifier.Notify(ctx, eventType, claimID)
		},
	})
}
