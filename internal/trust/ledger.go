// Package trust implements an append-only, monotonically authored event
// log of trust-score deltas, backing a materialized trust_score column,
// plus the derived tier table.
//
// The append-only-log-plus-derived-score shape borrows from
// other_examples' federation.PersistentTrustLedger (Generativebots
// ocx-backend-go-svc); unlike that file's exponential decay and EMA
// blending, this fixes deltas as discrete, non-decaying integers with
// a hard clamp, so none of the decay math is carried over — only the
// "ledger authoritative, score derived and recomputable" structure.
package trust

import (
	"go.uber.org/zap"

	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

// Reason is one of the fixed trust-delta reasons the Ledger applies.
type Reason string

const (
	ReasonSuccessfulReturnFinder Reason = "successful_return_finder"
	ReasonSuccessfulReturnOwner  Reason = "successful_return_owner"
	ReasonEmailVerified          Reason = "email_verified"
	ReasonPhoneVerified          Reason = "phone_verified"
	ReasonFailedVerification     Reason = "failed_verification"
	ReasonRepeatedFailedClaims   Reason = "repeated_failed_claims"
	ReasonScamReported           Reason = "scam_reported"
	ReasonScamConfirmed          Reason = "scam_confirmed"
	ReasonFalseScamReport        Reason = "false_scam_report"
	ReasonAccurateReportConfirmed Reason = "accurate_report_confirmed"
)

// Deltas is the fixed delta applied for each Reason.
var Deltas = map[Reason]int{
	ReasonSuccessfulReturnFinder:  3,
	ReasonSuccessfulReturnOwner:   2,
	ReasonEmailVerified:           1,
	ReasonPhoneVerified:           2,
	ReasonFailedVerification:      -2,
	ReasonRepeatedFailedClaims:    -5,
	ReasonScamReported:            -5,
	ReasonScamConfirmed:           -20,
	ReasonFalseScamReport:         -3,
	ReasonAccurateReportConfirmed: 1,
}

const (
	minTrustScore     = -100
	maxTrustScore     = 100
	autoBanThreshold  = -10
	autoBanReason     = "low trust"
)

func clamp(score int) int {
	if score < minTrustScore {
		return minTrustScore
	}
	if score > maxTrustScore {
		return maxTrustScore
	}
	return score
}

// Repository is the persistence boundary internal/db implements: append an
// event, read a user's current score, and apply the ban side effect
// transactionally with the event append.
type Repository interface {
	// AppendEventAndUpdateScore appends the TrustEvent and updates the
	// user's materialized trust_score in one transaction, returning the
	// pre-write score so the caller can detect an auto-ban crossing.
	AppendEventAndUpdateScore(userID string, delta int, reason string, newScore int) (preWriteScore int, err error)
	// BanUser marks a user banned with the given reason, idempotently.
	BanUser(userID string, reason string) error
	// CurrentScore returns a user's materialized trust_score.
	CurrentScore(userID string) (int, error)
	// SumDeltas recomputes the score from the append-only log, for the
	// admin "recalculate" invariant check.
	SumDeltas(userID string) (int, error)
}

// Ledger applies trust deltas and enforces the auto-ban floor.
type Ledger struct {
	repo Repository
	log  *zap.SugaredLogger
}

func NewLedger(repo Repository, log *zap.SugaredLogger) *Ledger {
	return &Ledger{repo: repo, log: log}
}

// Apply records a trust delta for userID and bans the user automatically
// if the write crosses the -10 floor from above.
func (l *Ledger) Apply(userID string, reason Reason) (newScore int, err error) {
	delta, ok := Deltas[reason]
	if !ok {
		delta = 0
	}
	return l.ApplyDelta(userID, delta, string(reason))
}

// ApplyDelta records an arbitrary delta with a free-text reason — used by
// the Fraud Scorer's moderation hooks and operator-driven compensating
// deltas (dispute resolution), which don't all map to the fixed Reason
// table.
func (l *Ledger) ApplyDelta(userID string, delta int, reason string) (newScore int, err error) {
	rawSum, err := l.repo.SumDeltas(userID)
	if err != nil {
		return 0, err
	}
	newScore = clamp(rawSum + delta)

	preWrite, err := l.repo.AppendEventAndUpdateScore(userID, delta, reason, newScore)
	if err != nil {
		return 0, err
	}

	if preWrite > autoBanThreshold && newScore <= autoBanThreshold {
		if err := l.repo.BanUser(userID, autoBanReason); err != nil {
			if l.log != nil {
				l.log.Errorw("trust: failed to apply auto-ban after floor crossing", "userId", userID, "error", err)
			}
			return newScore, err
		}
		if l.log != nil {
			l.log.Warnw("trust: user auto-banned on low-trust floor crossing", "userId", userID, "newScore", newScore)
		}
	}
	return newScore, nil
}

// Recalculate re-sums the append-only log and asserts it matches the
// materialized score, the admin recalculate operation used to detect drift.
func (l *Ledger) Recalculate(userID string) (recomputed int, matches bool, err error) {
	recomputed, err = l.repo.SumDeltas(userID)
	if err != nil {
		return 0, false, err
	}
	recomputed = clamp(recomputed)
	current, err := l.repo.CurrentScore(userID)
	if err != nil {
		return 0, false, err
	}
	return recomputed, recomputed == current, nil
}

// TierFor derives the permission tier for a trust score.
func TierFor(score int) models.Tier {
	return models.User{TrustScore: score}.TierFor()
}
