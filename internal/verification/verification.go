// Package verification implements opening a claim against a matched
// lost/found pair, fetching its secret questions, and judging a
// submitted answer set under per-claim and per-user rate limits,
// progressive cooldowns, and trust deltas.
//
// Cap-then-compare ordering follows the same shape as the HTTP-layer
// rate limiter, which always rejects over-budget callers before doing
// any request work;
// here the same ordering additionally denies a timing side channel about
// claim state, since the constant-time secretstore.Verify call only ever
// runs once the caps are already known to be satisfied.
package verification

import (
	"time"

	"go.uber.org/zap"

	"github.com/rwandatech/byaboneka-plus/internal/apperr"
	"github.com/rwandatech/byaboneka-plus/internal/secretstore"
	"github.com/rwandatech/byaboneka-plus/internal/trust"
	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

// perClaimDailyCap is the "3 attempts per 24h per claim" limit.
const perClaimDailyCap = 3

// failureWindow is the trailing window the repeated-failure penalty scans.
const failureWindow = 7 * 24 * time.Hour

// repeatedFailureThreshold is the count at which the one-time −5 penalty
// fires.
const repeatedFailureThreshold = 3

// cooldownFor returns the progressive cooldown duration for a given
// consecutive-failure count.
func cooldownFor(consecutiveFailures int) time.Duration {
	switch {
	case consecutiveFailures <= 1:
		return time.Hour
	case consecutiveFailures == 2:
		return 4 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Repository is the persistence boundary internal/db and internal/claims
// implement/consume for the open_claim, fetch_questions, and verify
// operations.
type Repository interface {
	LostItemOwnerAndStatus(lostItemID string) (ownerID string, status models.LostItemStatus, err error)
	FoundItemStatus(foundItemID string) (models.FoundItemStatus, error)
	HasNonTerminalClaim(lostItemID, foundItemID, claimantID string) (bool, error)
	CountNonTerminalClaimsByUser(userID string) (int, error)
	CreateClaim(claim models.Claim) error

	ClaimByID(claimID string) (models.Claim, error)
	AttemptsToday(claimID string) (int, error)
	FailedAttemptsByUserSince(userID string, since time.Time) (int, error)
	RecordAttempt(a models.VerificationAttempt) error
	ApplyFailureCooldown(claimID string, consecutiveFailures int, nextAttemptAt time.Time) error
	MarkPassed(claimID string, score float64) error
}

// TierLookup resolves a user's current tier for cap enforcement.
type TierLookup interface {
	TierForUser(userID string) (models.Tier, error)
}

// Engine is the Verification Challenge component.
type Engine struct {
	repo    Repository
	secrets *secretstore.Store
	ledger  *trust.Ledger
	tiers   TierLookup
	log     *zap.SugaredLogger
}

func NewEngine(repo Repository, secrets *secretstore.Store, ledger *trust.Ledger, tiers TierLookup, log *zap.SugaredLogger) *Engine {
	return &Engine{repo: repo, secrets: secrets, ledger: ledger, tiers: tiers, log: log}
}

// OpenClaim creates a Pending claim for (lostItemID, foundItemID, claimantID)
// per the guard set.
func (e *Engine) OpenClaim(lostItemID, foundItemID, claimantID string) (models.Claim, error) {
	ownerID, lostStatus, err := e.repo.LostItemOwnerAndStatus(lostItemID)
	if err != nil {
		return models.Claim{}, err
	}
	if ownerID != claimantID {
		return models.Claim{}, apperr.New(apperr.KindForbidden, "only the lost item's owner may claim against it")
	}
	if lostStatus != models.LostItemActive {
		return models.Claim{}, apperr.New(apperr.KindConflict, "lost item is not active")
	}
	foundStatus, err := e.repo.FoundItemStatus(foundItemID)
	if err != nil {
		return models.Claim{}, err
	}
	if foundStatus != models.FoundItemUnclaimed {
		return models.Claim{}, apperr.New(apperr.KindConflict, "found item is not unclaimed")
	}
	exists, err := e.repo.HasNonTerminalClaim(lostItemID, foundItemID, claimantID)
	if err != nil {
		return models.Claim{}, err
	}
	if exists {
		return models.Claim{}, apperr.New(apperr.KindConflict, "a non-terminal claim already exists for this pair")
	}

	tier, err := e.tiers.TierForUser(claimantID)
	if err != nil {
		return models.Claim{}, err
	}
	caps := models.CapsFor(tier)
	active, err := e.repo.CountNonTerminalClaimsByUser(claimantID)
	if err != nil {
		return models.Claim{}, err
	}
	if active >= caps.ClaimCap {
		return models.Claim{}, apperr.New(apperr.KindForbidden, "claim cap reached for your trust tier")
	}

	claim := models.Claim{
		LostItemID:  lostItemID,
		FoundItemID: foundItemID,
		ClaimantID:  claimantID,
		Status:      models.ClaimPending,
	}
	if err := e.repo.CreateClaim(claim); err != nil {
		return models.Claim{}, err
	}
	return claim, nil
}

// FetchQuestions returns the secret question text for a claim, gated on
// the caller being the claimant, the claim being Pending, and today's
// attempt count being under the per-claim cap.
func (e *Engine) FetchQuestions(claimID, userID string) ([]string, error) {
	claim, err := e.repo.ClaimByID(claimID)
	if err != nil {
		return nil, err
	}
	if err := e.guardAttempt(claim, userID); err != nil {
		return nil, err
	}
	return e.secrets.Questions(claim.LostItemID)
}

// guardAttempt enforces the shared preconditions for fetch_questions and
// verify: claimant identity, Pending status, the per-claim daily cap, and
// any active cooldown — all checked before any secret comparison runs.
func (e *Engine) guardAttempt(claim models.Claim, userID string) error {
	if claim.ClaimantID != userID {
		return apperr.New(apperr.KindForbidden, "only the claimant may act on this claim")
	}
	if claim.Status != models.ClaimPending {
		return apperr.New(apperr.KindConflict, "claim is not pending")
	}
	if claim.NextAttemptAt != nil && time.Now().Before(*claim.NextAttemptAt) {
		return apperr.New(apperr.KindCooldown, "verification is on cooldown")
	}
	count, err := e.repo.AttemptsToday(claim.ID)
	if err != nil {
		return err
	}
	if count >= perClaimDailyCap {
		return apperr.New(apperr.KindRateLimited, "daily verification attempt cap reached for this claim")
	}
	return nil
}

// Outcome is the result of a verify() call.
type Outcome struct {
	CorrectAnswers int
	Score          float64
	Passed         bool
}

// Verify judges a submitted answer set against a claim's secret set.
func (e *Engine) Verify(claimID, userID string, answers [3]string, ip string) (Outcome, error) {
	claim, err := e.repo.ClaimByID(claimID)
	if err != nil {
		return Outcome{}, err
	}
	if err := e.guardAttempt(claim, userID); err != nil {
		return Outcome{}, err
	}

	bits, err := e.secrets.Verify(claim.LostItemID, answers)
	if err != nil {
		return Outcome{}, err
	}
	correct := 0
	for _, ok := range bits {
		if ok {
			correct++
		}
	}
	score := float64(correct) / 3.0
	passed := correct >= 2

	attempt := models.VerificationAttempt{
		ClaimID:        claimID,
		UserID:         userID,
		CorrectAnswers: correct,
		Timestamp:      time.Now(),
		IP:             ip,
	}
	if passed {
		attempt.Status = models.AttemptPassed
	} else {
		attempt.Status = models.AttemptFailed
	}
	if err := e.repo.RecordAttempt(attempt); err != nil {
		return Outcome{}, err
	}

	if passed {
		if err := e.repo.MarkPassed(claimID, score); err != nil {
			return Outcome{}, err
		}
		return Outcome{CorrectAnswers: correct, Score: score, Passed: true}, nil
	}

	consecutive := claim.ConsecutiveFailures + 1
	nextAttemptAt := time.Now().Add(cooldownFor(consecutive))
	if err := e.repo.ApplyFailureCooldown(claimID, consecutive, nextAttemptAt); err != nil {
		return Outcome{}, err
	}

	if _, err := e.ledger.Apply(userID, trust.ReasonFailedVerification); err != nil {
		if e.log != nil {
			e.log.Errorw("verification: failed to apply failed-verification trust delta", "userId", userID, "error", err)
		}
		return Outcome{}, err
	}

	since := time.Now().Add(-failureWindow)
	failedInWindow, err := e.repo.FailedAttemptsByUserSince(userID, since)
	if err != nil {
		if e.log != nil {
			e.log.Errorw("verification: failed to count trailing failures", "userId", userID, "error", err)
		}
		return Outcome{}, err
	}
	if failedInWindow == repeatedFailureThreshold {
		if _, err := e.ledger.Apply(userID, trust.ReasonRepeatedFailedClaims); err != nil {
			if e.log != nil {
				e.log.Errorw("verification: failed to apply repeated-failure trust delta", "userId", userID, "error", err)
			}
			return Outcome{}, err
		}
	}

	return Outcome{CorrectAnswers: correct, Score: score, Passed: false}, nil
}
