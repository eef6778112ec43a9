// Package handover implements minting and redeeming the single-use code
// that closes out a Verified claim.
//
// The mint-then-reveal-once pattern follows secretstore's own
// hash-and-never-persist-plaintext shape; the redeem transaction's
// atomic multi-entity transition (confirmation, claim, both items)
// follows the tx.Begin/Exec/Commit pattern used throughout internal/db.
// The two trust deltas are applied through the ledger after that
// transaction commits, not inside it.
package handover

import (
	"crypto/rand"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/rwandatech/byaboneka-plus/internal/apperr"
	"github.com/rwandatech/byaboneka-plus/internal/trust"
	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

// otpDigits is the fixed OTP length.
const otpDigits = 6

// otpTTL is the confirmation expiry.
const otpTTL = 24 * time.Hour

// maxAttempts is the per-confirmation redemption attempt cap.
const maxAttempts = 3

// bcryptCost matches secretstore's adaptive-cost preference.
const bcryptCost = bcrypt.DefaultCost

// Repository is the persistence boundary internal/db and internal/claims
// implement/consume.
type Repository interface {
	ClaimForHandover(claimID string) (models.Claim, error)
	FoundItemFinderAndCooperative(foundItemID string) (finderID, cooperativeID string, err error)
	UserIsCoopStaffOf(userID, cooperativeID string) (bool, error)

	LiveConfirmation(claimID string) (models.HandoverConfirmation, bool, error)
	DeleteConfirmation(confirmationID string) error
	CreateConfirmation(c models.HandoverConfirmation) error

	IncrementAttempts(confirmationID string) error
	// RedeemTransactionally atomically marks the confirmation verified,
	// stamps the redeemer, and transitions claim/lost-item/found-item to
	// their terminal Returned states, in one durable transaction.
	RedeemTransactionally(confirmationID, claimID, redeemerID string, redeemedAt time.Time) error
}

// Handover is the OTP Handover component.
type Handover struct {
	repo   Repository
	ledger *trust.Ledger
}

func New(repo Repository, ledger *trust.Ledger) *Handover {
	return &Handover{repo: repo, ledger: ledger}
}

// generateOTP draws a 6-digit decimal string from a cryptographic RNG.
func generateOTP() (string, error) {
	max := 1
	for i := 0; i < otpDigits; i++ {
		max *= 10
	}
	n, err := randInt(max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n), nil
}

func randInt(max int) (int, error) {
	// Draws at or above the largest multiple of max below 2^32 are
	// rejected, so every value in [0, max) is equally likely.
	limit := (uint64(1) << 32) / uint64(max) * uint64(max)
	b := make([]byte, 4)
	for {
		if _, err := rand.Read(b); err != nil {
			return 0, err
		}
		v := uint64(b[0])<<24 | uint64(b[1])<<16 | uint64(b[2])<<8 | uint64(b[3])
		if v < limit {
			return int(v % uint64(max)), nil
		}
	}
}

// Mint creates a fresh OTP for a Verified claim, owned exclusively by the
// claimant, and returns the plaintext code exactly once.
func (h *Handover) Mint(claimID, userID string) (plaintextOTP string, err error) {
	claim, err := h.repo.ClaimForHandover(claimID)
	if err != nil {
		return "", err
	}
	if claim.ClaimantID != userID {
		return "", apperr.New(apperr.KindForbidden, "only the claimant may mint a handover code")
	}
	if claim.Status != models.ClaimVerified {
		return "", apperr.New(apperr.KindConflict, "claim is not verified")
	}

	if existing, ok, err := h.repo.LiveConfirmation(claimID); err != nil {
		return "", err
	} else if ok {
		expired := time.Now().After(existing.ExpiresAt)
		if !existing.Verified && expired {
			if err := h.repo.DeleteConfirmation(existing.ID); err != nil {
				return "", err
			}
		} else {
			return "", apperr.New(apperr.KindConflict, "a live handover code already exists for this claim")
		}
	}

	otp, err := generateOTP()
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to generate OTP", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(otp), bcryptCost)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to hash OTP", err)
	}

	confirmation := models.HandoverConfirmation{
		ClaimID:     claimID,
		OTPHash:     string(hash),
		ExpiresAt:   time.Now().Add(otpTTL),
		Verified:    false,
		Attempts:    0,
		MaxAttempts: maxAttempts,
	}
	if err := h.repo.CreateConfirmation(confirmation); err != nil {
		return "", err
	}
	return otp, nil
}

// RedeemOutcome reports the result of a Redeem call.
type RedeemOutcome struct {
	Success           bool
	AttemptsRemaining int
}

// Redeem checks a submitted OTP against the live confirmation for a claim
// and, on match, atomically closes out the claim.
func (h *Handover) Redeem(claimID, userID, submittedOTP string) (RedeemOutcome, error) {
	claim, err := h.repo.ClaimForHandover(claimID)
	if err != nil {
		return RedeemOutcome{}, err
	}

	finderID, cooperativeID, err := h.repo.FoundItemFinderAndCooperative(claim.FoundItemID)
	if err != nil {
		return RedeemOutcome{}, err
	}
	authorized := userID == finderID
	if !authorized && cooperativeID != "" {
		authorized, err = h.repo.UserIsCoopStaffOf(userID, cooperativeID)
		if err != nil {
			return RedeemOutcome{}, err
		}
	}
	if !authorized {
		return RedeemOutcome{}, apperr.New(apperr.KindForbidden, "only the finder or bound cooperative staff may redeem")
	}

	confirmation, ok, err := h.repo.LiveConfirmation(claimID)
	if err != nil {
		return RedeemOutcome{}, err
	}
	if !ok {
		return RedeemOutcome{}, apperr.New(apperr.KindNotFound, "no live handover confirmation for this claim")
	}
	if confirmation.Verified {
		return RedeemOutcome{}, apperr.New(apperr.KindConflict, "handover code has already been redeemed")
	}
	if time.Now().After(confirmation.ExpiresAt) {
		return RedeemOutcome{}, apperr.New(apperr.KindExpired, "handover code has expired")
	}
	if confirmation.Attempts >= confirmation.MaxAttempts {
		return RedeemOutcome{}, apperr.New(apperr.KindRateLimited, "maximum redemption attempts exceeded")
	}

	match := bcrypt.CompareHashAndPassword([]byte(confirmation.OTPHash), []byte(submittedOTP)) == nil
	if !match {
		if err := h.repo.IncrementAttempts(confirmation.ID); err != nil {
			return RedeemOutcome{}, err
		}
		remaining := confirmation.MaxAttempts - (confirmation.Attempts + 1)
		if remaining < 0 {
			remaining = 0
		}
		return RedeemOutcome{Success: false, AttemptsRemaining: remaining}, nil
	}

	now := time.Now()
	if err := h.repo.RedeemTransactionally(confirmation.ID, claimID, userID, now); err != nil {
		return RedeemOutcome{}, err
	}

	if _, err := h.ledger.Apply(finderID, trust.ReasonSuccessfulReturnFinder); err != nil {
		return RedeemOutcome{}, err
	}
	if _, err := h.ledger.Apply(claim.ClaimantID, trust.ReasonSuccessfulReturnOwner); err != nil {
		return RedeemOutcome{}, err
	}

	return RedeemOutcome{Success: true, AttemptsRemaining: confirmation.MaxAttempts}, nil
}

// Status reports a claim's handover confirmation state without ever
// exposing the OTP itself, visible to the claimant, the finder, or bound
// cooperative staff.
type Status struct {
	Exists            bool
	Verified          bool
	ExpiresAt         time.Time
	AttemptsRemaining int
}

// Status implements the read-only "GET /claims/:id/handover" view.
func (h *Handover) Status(claimID, userID string) (Status, error) {
	claim, err := h.repo.ClaimForHandover(claimID)
	if err != nil {
		return Status{}, err
	}

	finderID, cooperativeID, err := h.repo.FoundItemFinderAndCooperative(claim.FoundItemID)
	if err != nil {
		return Status{}, err
	}
	authorized := userID == claim.ClaimantID || userID == finderID
	if !authorized && cooperativeID != "" {
		authorized, err = h.repo.UserIsCoopStaffOf(userID, cooperativeID)
		if err != nil {
			return Status{}, err
		}
	}
	if !authorized {
		return Status{}, apperr.New(apperr.KindForbidden, "only a participant may view handover status")
	}

	confirmation, ok, err := h.repo.LiveConfirmation(claimID)
	if err != nil {
		return Status{}, err
	}
	if !ok {
		return Status{}, nil
	}
	remaining := confirmation.MaxAttempts - confirmation.Attempts
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		Exists:            true,
		Verified:          confirmation.Verified,
		ExpiresAt:         confirmation.ExpiresAt,
		AttemptsRemaining: remaining,
	}, nil
}
