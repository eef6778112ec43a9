package handover

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"go.uber.org/zap"

	"github.com/rwandatech/byaboneka-plus/internal/trust"
	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

type fakeTrustRepo struct {
	scores map[string]int
}

func newFakeTrustRepo() *fakeTrustRepo { return &fakeTrustRepo{scores: make(map[string]int)} }
func (f *fakeTrustRepo) AppendEventAndUpdateScore(userID string, delta int, reason string, newScore int) (int, error) {
	pre := f.scores[userID]
	f.scores[userID] = newScore
	return pre, nil
}
func (f *fakeTrustRepo) BanUser(userID, reason string) error     { return nil }
func (f *fakeTrustRepo) CurrentScore(userID string) (int, error) { return f.scores[userID], nil }
func (f *fakeTrustRepo) SumDeltas(userID string) (int, error)    { return f.scores[userID], nil }

type fakeRepo struct {
	claim         models.Claim
	finderID      string
	cooperativeID string
	coopStaff     map[string]bool
	confirmation  *models.HandoverConfirmation
	deleted       []string
	redeemed      bool
	redeemerID    string
}

func (f *fakeRepo) ClaimForHandover(claimID string) (models.Claim, error) { return f.claim, nil }
func (f *fakeRepo) FoundItemFinderAndCooperative(foundItemID string) (string, string, error) {
	return f.finderID, f.cooperativeID, nil
}
func (f *fakeRepo) UserIsCoopStaffOf(userID, cooperativeID string) (bool, error) {
	return f.coopStaff[userID], nil
}
func (f *fakeRepo) LiveConfirmation(claimID string) (models.HandoverConfirmation, bool, error) {
	if f.confirmation == nil {
		return models.HandoverConfirmation{}, false, nil
	}
	return *f.confirmation, true, nil
}
func (f *fakeRepo) DeleteConfirmation(confirmationID string) error {
	f.deleted = append(f.deleted, confirmationID)
	f.confirmation = nil
	return nil
}
func (f *fakeRepo) CreateConfirmation(c models.HandoverConfirmation) error {
	c.ID = "conf-1"
	f.confirmation = &c
	return nil
}
func (f *fakeRepo) IncrementAttempts(confirmationID string) error {
	f.confirmation.Attempts++
	return nil
}
func (f *fakeRepo) RedeemTransactionally(confirmationID, claimID, redeemerID string, redeemedAt time.Time) error {
	f.redeemed = true
	f.redeemerID = redeemerID
	f.confirmation.Verified = true
	return nil
}

func newTestHandover() (*Handover, *fakeRepo, *fakeTrustRepo) {
	repo := &fakeRepo{
		claim:    models.Claim{ID: "claim-1", LostItemID: "lost-1", FoundItemID: "found-1", ClaimantID: "owner-1", Status: models.ClaimVerified},
		finderID: "finder-1",
		coopStaff: map[string]bool{},
	}
	trustRepo := newFakeTrustRepo()
	ledger := trust.NewLedger(trustRepo, zap.NewNop().Sugar())
	return New(repo, ledger), repo, trustRepo
}

func TestMint_SucceedsForClaimantOnVerifiedClaim(t *testing.T) {
	h, repo, _ := newTestHandover()
	otp, err := h.Mint("claim-1", "owner-1")
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	if len(otp) != otpDigits {
		t.Errorf("expected %d-digit OTP, got %q", otpDigits, otp)
	}
	if repo.confirmation == nil {
		t.Fatal("expected confirmation to be created")
	}
	if bcrypt.CompareHashAndPassword([]byte(repo.confirmation.OTPHash), []byte(otp)) != nil {
		t.Error("stored hash does not match returned plaintext OTP")
	}
}

func TestMint_RejectsNonClaimant(t *testing.T) {
	h, _, _ := newTestHandover()
	_, err := h.Mint("claim-1", "someone-else")
	if err == nil {
		t.Fatal("expected forbidden error")
	}
}

func TestMint_RejectsWhenLiveConfirmationExists(t *testing.T) {
	h, repo, _ := newTestHandover()
	if _, err := h.Mint("claim-1", "owner-1"); err != nil {
		t.Fatalf("first mint failed: %v", err)
	}
	if repo.confirmation == nil {
		t.Fatal("expected confirmation")
	}
	_, err := h.Mint("claim-1", "owner-1")
	if err == nil {
		t.Fatal("expected conflict on second mint while first is live")
	}
}

func TestMint_DeletesExpiredUnverifiedConfirmationBeforeMinting(t *testing.T) {
	h, repo, _ := newTestHandover()
	past := time.Now().Add(-time.Hour)
	repo.confirmation = &models.HandoverConfirmation{ID: "stale-1", ClaimID: "claim-1", ExpiresAt: past, Verified: false}

	_, err := h.Mint("claim-1", "owner-1")
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "stale-1" {
		t.Errorf("expected stale confirmation to be deleted, got %v", repo.deleted)
	}
}

func TestRedeem_SucceedsForFinderWithCorrectOTP(t *testing.T) {
	h, repo, trustRepo := newTestHandover()
	otp, err := h.Mint("claim-1", "owner-1")
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	out, err := h.Redeem("claim-1", "finder-1", otp)
	if err != nil {
		t.Fatalf("Redeem failed: %v", err)
	}
	if !out.Success {
		t.Fatal("expected successful redemption")
	}
	if !repo.redeemed || repo.redeemerID != "finder-1" {
		t.Errorf("expected transactional redeem with redeemer finder-1, got redeemed=%v redeemer=%s", repo.redeemed, repo.redeemerID)
	}
	if trustRepo.scores["finder-1"] != 3 {
		t.Errorf("expected finder trust +3, got %d", trustRepo.scores["finder-1"])
	}
	if trustRepo.scores["owner-1"] != 2 {
		t.Errorf("expected owner trust +2, got %d", trustRepo.scores["owner-1"])
	}
}

func TestRedeem_CoopStaffCanRedeem(t *testing.T) {
	h, repo, _ := newTestHandover()
	repo.cooperativeID = "coop-1"
	repo.coopStaff["staff-1"] = true
	otp, _ := h.Mint("claim-1", "owner-1")

	out, err := h.Redeem("claim-1", "staff-1", otp)
	if err != nil {
		t.Fatalf("Redeem failed: %v", err)
	}
	if !out.Success {
		t.Fatal("expected successful redemption by coop staff")
	}
}

func TestRedeem_WrongOTPIncrementsAttemptsWithoutSideEffects(t *testing.T) {
	h, repo, trustRepo := newTestHandover()
	if _, err := h.Mint("claim-1", "owner-1"); err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	out, err := h.Redeem("claim-1", "finder-1", "000000")
	if err != nil {
		t.Fatalf("Redeem failed: %v", err)
	}
	if out.Success {
		t.Fatal("expected failed redemption")
	}
	if repo.confirmation.Attempts != 1 {
		t.Errorf("expected attempts=1, got %d", repo.confirmation.Attempts)
	}
	if trustRepo.scores["finder-1"] != 0 {
		t.Error("expected no trust delta on failed redemption")
	}
}

func TestRedeem_RejectsAlreadyVerifiedConfirmation(t *testing.T) {
	h, repo, _ := newTestHandover()
	otp, _ := h.Mint("claim-1", "owner-1")
	if _, err := h.Redeem("claim-1", "finder-1", otp); err != nil {
		t.Fatalf("first redeem failed: %v", err)
	}
	if !repo.confirmation.Verified {
		t.Fatal("expected confirmation marked verified")
	}

	_, err := h.Redeem("claim-1", "finder-1", otp)
	if err == nil {
		t.Fatal("expected terminal error on second redemption attempt")
	}
}

func TestRedeem_RejectsUnauthorizedUser(t *testing.T) {
	h, _, _ := newTestHandover()
	otp, _ := h.Mint("claim-1", "owner-1")

	_, err := h.Redeem("claim-1", "random-user", otp)
	if err == nil {
		t.Fatal("expected forbidden error for non-finder, non-coop-staff caller")
	}
}
