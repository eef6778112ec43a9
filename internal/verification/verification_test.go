package verification

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/rwandatech/byaboneka-plus/internal/secretstore"
	"github.com/rwandatech/byaboneka-plus/internal/trust"
	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

type fakeSecrets struct {
	repo *fakeSecretRepo
}

type fakeSecretRepo struct {
	byItem map[string][]models.SecretQuestion
}

func (f *fakeSecretRepo) SaveQuestions(lostItemID string, qs []models.SecretQuestion) error {
	f.byItem[lostItemID] = qs
	return nil
}
func (f *fakeSecretRepo) QuestionsFor(lostItemID string) ([]models.SecretQuestion, error) {
	return f.byItem[lostItemID], nil
}

type fakeTrustRepo struct {
	scores map[string]int
	banned map[string]bool
}

func newFakeTrustRepo() *fakeTrustRepo {
	return &fakeTrustRepo{scores: make(map[string]int), banned: make(map[string]bool)}
}
func (f *fakeTrustRepo) AppendEventAndUpdateScore(userID string, delta int, reason string, newScore int) (int, error) {
	pre := f.scores[userID]
	f.scores[userID] = newScore
	return pre, nil
}
func (f *fakeTrustRepo) BanUser(userID, reason string) error { f.banned[userID] = true; return nil }
func (f *fakeTrustRepo) CurrentScore(userID string) (int, error) { return f.scores[userID], nil }
func (f *fakeTrustRepo) SumDeltas(userID string) (int, error)    { return f.scores[userID], nil }

type fakeClaimRepo struct {
	claim             models.Claim
	attemptsToday     int
	failedSince       int
	attemptsRecorded  []models.VerificationAttempt
	cooldownApplied   *time.Time
	consecutiveFailed int
	passed            bool
}

func (f *fakeClaimRepo) LostItemOwnerAndStatus(lostItemID string) (string, models.LostItemStatus, error) {
	return "", "", nil
}
func (f *fakeClaimRepo) FoundItemStatus(foundItemID string) (models.FoundItemStatus, error) {
	return "", nil
}
func (f *fakeClaimRepo) HasNonTerminalClaim(lostItemID, foundItemID, claimantID string) (bool, error) {
	return false, nil
}
func (f *fakeClaimRepo) CountNonTerminalClaimsByUser(userID string) (int, error) { return 0, nil }
func (f *fakeClaimRepo) CreateClaim(claim models.Claim) error                    { return nil }
func (f *fakeClaimRepo) ClaimByID(claimID string) (models.Claim, error)          { return f.claim, nil }
func (f *fakeClaimRepo) AttemptsToday(claimID string) (int, error)               { return f.attemptsToday, nil }
func (f *fakeClaimRepo) FailedAttemptsByUserSince(userID string, since time.Time) (int, error) {
	return f.failedSince, nil
}
func (f *fakeClaimRepo) RecordAttempt(a models.VerificationAttempt) error {
	f.attemptsRecorded = append(f.attemptsRecorded, a)
	return nil
}
func (f *fakeClaimRepo) ApplyFailureCooldown(claimID string, consecutiveFailures int, nextAttemptAt time.Time) error {
	f.consecutiveFailed = consecutiveFailures
	f.cooldownApplied = &nextAttemptAt
	return nil
}
func (f *fakeClaimRepo) MarkPassed(claimID string, score float64) error {
	f.passed = true
	return nil
}

type fakeTiers struct{ tier models.Tier }

func (f fakeTiers) TierForUser(userID string) (models.Tier, error) { return f.tier, nil }

func newTestEngine(t *testing.T, claim models.Claim) (*Engine, *fakeClaimRepo, *fakeTrustRepo) {
	t.Helper()
	secretRepo := &fakeSecretRepo{byItem: make(map[string][]models.SecretQuestion)}
	secrets := secretstore.New(secretRepo)
	qas := [3]secretstore.QA{
		{Question: "q1", Answer: "mountains"},
		{Question: "q2", Answer: "3"},
		{Question: "q3", Answer: "spotify"},
	}
	if err := secrets.Store(claim.LostItemID, qas); err != nil {
		t.Fatalf("seed secret store: %v", err)
	}

	trustRepo := newFakeTrustRepo()
	ledger := trust.NewLedger(trustRepo, zap.NewNop().Sugar())

	claimRepo := &fakeClaimRepo{claim: claim}
	engine := NewEngine(claimRepo, secrets, ledger, fakeTiers{tier: models.TierNew}, zap.NewNop().Sugar())
	return engine, claimRepo, trustRepo
}

func baseClaim() models.Claim {
	return models.Claim{ID: "claim-1", LostItemID: "lost-1", FoundItemID: "found-1", ClaimantID: "user-1", Status: models.ClaimPending}
}

func TestVerify_AllCorrectPasses(t *testing.T) {
	engine, repo, _ := newTestEngine(t, baseClaim())
	out, err := engine.Verify("claim-1", "user-1", [3]string{"Mountains", "3", "Spotify"}, "127.0.0.1")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !out.Passed || out.CorrectAnswers != 3 {
		t.Errorf("expected pass with 3 correct, got %+v", out)
	}
	if !repo.passed {
		t.Errorf("expected MarkPassed to have been called")
	}
}

func TestVerify_TwoCorrectPasses(t *testing.T) {
	engine, _, _ := newTestEngine(t, baseClaim())
	out, err := engine.Verify("claim-1", "user-1", [3]string{"mountains", "wrong", "spotify"}, "127.0.0.1")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !out.Passed || out.CorrectAnswers != 2 {
		t.Errorf("expected pass with 2 correct, got %+v", out)
	}
}

func TestVerify_OneCorrectFailsAndSetsOneHourCooldown(t *testing.T) {
	claim := baseClaim()
	engine, repo, trustRepo := newTestEngine(t, claim)
	out, err := engine.Verify("claim-1", "user-1", [3]string{"mountains", "wrong", "wrong"}, "127.0.0.1")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if out.Passed {
		t.Fatalf("expected failure, got pass")
	}
	if repo.consecutiveFailed != 1 {
		t.Errorf("expected consecutive_failures=1, got %d", repo.consecutiveFailed)
	}
	if repo.cooldownApplied == nil {
		t.Fatal("expected cooldown to be set")
	}
	until := repo.cooldownApplied.Sub(time.Now())
	if until < 55*time.Minute || until > 65*time.Minute {
		t.Errorf("expected ~1h cooldown, got %v", until)
	}
	if trustRepo.scores["user-1"] != -2 {
		t.Errorf("expected trust delta -2, got %d", trustRepo.scores["user-1"])
	}
}

func TestVerify_SecondConsecutiveFailureSetsFourHourCooldown(t *testing.T) {
	claim := baseClaim()
	claim.ConsecutiveFailures = 1
	engine, repo, _ := newTestEngine(t, claim)
	_, err := engine.Verify("claim-1", "user-1", [3]string{"wrong", "wrong", "wrong"}, "127.0.0.1")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if repo.consecutiveFailed != 2 {
		t.Errorf("expected consecutive_failures=2, got %d", repo.consecutiveFailed)
	}
	until := repo.cooldownApplied.Sub(time.Now())
	if until < 3*time.Hour+55*time.Minute || until > 4*time.Hour+5*time.Minute {
		t.Errorf("expected ~4h cooldown, got %v", until)
	}
}

func TestVerify_ThirdFailureInWindowAppliesRepeatedFailurePenalty(t *testing.T) {
	claim := baseClaim()
	engine, _, trustRepo := newTestEngine(t, claim)
	engine.repo.(*fakeClaimRepo).failedSince = 3

	_, err := engine.Verify("claim-1", "user-1", [3]string{"wrong", "wrong", "wrong"}, "127.0.0.1")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if trustRepo.scores["user-1"] != -7 {
		t.Errorf("expected -2 (this failure) + -5 (threshold crossing) = -7, got %d", trustRepo.scores["user-1"])
	}
}

func TestVerify_RespectsActiveCooldown(t *testing.T) {
	future := time.Now().Add(30 * time.Minute)
	claim := baseClaim()
	claim.NextAttemptAt = &future
	engine, _, _ := newTestEngine(t, claim)

	_, err := engine.Verify("claim-1", "user-1", [3]string{"mountains", "3", "spotify"}, "127.0.0.1")
	if err == nil {
		t.Fatal("expected cooldown error")
	}
}

func TestVerify_RespectsDailyCap(t *testing.T) {
	claim := baseClaim()
	engine, repo, _ := newTestEngine(t, claim)
	repo.attemptsToday = 3

	_, err := engine.Verify("claim-1", "user-1", [3]string{"mountains", "3", "spotify"}, "127.0.0.1")
	if err == nil {
		t.Fatal("expected rate-limit error")
	}
}

func TestVerify_RejectsNonClaimant(t *testing.T) {
	engine, _, _ := newTestEngine(t, baseClaim())
	_, err := engine.Verify("claim-1", "someone-else", [3]string{"mountains", "3", "spotify"}, "127.0.0.1")
	if err == nil {
		t.Fatal("expected forbidden error")
	}
}
