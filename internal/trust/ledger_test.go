package trust

import (
	"testing"

	"go.uber.org/zap"
)

type fakeRepo struct {
	scores map[string]int
	banned map[string]string
	events []int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{scores: make(map[string]int), banned: make(map[string]string)}
}
func (f *fakeRepo) AppendEventAndUpdateScore(userID string, delta int, reason string, newScore int) (int, error) {
	pre := f.scores[userID]
	f.scores[userID] = newScore
	f.events = append(f.events, delta)
	return pre, nil
}
func (f *fakeRepo) BanUser(userID, reason string) error { f.banned[userID] = reason; return nil }
func (f *fakeRepo) CurrentScore(userID string) (int, error) { return f.scores[userID], nil }
func (f *fakeRepo) SumDeltas(userID string) (int, error) {
	total := 0
	for _, d := range f.events {
		total += d
	}
	return total, nil
}

func TestApply_SuccessfulReturnFinderAddsThree(t *testing.T) {
	repo := newFakeRepo()
	l := NewLedger(repo, zap.NewNop().Sugar())

	score, err := l.Apply("user-1", ReasonSuccessfulReturnFinder)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if score != 3 {
		t.Errorf("expected score 3, got %d", score)
	}
}

func TestApply_ClampsAtFloor(t *testing.T) {
	repo := newFakeRepo()
	repo.scores["user-1"] = -99
	repo.events = []int{-99}
	l := NewLedger(repo, zap.NewNop().Sugar())

	score, err := l.ApplyDelta("user-1", -20, "scam_confirmed")
	if err != nil {
		t.Fatalf("ApplyDelta failed: %v", err)
	}
	if score != -100 {
		t.Errorf("expected clamp at -100, got %d", score)
	}
}

func TestApply_ClampsAtCeiling(t *testing.T) {
	repo := newFakeRepo()
	repo.scores["user-1"] = 99
	repo.events = []int{99}
	l := NewLedger(repo, zap.NewNop().Sugar())

	score, err := l.Apply("user-1", ReasonPhoneVerified)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if score != 100 {
		t.Errorf("expected clamp at 100, got %d", score)
	}
}

func TestApply_AutoBansOnFloorCrossing(t *testing.T) {
	repo := newFakeRepo()
	repo.scores["user-1"] = -5
	repo.events = []int{-5}
	l := NewLedger(repo, zap.NewNop().Sugar())

	_, err := l.Apply("user-1", ReasonRepeatedFailedClaims)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if repo.banned["user-1"] != autoBanReason {
		t.Errorf("expected auto-ban on floor crossing, banned=%v", repo.banned)
	}
}

func TestApply_DoesNotReBanAlreadyBelowFloor(t *testing.T) {
	repo := newFakeRepo()
	repo.scores["user-1"] = -15
	repo.events = []int{-15}
	l := NewLedger(repo, zap.NewNop().Sugar())

	_, err := l.Apply("user-1", ReasonFailedVerification)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if _, banned := repo.banned["user-1"]; banned {
		t.Error("expected no new ban call when already below floor before the write")
	}
}

func TestRecalculate_MatchesWhenLedgerIsConsistent(t *testing.T) {
	repo := newFakeRepo()
	l := NewLedger(repo, zap.NewNop().Sugar())
	if _, err := l.Apply("user-1", ReasonSuccessfulReturnFinder); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if _, err := l.Apply("user-1", ReasonEmailVerified); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	recomputed, matches, err := l.Recalculate("user-1")
	if err != nil {
		t.Fatalf("Recalculate failed: %v", err)
	}
	if !matches || recomputed != 4 {
		t.Errorf("expected matches=true recomputed=4, got matches=%v recomputed=%d", matches, recomputed)
	}
}

func TestTierFor_BoundaryValues(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{-11, "suspended"},
		{-10, "restricted"},
		{-1, "restricted"},
		{0, "new"},
		{4, "new"},
		{5, "established"},
		{14, "established"},
		{15, "trusted"},
	}
	for _, c := range cases {
		got := TierFor(c.score)
		if string(got) != c.want {
			t.Errorf("TierFor(%d) = %q, want %q", c.score, got, c.want)
		}
	}
}
