package matching

import (
	"testing"
	"time"

	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

func TestScorePair_CategoryMismatchGate(t *testing.T) {
	lost := pairable{Category: models.CategoryElectronics, LocationArea: "kimironko", Date: time.Now()}
	found := pairable{Category: models.CategoryBags, LocationArea: "kimironko", Date: time.Now()}

	score, explanation := scorePair(lost, found)
	if score != 0 {
		t.Errorf("expected score 0 for mismatched categories, got %d", score)
	}
	if len(explanation) != 1 || explanation[0] != "Category mismatch" {
		t.Errorf("expected single %q explanation, got %v", "Category mismatch", explanation)
	}
}

// Reproduces the lost/found literal scenario: same category, same area,
// posted the same day, with no keyword overlap required to clear the
// reported ≥13 threshold.
func TestScorePair_HappyPathScenario(t *testing.T) {
	lostDate := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	foundDate := lostDate.Add(3 * time.Hour)

	lost := pairable{Category: models.CategoryElectronics, LocationArea: "kimironko", Date: lostDate}
	found := pairable{Category: models.CategoryElectronics, LocationArea: "kimironko", Date: foundDate}

	score, explanation := scorePair(lost, found)
	if score < 13 {
		t.Errorf("expected score >= 13, got %d (%v)", score, explanation)
	}
	for _, want := range []string{"Category match", "Same location", "Within 24 hours"} {
		if !contains(explanation, want) {
			t.Errorf("expected explanation to contain %q, got %v", want, explanation)
		}
	}
}

func TestScorePair_LocationDistanceBands(t *testing.T) {
	base := time.Now()
	lost := pairable{Category: models.CategoryKeys, LocationArea: "kacyiru", Date: base}

	cases := []struct {
		name         string
		foundArea    string
		wantExplain  string
		wantAtLeast  int
	}{
		{"same area", "kacyiru", "Same location", 5},
		{"adjacent area", "kimihurura", "Adjacent location", 3},
		{"same district, non-adjacent", "kisimenti", "Same district", 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			found := pairable{Category: models.CategoryKeys, LocationArea: tc.foundArea, Date: base}
			score, explanation := scorePair(lost, found)
			if !contains(explanation, tc.wantExplain) {
				t.Errorf("expected explanation to contain %q, got %v", tc.wantExplain, explanation)
			}
			if score < tc.wantAtLeast {
				t.Errorf("expected score >= %d, got %d", tc.wantAtLeast, score)
			}
		})
	}
}

func TestScorePair_TemporalGateRejectsFoundBeforeLostBeyondTolerance(t *testing.T) {
	lostDate := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	foundDate := lostDate.Add(-48 * time.Hour)

	lost := pairable{Category: models.CategoryDocuments, LocationArea: "gitega", Date: lostDate}
	found := pairable{Category: models.CategoryDocuments, LocationArea: "gitega", Date: foundDate}

	_, explanation := scorePair(lost, found)
	for _, bucket := range []string{"Within 24 hours", "Within 72 hours", "Within 1 week"} {
		if contains(explanation, bucket) {
			t.Errorf("found predating lost by 48h should not earn a temporal bonus, got %v", explanation)
		}
	}
}

func TestScorePair_TemporalGateAllowsFoundBeforeLostWithinTolerance(t *testing.T) {
	lostDate := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	foundDate := lostDate.Add(-12 * time.Hour)

	lost := pairable{Category: models.CategoryDocuments, LocationArea: "gitega", Date: lostDate}
	found := pairable{Category: models.CategoryDocuments, LocationArea: "gitega", Date: foundDate}

	_, explanation := scorePair(lost, found)
	if !contains(explanation, "Within 24 hours") {
		t.Errorf("expected the 24h tolerance window to still apply for a found item slightly predating the lost item, got %v", explanation)
	}
}

func TestScorePair_KeywordOverlapIsCappedAtFive(t *testing.T) {
	base := time.Now()
	lost := pairable{
		Category:     models.CategoryElectronics,
		LocationArea: "remera",
		Date:         base,
		Keywords:     []string{"black", "iphone", "nike", "dell", "rado", "gold", "silver"},
	}
	found := pairable{
		Category:     models.CategoryElectronics,
		LocationArea: "remera",
		Date:         base,
		Keywords:     []string{"black", "iphone", "nike", "dell", "rado", "gold", "silver"},
	}

	score, explanation := scorePair(lost, found)
	if !contains(explanation, "Keyword overlap") {
		t.Errorf("expected a keyword overlap explanation, got %v", explanation)
	}
	// 5 (category) + 5 (same location) + temporal bonus (3, same instant) + 5 (capped overlap).
	if score != 18 {
		t.Errorf("expected overlap bonus capped at 5 (total score 18), got %d", score)
	}
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
