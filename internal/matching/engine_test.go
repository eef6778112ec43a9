package matching

import (
	"testing"
	"time"

	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

type fakeCandidateSource struct {
	lostByID  map[string]LostItemView
	foundByID map[string]FoundItemView
	lostList  []LostItemView
	foundList []FoundItemView
}

func (f *fakeCandidateSource) LostItemByID(lostID string) (LostItemView, error) {
	return f.lostByID[lostID], nil
}
func (f *fakeCandidateSource) FoundItemByID(foundID string) (FoundItemView, error) {
	return f.foundByID[foundID], nil
}
func (f *fakeCandidateSource) CandidateFoundItems(category string, anchorDate time.Time) ([]FoundItemView, error) {
	var out []FoundItemView
	for _, fi := range f.foundList {
		if fi.Category == category {
			out = append(out, fi)
		}
	}
	return out, nil
}
func (f *fakeCandidateSource) CandidateLostItems(category string, anchorDate time.Time) ([]LostItemView, error) {
	var out []LostItemView
	for _, li := range f.lostList {
		if li.Category == category {
			out = append(out, li)
		}
	}
	return out, nil
}
func (f *fakeCandidateSource) RecentLostItems(n int) ([]LostItemView, error) {
	return f.lostList, nil
}

type fakeCacheStore struct {
	rows map[string][]models.MatchResult
}

func newFakeCacheStore() *fakeCacheStore { return &fakeCacheStore{rows: make(map[string][]models.MatchResult)} }
func (f *fakeCacheStore) GetCached(lostID string, freshness time.Duration) ([]models.MatchResult, time.Time, bool, error) {
	rows, ok := f.rows[lostID]
	return rows, time.Now(), ok, nil
}
func (f *fakeCacheStore) PutCached(lostID string, results []models.MatchResult, computedAt time.Time) error {
	f.rows[lostID] = results
	return nil
}

func TestEngine_LostAndFoundAnchoredQueriesAgreeOnScore(t *testing.T) {
	lostDate := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	foundDate := lostDate.Add(-12 * time.Hour)

	lost := LostItemView{ID: "lost-1", Category: "electronics", LocationArea: "kimironko", Date: lostDate, Keywords: []string{"iphone", "black"}}
	found := FoundItemView{ID: "found-1", Category: "electronics", LocationArea: "kimironko", Date: foundDate, Keywords: []string{"iphone", "black"}}

	source := &fakeCandidateSource{
		lostByID:  map[string]LostItemView{"lost-1": lost},
		foundByID: map[string]FoundItemView{"found-1": found},
		lostList:  []LostItemView{lost},
		foundList: []FoundItemView{found},
	}

	lostAnchored := NewEngine(source, newFakeCacheStore(), nil)
	lostResults, err := lostAnchored.RecomputeForLostItem("lost-1")
	if err != nil {
		t.Fatalf("RecomputeForLostItem: %v", err)
	}
	if len(lostResults) != 1 {
		t.Fatalf("expected 1 match from the lost-item-anchored query, got %d", len(lostResults))
	}

	foundAnchored := NewEngine(source, newFakeCacheStore(), nil)
	foundResults, err := foundAnchored.MatchesForFoundItem("found-1")
	if err != nil {
		t.Fatalf("MatchesForFoundItem: %v", err)
	}
	if len(foundResults) != 1 {
		t.Fatalf("expected 1 match from the found-item-anchored query, got %d", len(foundResults))
	}

	if lostResults[0].Score != foundResults[0].Score {
		t.Errorf("expected symmetric scoring for the same pair regardless of anchor side, got lost-anchored=%d found-anchored=%d",
			lostResults[0].Score, foundResults[0].Score)
	}
}

func TestEngine_MatchesForLostItemUsesFreshCache(t *testing.T) {
	cached := []models.MatchResult{{CounterpartID: "found-9", Score: 42, Explanation: []string{"cached"}}}
	cache := newFakeCacheStore()
	cache.rows["lost-1"] = cached

	source := &fakeCandidateSource{lostByID: map[string]LostItemView{}, foundByID: map[string]FoundItemView{}}
	e := NewEngine(source, cache, nil)

	results, err := e.MatchesForLostItem("lost-1")
	if err != nil {
		t.Fatalf("MatchesForLostItem: %v", err)
	}
	if len(results) != 1 || results[0].CounterpartID != "found-9" {
		t.Errorf("expected the cached row to be returned unchanged, got %+v", results)
	}
}

func TestEngine_RecomputeDropsCandidatesBelowMinScore(t *testing.T) {
	lostDate := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	lost := LostItemView{ID: "lost-1", Category: "bags", LocationArea: "kimironko", Date: lostDate}
	// Different category entirely: scorePair returns 0, well under MinScore.
	mismatch := FoundItemView{ID: "found-1", Category: "documents", LocationArea: "kimironko", Date: lostDate}

	source := &fakeCandidateSource{
		lostByID:  map[string]LostItemView{"lost-1": lost},
		lostList:  []LostItemView{lost},
		foundList: []FoundItemView{mismatch},
	}
	e := NewEngine(source, newFakeCacheStore(), nil)

	results, err := e.RecomputeForLostItem("lost-1")
	if err != nil {
		t.Fatalf("RecomputeForLostItem: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected category-mismatched candidate to be filtered out, got %+v", results)
	}
}
