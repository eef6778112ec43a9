package matching

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

// CacheFreshness is how long a cache row is considered a hit.
const CacheFreshness = time.Hour

// Engine is the Matching Engine. It is read-mostly: scoring is a pure
// function, and results are advisory only — no state transition may
// require them.
type Engine struct {
	source CandidateSource
	cache  CacheStore
	log    *zap.SugaredLogger
}

func NewEngine(source CandidateSource, cache CacheStore, log *zap.SugaredLogger) *Engine {
	return &Engine{source: source, cache: cache, log: log}
}

// MatchesForLostItem returns up to MaxResults candidates for a lost item,
// using the cache when fresh, recomputing synchronously otherwise (a
// missing cache entry is never acceptable — ).
func (e *Engine) MatchesForLostItem(lostID string) ([]models.MatchResult, error) {
	if cached, _, ok, err := e.cache.GetCached(lostID, CacheFreshness); err != nil {
		return nil, err
	} else if ok {
		return cached, nil
	}
	return e.RecomputeForLostItem(lostID)
}

// RecomputeForLostItem runs a full scoring pass for a lost item and
// atomically replaces its cache row.
func (e *Engine) RecomputeForLostItem(lostID string) ([]models.MatchResult, error) {
	anchor, err := e.source.LostItemByID(lostID)
	if err != nil {
		return nil, err
	}

	candidates, err := e.source.CandidateFoundItems(anchor.Category, anchor.Date)
	if err != nil {
		return nil, err
	}
	if len(candidates) > MaxCandidatesPerPass {
		candidates = candidates[:MaxCandidatesPerPass]
	}

	lostPairable := pairable{
		Category:     models.Category(anchor.Category),
		LocationArea: anchor.LocationArea,
		Date:         anchor.Date,
		Keywords:     anchor.Keywords,
	}

	results := make([]models.MatchResult, 0, len(candidates))
	for _, c := range candidates {
		score, explanation := scorePair(lostPairable, pairable{
			Category:     models.Category(c.Category),
			LocationArea: c.LocationArea,
			Date:         c.Date,
			Keywords:     c.Keywords,
		})
		if score >= MinScore {
			results = append(results, models.MatchResult{
				CounterpartID: c.ID,
				Score:         score,
				Explanation:   explanation,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > MaxResults {
		results = results[:MaxResults]
	}

	now := time.Now()
	if err := e.cache.PutCached(lostID, results, now); err != nil {
		return nil, err
	}
	return results, nil
}

// MatchesForFoundItem returns up to MaxResults candidate LostItems for a
// FoundItem. Unlike the lost-item side, results are not cached (the cache
// row is keyed only by lost-item id); a found-item query is always
// computed fresh.
func (e *Engine) MatchesForFoundItem(foundID string) ([]models.MatchResult, error) {
	anchor, err := e.source.FoundItemByID(foundID)
	if err != nil {
		return nil, err
	}

	candidates, err := e.source.CandidateLostItems(anchor.Category, anchor.Date)
	if err != nil {
		return nil, err
	}
	if len(candidates) > MaxCandidatesPerPass {
		candidates = candidates[:MaxCandidatesPerPass]
	}

	foundPairable := pairable{
		Category:     models.Category(anchor.Category),
		LocationArea: anchor.LocationArea,
		Date:         anchor.Date,
		Keywords:     anchor.Keywords,
	}

	results := make([]models.MatchResult, 0, len(candidates))
	for _, c := range candidates {
		candidatePairable := pairable{
			Category:     models.Category(c.Category),
			LocationArea: c.LocationArea,
			Date:         c.Date,
			Keywords:     c.Keywords,
		}
		score, explanation := scorePair(candidatePairable, foundPairable)
		if score >= MinScore {
			results = append(results, models.MatchResult{
				CounterpartID: c.ID,
				Score:         score,
				Explanation:   explanation,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	return results, nil
}

// RefreshFromFoundItem recomputes matches for up to n recently published
// active lost items when a new FoundItem is published.
func (e *Engine) RefreshFromFoundItem(n int) {
	lostItems, err := e.source.RecentLostItems(n)
	if err != nil {
		if e.log != nil {
			e.log.Warnw("matching: failed to list recent lost items for refresh", "error", err)
		}
		return
	}
	for _, li := range lostItems {
		if _, err := e.RecomputeForLostItem(li.ID); err != nil && e.log != nil {
			e.log.Warnw("matching: recompute failed during refresh", "lostItemId", li.ID, "error", err)
		}
	}
}
