package matching

import (
	"time"

	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

// CandidateSource is the read-only view the Matching Engine needs of the
// item catalog. internal/db implements this against Postgres; tests can
// supply an in-memory fake.
type CandidateSource interface {
	// LostItemByID fetches the anchor lost item.
	LostItemByID(lostID string) (LostItemView, error)
	// FoundItemByID fetches the anchor found item.
	FoundItemByID(foundID string) (FoundItemView, error)
	// CandidateFoundItems returns up to MaxCandidatesPerPass unclaimed
	// found items of the given category within the candidate window of
	// anchorDate, most recent first.
	CandidateFoundItems(category string, anchorDate time.Time) ([]FoundItemView, error)
	// CandidateLostItems returns up to MaxCandidatesPerPass active lost
	// items of the given category within the candidate window of
	// anchorDate, most recent first.
	CandidateLostItems(category string, anchorDate time.Time) ([]LostItemView, error)
	// RecentLostItems returns up to n of the most recently published active
	// lost items, used to refresh candidates when a FoundItem publishes.
	RecentLostItems(n int) ([]LostItemView, error)
}

// LostItemView and FoundItemView are the scoring-relevant projections of
// the full entities, decoupling the scorer from the storage package.
type LostItemView struct {
	ID           string
	Category     string
	LocationArea string
	Date         time.Time
	Keywords     []string
}

type FoundItemView struct {
	ID           string
	Category     string
	LocationArea string
	Date         time.Time
	Keywords     []string
}

// CacheStore persists the per-lost-item match cache with a freshness stamp.
type CacheStore interface {
	// GetCached returns cached results for lostID if the cache row is
	// stamped within freshness, else ok is false.
	GetCached(lostID string, freshness time.Duration) (results []models.MatchResult, computedAt time.Time, ok bool, err error)
	// PutCached atomically replaces the cache row for lostID.
	PutCached(lostID string, results []models.MatchResult, computedAt time.Time) error
}
