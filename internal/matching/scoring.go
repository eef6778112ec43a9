// Package matching implements a deterministic, explainable scorer over
// candidate (lost, found) pairs, with a TTL cache and a bounded,
// asynchronous scheduling trigger.
//
// Scoring follows an "accumulate named signals into an int, keep a
// parallel []string of explanations" shape, the same one
// internal/heuristics/realtime_risk.go's ScoreTransaction uses.
package matching

import (
	"math"
	"time"

	"github.com/rwandatech/byaboneka-plus/internal/analyzer"
	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

// MinScore is the minimum score for a candidate to be reported.
const MinScore = 5

// MaxResults is the maximum number of results returned per scoring pass.
const MaxResults = 5

// candidateWindow bounds how far apart the anchor and candidate dates may
// be before a candidate is not even considered.
const candidateWindow = 7 * 24 * time.Hour

// MaxCandidatesPerPass caps how many counterparts are scored in one pass.
const MaxCandidatesPerPass = 100

// pairable holds the fields scoring needs from either a LostItem or a
// FoundItem, so scorePair does not care which side is the anchor.
type pairable struct {
	Category     models.Category
	LocationArea string
	Date         time.Time
	Keywords     []string
}

func fromLost(l models.LostItem) pairable {
	return pairable{Category: l.Category, LocationArea: l.LocationArea, Date: l.LostDate, Keywords: l.Keywords}
}

func fromFound(f models.FoundItem) pairable {
	return pairable{Category: f.Category, LocationArea: f.LocationArea, Date: f.FoundDate, Keywords: f.Keywords}
}

// ScoreLostFound scores a (lost, found) pair and returns the
// additive score plus its ordered explanation.
func ScoreLostFound(lost models.LostItem, found models.FoundItem) (int, []string) {
	return scorePair(fromLost(lost), fromFound(found))
}

func scorePair(lost, found pairable) (int, []string) {
	if lost.Category != found.Category {
		return 0, []string{"Category mismatch"}
	}

	score := 0
	explanation := make([]string, 0, 6)

	score += 5
	explanation = append(explanation, "Category match")

	switch analyzer.LocationDistance(lost.LocationArea, found.LocationArea) {
	case 0:
		score += 5
		explanation = append(explanation, "Same location")
	case 1:
		score += 3
		explanation = append(explanation, "Adjacent location")
	case 2:
		score += 1
		explanation = append(explanation, "Same district")
	}

	delta := found.Date.Sub(lost.Date)
	if delta >= 0 || math.Abs(delta.Hours()) <= 24 {
		hours := math.Abs(delta.Hours())
		switch {
		case hours <= 24:
			score += 3
			explanation = append(explanation, "Within 24 hours")
		case hours <= 72:
			score += 2
			explanation = append(explanation, "Within 72 hours")
		case hours <= 168:
			score += 1
			explanation = append(explanation, "Within 1 week")
		}
	}

	overlap := analyzer.OverlapCount(lost.Keywords, found.Keywords)
	if overlap > 0 {
		bonus := overlap
		if bonus > 5 {
			bonus = 5
		}
		score += bonus
		explanation = append(explanation, "Keyword overlap")
	}

	return score, explanation
}
