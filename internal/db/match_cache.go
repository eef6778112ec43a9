package db

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

// GetCached implements internal/matching.CacheStore.
func (s *Store) GetCached(lostID string, freshness time.Duration) ([]models.MatchResult, time.Time, bool, error) {
	var raw []byte
	var computedAt time.Time
	err := s.pool.QueryRow(context.Background(), `
		SELECT results, computed_at FROM match_cache WHERE lost_item_id=$1`, lostID,
	).Scan(&raw, &computedAt)
	if err == pgx.ErrNoRows {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, err
	}
	if time.Since(computedAt) > freshness {
		return nil, time.Time{}, false, nil
	}

	var results []models.MatchResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, time.Time{}, false, err
	}
	return results, computedAt, true, nil
}

// PutCached implements internal/matching.CacheStore, atomically replacing
// the cache row for lostID.
func (s *Store) PutCached(lostID string, results []models.MatchResult, computedAt time.Time) error {
	raw, err := json.Marshal(results)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(context.Background(), `
		INSERT INTO match_cache (lost_item_id, results, computed_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (lost_item_id) DO UPDATE SET results=EXCLUDED.results, computed_at=EXCLUDED.computed_at`,
		lostID, raw, computedAt)
	return err
}
