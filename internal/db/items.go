package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rwandatech/byaboneka-plus/internal/apperr"
	"github.com/rwandatech/byaboneka-plus/internal/matching"
	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

// CreateLostItem inserts a new LostItem, already carrying its derived
// keywords (computed by internal/analyzer at the API layer before the
// call reaches this store).
func (s *Store) CreateLostItem(item models.LostItem) (models.LostItem, error) {
	item.ID = uuid.NewString()
	now := time.Now()
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO lost_items (id, owner_id, category, title, description, location_area, lost_date, keywords, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,'active',$9,$9)`,
		item.ID, item.OwnerID, item.Category, item.Title, item.Description, item.LocationArea, item.LostDate, item.Keywords, now)
	if err != nil {
		return models.LostItem{}, err
	}
	item.Status = models.LostItemActive
	item.CreatedAt, item.UpdatedAt = now, now
	return item, nil
}

// CreateFoundItem inserts a new FoundItem, likewise pre-keyworded.
func (s *Store) CreateFoundItem(item models.FoundItem) (models.FoundItem, error) {
	item.ID = uuid.NewString()
	now := time.Now()
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO found_items (id, finder_id, cooperative_id, category, title, description, location_area, found_date, keywords, status, source, image_urls, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,'unclaimed',$9,$10,$11,$12,$12)`,
		item.ID, item.FinderID, nullIfEmpty(item.CooperativeID), item.Category, item.Title, item.Description,
		item.LocationArea, item.FoundDate, item.Keywords, item.Source, item.ImageURLs, now)
	if err != nil {
		return models.FoundItem{}, err
	}
	item.Status = models.FoundItemUnclaimed
	item.CreatedAt, item.UpdatedAt = now, now
	return item, nil
}

// LostItemOwnerAndStatus implements internal/verification.Repository.
func (s *Store) LostItemOwnerAndStatus(lostItemID string) (string, models.LostItemStatus, error) {
	var ownerID string
	var status models.LostItemStatus
	err := s.pool.QueryRow(context.Background(), `SELECT owner_id, status FROM lost_items WHERE id=$1`, lostItemID).Scan(&ownerID, &status)
	if err == pgx.ErrNoRows {
		return "", "", apperr.New(apperr.KindNotFound, "lost item not found")
	}
	return ownerID, status, err
}

// FoundItemStatus implements internal/verification.Repository.
func (s *Store) FoundItemStatus(foundItemID string) (models.FoundItemStatus, error) {
	var status models.FoundItemStatus
	err := s.pool.QueryRow(context.Background(), `SELECT status FROM found_items WHERE id=$1`, foundItemID).Scan(&status)
	if err == pgx.ErrNoRows {
		return "", apperr.New(apperr.KindNotFound, "found item not found")
	}
	return status, err
}

// FoundItemFinderAndCooperative implements internal/handover.Repository
// and internal/claims.Repository.
func (s *Store) FoundItemFinderAndCooperative(foundItemID string) (string, string, error) {
	var finderID string
	var coopID *string
	err := s.pool.QueryRow(context.Background(), `SELECT finder_id, cooperative_id FROM found_items WHERE id=$1`, foundItemID).Scan(&finderID, &coopID)
	if err == pgx.ErrNoRows {
		return "", "", apperr.New(apperr.KindNotFound, "found item not found")
	}
	if err != nil {
		return "", "", err
	}
	if coopID == nil {
		return finderID, "", nil
	}
	return finderID, *coopID, nil
}

// UserIsCoopStaffOf implements internal/handover.Repository.
func (s *Store) UserIsCoopStaffOf(userID, cooperativeID string) (bool, error) {
	var role models.Role
	var userCoopID *string
	err := s.pool.QueryRow(context.Background(), `SELECT role, cooperative_id FROM users WHERE id=$1`, userID).Scan(&role, &userCoopID)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return role == models.RoleCoopStaff && userCoopID != nil && *userCoopID == cooperativeID, nil
}

// --- internal/matching.CandidateSource ---

// LostItemByID implements internal/matching.CandidateSource.
func (s *Store) LostItemByID(id string) (matching.LostItemView, error) {
	var v matching.LostItemView
	var category models.Category
	err := s.pool.QueryRow(context.Background(), `
		SELECT id, category, location_area, lost_date, keywords FROM lost_items WHERE id=$1`, id,
	).Scan(&v.ID, &category, &v.LocationArea, &v.Date, &v.Keywords)
	if err == pgx.ErrNoRows {
		return matching.LostItemView{}, apperr.New(apperr.KindNotFound, "lost item not found")
	}
	v.Category = string(category)
	return v, err
}

// FoundItemByID implements internal/matching.CandidateSource.
func (s *Store) FoundItemByID(id string) (matching.FoundItemView, error) {
	var v matching.FoundItemView
	var category models.Category
	err := s.pool.QueryRow(context.Background(), `
		SELECT id, category, location_area, found_date, keywords FROM found_items WHERE id=$1`, id,
	).Scan(&v.ID, &category, &v.LocationArea, &v.Date, &v.Keywords)
	if err == pgx.ErrNoRows {
		return matching.FoundItemView{}, apperr.New(apperr.KindNotFound, "found item not found")
	}
	v.Category = string(category)
	return v, err
}

// CandidateFoundItems implements internal/matching.CandidateSource: same
// category, Unclaimed status, within the ±7 day window, most recent
// first, capped 
func (s *Store) CandidateFoundItems(category string, anchorDate time.Time) ([]matching.FoundItemView, error) {
	rows, err := s.pool.Query(context.Background(), `
		SELECT id, category, location_area, found_date, keywords
		FROM found_items
		WHERE status='unclaimed' AND category=$1
		  AND found_date BETWEEN $2 AND $3
		ORDER BY found_date DESC
		LIMIT 100`,
		category, anchorDate.Add(-7*24*time.Hour), anchorDate.Add(7*24*time.Hour))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []matching.FoundItemView
	for rows.Next() {
		var v matching.FoundItemView
		var c models.Category
		if err := rows.Scan(&v.ID, &c, &v.LocationArea, &v.Date, &v.Keywords); err != nil {
			return nil, err
		}
		v.Category = string(c)
		out = append(out, v)
	}
	return out, rows.Err()
}

// CandidateLostItems implements internal/matching.CandidateSource (used
// when matching is triggered from the FoundItem side).
func (s *Store) CandidateLostItems(category string, anchorDate time.Time) ([]matching.LostItemView, error) {
	rows, err := s.pool.Query(context.Background(), `
		SELECT id, category, location_area, lost_date, keywords
		FROM lost_items
		WHERE status='active' AND category=$1
		  AND lost_date BETWEEN $2 AND $3
		ORDER BY lost_date DESC
		LIMIT 100`,
		category, anchorDate.Add(-7*24*time.Hour), anchorDate.Add(7*24*time.Hour))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []matching.LostItemView
	for rows.Next() {
		var v matching.LostItemView
		var c models.Category
		if err := rows.Scan(&v.ID, &c, &v.LocationArea, &v.Date, &v.Keywords); err != nil {
			return nil, err
		}
		v.Category = string(c)
		out = append(out, v)
	}
	return out, rows.Err()
}

// RecentLostItems implements internal/matching.CandidateSource: the up-to-
// 20 recent active LostItems refreshed when a new FoundItem is published.
func (s *Store) RecentLostItems(n int) ([]matching.LostItemView, error) {
	rows, err := s.pool.Query(context.Background(), `
		SELECT id, category, location_area, lost_date, keywords
		FROM lost_items
		WHERE status='active'
		ORDER BY created_at DESC
		LIMIT $1`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []matching.LostItemView
	for rows.Next() {
		var v matching.LostItemView
		var c models.Category
		if err := rows.Scan(&v.ID, &c, &v.LocationArea, &v.Date, &v.Keywords); err != nil {
			return nil, err
		}
		v.Category = string(c)
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetLostItem fetches the full LostItem record for the detail endpoint
// (distinct from LostItemByID's matching.LostItemView projection).
func (s *Store) GetLostItem(id string) (models.LostItem, error) {
	var v models.LostItem
	err := s.pool.QueryRow(context.Background(), `
		SELECT id, owner_id, category, title, description, location_area, lost_date, keywords, status, created_at, updated_at
		FROM lost_items WHERE id=$1`, id,
	).Scan(&v.ID, &v.OwnerID, &v.Category, &v.Title, &v.Description, &v.LocationArea, &v.LostDate, &v.Keywords, &v.Status, &v.CreatedAt, &v.UpdatedAt)
	if err == pgx.ErrNoRows {
		return models.LostItem{}, apperr.New(apperr.KindNotFound, "lost item not found")
	}
	return v, err
}

// GetFoundItem fetches the full FoundItem record for the detail endpoint.
func (s *Store) GetFoundItem(id string) (models.FoundItem, error) {
	var v models.FoundItem
	var coopID *string
	err := s.pool.QueryRow(context.Background(), `
		SELECT id, finder_id, cooperative_id, category, title, description, location_area, found_date, keywords, status, source, image_urls, created_at, updated_at
		FROM found_items WHERE id=$1`, id,
	).Scan(&v.ID, &v.FinderID, &coopID, &v.Category, &v.Title, &v.Description, &v.LocationArea, &v.FoundDate, &v.Keywords, &v.Status, &v.Source, &v.ImageURLs, &v.CreatedAt, &v.UpdatedAt)
	if err == pgx.ErrNoRows {
		return models.FoundItem{}, apperr.New(apperr.KindNotFound, "found item not found")
	}
	if err != nil {
		return models.FoundItem{}, err
	}
	if coopID != nil {
		v.CooperativeID = *coopID
	}
	return v, nil
}
