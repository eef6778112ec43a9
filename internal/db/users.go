package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rwandatech/byaboneka-plus/internal/apperr"
	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	var cooperativeID *string
	err := row.Scan(&u.ID, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.TrustScore,
		&u.EmailVerified, &u.PhoneVerified, &u.IsBanned, &u.BanReason, &cooperativeID,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return models.User{}, apperr.New(apperr.KindNotFound, "user not found")
		}
		return models.User{}, err
	}
	if cooperativeID != nil {
		u.CooperativeID = *cooperativeID
	}
	return u, nil
}

const userColumns = `id, email, phone, password_hash, role, trust_score, email_verified, phone_verified, is_banned, ban_reason, cooperative_id, created_at, updated_at`

// UserByEmail implements internal/auth.Repository.
func (s *Store) UserByEmail(email string) (models.User, error) {
	row := s.pool.QueryRow(context.Background(), `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	return scanUser(row)
}

// UserByID implements internal/auth.Repository and internal/verification.TierLookup support.
func (s *Store) UserByID(userID string) (models.User, error) {
	row := s.pool.QueryRow(context.Background(), `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	return scanUser(row)
}

// CreateUser implements internal/auth.Repository.
func (s *Store) CreateUser(u models.User) (models.User, error) {
	u.ID = uuid.NewString()
	now := time.Now()
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO users (id, email, phone, password_hash, role, trust_score, email_verified, phone_verified, is_banned, ban_reason, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,0,false,false,false,'',$6,$6)`,
		u.ID, u.Email, nullIfEmpty(u.Phone), u.PasswordHash, u.Role, now)
	if err != nil {
		return models.User{}, err
	}
	u.CreatedAt, u.UpdatedAt = now, now
	return u, nil
}

// TierForUser implements internal/verification.TierLookup, deriving a
// user's trust tier from their materialized trust_score column.
func (s *Store) TierForUser(userID string) (models.Tier, error) {
	var score int
	err := s.pool.QueryRow(context.Background(), `SELECT trust_score FROM users WHERE id=$1`, userID).Scan(&score)
	if err != nil {
		return "", err
	}
	return models.User{TrustScore: score}.TierFor(), nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
