package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

// StoreRefreshToken implements internal/auth.Repository.
func (s *Store) StoreRefreshToken(rt models.RefreshToken) error {
	rt.ID = uuid.NewString()
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO refresh_tokens (id, user_id, token_hash, issued_at, expires_at)
		VALUES ($1,$2,$3,$4,$5)`,
		rt.ID, rt.UserID, rt.TokenHash, rt.IssuedAt, rt.ExpiresAt)
	return err
}

// RefreshTokenByUserAndHashCandidates implements internal/auth.Repository:
// returns every non-expired token row for a user so the caller can bcrypt-
// compare the presented plaintext against each candidate hash.
func (s *Store) RefreshTokenByUserAndHashCandidates(userID string) ([]models.RefreshToken, error) {
	rows, err := s.pool.Query(context.Background(), `
		SELECT id, user_id, token_hash, issued_at, expires_at, revoked_at
		FROM refresh_tokens
		WHERE user_id=$1 AND expires_at > now()`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RefreshToken
	for rows.Next() {
		var rt models.RefreshToken
		if err := rows.Scan(&rt.ID, &rt.UserID, &rt.TokenHash, &rt.IssuedAt, &rt.ExpiresAt, &rt.RevokedAt); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

// RevokeRefreshToken implements internal/auth.Repository.
func (s *Store) RevokeRefreshToken(id string) error {
	_, err := s.pool.Exec(context.Background(), `UPDATE refresh_tokens SET revoked_at=now() WHERE id=$1`, id)
	return err
}
