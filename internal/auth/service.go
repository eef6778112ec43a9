package auth

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/rwandatech/byaboneka-plus/internal/apperr"
	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

// refreshTokenBytes is the entropy length of an opaque refresh token
// before hex-encoding.
const refreshTokenBytes = 32

// Repository is the persistence boundary internal/db implements.
type Repository interface {
	UserByEmail(email string) (models.User, error)
	UserByID(userID string) (models.User, error)
	CreateUser(u models.User) (models.User, error)

	StoreRefreshToken(rt models.RefreshToken) error
	RefreshTokenByUserAndHashCandidates(userID string) ([]models.RefreshToken, error)
	RevokeRefreshToken(id string) error
}

// Service issues sessions (access + refresh token pairs) and handles
// registration, login, and refresh-token rotation.
type Service struct {
	repo   Repository
	issuer *TokenIssuer
}

func NewService(repo Repository, issuer *TokenIssuer) *Service {
	return &Service{repo: repo, issuer: issuer}
}

// Session is the token pair returned to a client on login or refresh.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Register creates a new citizen account with a hashed password.
func (s *Service) Register(email, phone, password string) (models.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	return s.repo.CreateUser(models.User{
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Role:         models.RoleCitizen,
	})
}

// Login verifies credentials and issues a fresh session.
func (s *Service) Login(email, password string) (models.User, Session, error) {
	user, err := s.repo.UserByEmail(email)
	if err != nil {
		return models.User{}, Session{}, err
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return models.User{}, Session{}, apperr.New(apperr.KindUnauthenticated, "invalid email or password")
	}
	if user.IsBanned {
		return models.User{}, Session{}, apperr.New(apperr.KindBlocked, "account is banned: "+user.BanReason)
	}
	session, err := s.issueSession(user)
	return user, session, err
}

// Refresh rotates a presented refresh token for a new session, revoking
// the old one. Presenting an unknown or revoked token is rejected.
func (s *Service) Refresh(userID, presentedToken string) (Session, error) {
	candidates, err := s.repo.RefreshTokenByUserAndHashCandidates(userID)
	if err != nil {
		return Session{}, err
	}
	var match *models.RefreshToken
	for i := range candidates {
		c := candidates[i]
		if c.RevokedAt != nil || time.Now().After(c.ExpiresAt) {
			continue
		}
		if VerifyRefreshToken(c.TokenHash, presentedToken) {
			match = &candidates[i]
			break
		}
	}
	if match == nil {
		return Session{}, apperr.New(apperr.KindUnauthenticated, "invalid or expired refresh token")
	}

	user, err := s.repo.UserByID(userID)
	if err != nil {
		return Session{}, err
	}
	if user.IsBanned {
		return Session{}, apperr.New(apperr.KindBlocked, "account is banned: "+user.BanReason)
	}
	if err := s.repo.RevokeRefreshToken(match.ID); err != nil {
		return Session{}, err
	}
	return s.issueSession(user)
}

func (s *Service) issueSession(user models.User) (Session, error) {
	access, err := s.issuer.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return Session{}, err
	}

	plaintext, err := generateOpaqueToken()
	if err != nil {
		return Session{}, err
	}
	hash, err := HashRefreshToken(plaintext)
	if err != nil {
		return Session{}, err
	}
	expiresAt := time.Now().Add(RefreshTokenTTL)
	if err := s.repo.StoreRefreshToken(models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hash,
		IssuedAt:  time.Now(),
		ExpiresAt: expiresAt,
	}); err != nil {
		return Session{}, err
	}

	return Session{AccessToken: access, RefreshToken: plaintext, ExpiresAt: expiresAt}, nil
}

func generateOpaqueToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to generate refresh token", err)
	}
	return hex.EncodeToString(b), nil
}
