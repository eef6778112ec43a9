package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rwandatech/byaboneka-plus/internal/apperr"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, h.log, apperr.New(apperr.KindInvalidInput, "invalid request body"))
		return
	}
	user, err := h.authSvc.Register(req.Email, req.Phone, req.Password)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"userId": user.ID, "email": user.Email})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, h.log, apperr.New(apperr.KindInvalidInput, "invalid request body"))
		return
	}
	user, session, err := h.authSvc.Login(req.Email, req.Password)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"userId":       user.ID,
		"accessToken":  session.AccessToken,
		"refreshToken": session.RefreshToken,
		"expiresAt":    session.ExpiresAt,
	})
}

type refreshRequest struct {
	UserID       string `json:"userId" binding:"required"`
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (h *Handler) handleRefresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, h.log, apperr.New(apperr.KindInvalidInput, "invalid request body"))
		return
	}
	session, err := h.authSvc.Refresh(req.UserID, req.RefreshToken)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"accessToken":  session.AccessToken,
		"refreshToken": session.RefreshToken,
		"expiresAt":    session.ExpiresAt,
	})
}

// handleLogout is a client-side token discard plus best-effort refresh
// revocation; the access token itself is stateless and simply expires.
func (h *Handler) handleLogout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
		_, _ = h.authSvc.Refresh(req.UserID, req.RefreshToken)
	}
	ok(c, http.StatusOK, gin.H{"loggedOut": true})
}

// handleForgotPassword and handleResetPassword are stubbed to the
// expected request/response contract without an email/SMS delivery side
// channel, which is out of scope for this module (no mail transport is
// wired in).
func (h *Handler) handleForgotPassword(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"message": "if the account exists, reset instructions have been sent"})
}

func (h *Handler) handleResetPassword(c *gin.Context) {
	fail(c, h.log, apperr.New(apperr.KindInvalidInput, "password reset requires a delivered reset token; none is configured"))
}
