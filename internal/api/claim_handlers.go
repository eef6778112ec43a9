package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rwandatech/byaboneka-plus/internal/apperr"
	"github.com/rwandatech/byaboneka-plus/internal/auth"
	"github.com/rwandatech/byaboneka-plus/internal/fraud"
	"github.com/rwandatech/byaboneka-plus/internal/trust"
	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

type createClaimRequest struct {
	LostItemID  string `json:"lost_item_id" binding:"required"`
	FoundItemID string `json:"found_item_id" binding:"required"`
}

// handleCreateClaim gates claim creation on the claimant's tier claim_cap
// and a fraud-scorer pass before delegating the transition itself to the
// claim state machine.
func (h *Handler) handleCreateClaim(c *gin.Context) {
	userID, _ := auth.UserIDFrom(c)

	var req createClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, h.log, apperr.New(apperr.KindInvalidInput, "invalid request body"))
		return
	}

	user, err := h.store.UserByID(userID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	caps := models.CapsFor(user.TierFor())
	openCount, err := h.store.CountNonTerminalClaimsByUser(userID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if openCount >= caps.ClaimCap {
		fail(c, h.log, apperr.New(apperr.KindConflict, "claim_cap reached for your current trust tier"))
		return
	}

	assessment := h.scoreFraud(fraud.ActionOpenClaim, userID, user)
	_ = h.store.AppendFraudEvent(models.FraudEvent{
		UserID: userID, Action: string(fraud.ActionOpenClaim), Score: assessment.Score,
		Level: string(assessment.Level), ShouldBlock: assessment.ShouldBlock, Factors: assessment.Factors,
	})
	if assessment.ShouldBlock {
		fail(c, h.log, apperr.New(apperr.KindBlocked, "this action has been blocked pending review"))
		return
	}

	claim, err := h.machine.OpenClaim(req.LostItemID, req.FoundItemID, userID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusCreated, claim)
}

// scoreFraud assembles a best-effort fraud.Context from the signals
// internal/db can currently surface; it never fails the request on a
// signal-lookup error, it simply omits that signal (an allow-leaning
// degradation, logged for investigation).
func (h *Handler) scoreFraud(action fraud.Action, userID string, user models.User) fraud.Assessment {
	ctx := fraud.Context{
		Account: fraud.AccountContext{
			AccountAge:    time.Since(user.CreatedAt).Hours(),
			EmailVerified: user.EmailVerified,
			PhoneVerified: user.PhoneVerified,
		},
		TrustScore: user.TrustScore,
	}

	if failedToday, err := h.store.FailedAttemptsByUserSince(userID, time.Now().Add(-24*time.Hour)); err == nil {
		ctx.History.FailedAttemptsLast24h = failedToday
	} else if h.log != nil {
		h.log.Warnw("fraud: failed to load 24h failed-attempt signal", "userId", userID, "error", err)
	}
	if distinct, err := h.store.FailedAcrossDistinctItems7d(userID); err == nil {
		ctx.History.FailedAcrossDistinctItems7d = distinct
	} else if h.log != nil {
		h.log.Warnw("fraud: failed to load 7d distinct-item signal", "userId", userID, "error", err)
	}
	if claimsLastHour, err := h.store.ClaimCreationsLastHour(userID); err == nil {
		ctx.Velocity.ClaimCreationsLastHour = claimsLastHour
	} else if h.log != nil {
		h.log.Warnw("fraud: failed to load claim-velocity signal", "userId", userID, "error", err)
	}

	return fraud.Score(action, ctx)
}

func (h *Handler) handleClaimQuestions(c *gin.Context) {
	userID, _ := auth.UserIDFrom(c)
	questions, err := h.machine.FetchQuestions(c.Param("id"), userID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"questions": questions})
}

type verifyClaimRequest struct {
	Answers [3]string `json:"answers" binding:"required"`
}

func (h *Handler) handleVerifyClaim(c *gin.Context) {
	userID, _ := auth.UserIDFrom(c)
	var req verifyClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, h.log, apperr.New(apperr.KindInvalidInput, "invalid request body"))
		return
	}
	outcome, err := h.machine.Verify(c.Param("id"), userID, req.Answers, c.ClientIP())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, outcome)
}

func (h *Handler) handleCancelClaim(c *gin.Context) {
	userID, _ := auth.UserIDFrom(c)
	if err := h.machine.Cancel(c.Param("id"), userID); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"cancelled": true})
}

func (h *Handler) handleMintHandover(c *gin.Context) {
	userID, _ := auth.UserIDFrom(c)
	otp, err := h.machine.MintHandover(c.Param("id"), userID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"otp": otp})
}

type redeemHandoverRequest struct {
	OTP string `json:"otp" binding:"required"`
}

func (h *Handler) handleRedeemHandover(c *gin.Context) {
	userID, _ := auth.UserIDFrom(c)
	var req redeemHandoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, h.log, apperr.New(apperr.KindInvalidInput, "invalid request body"))
		return
	}
	outcome, err := h.machine.RedeemHandover(c.Param("id"), userID, req.OTP)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, outcome)
}

func (h *Handler) handleHandoverStatus(c *gin.Context) {
	userID, _ := auth.UserIDFrom(c)
	status, err := h.machine.HandoverStatus(c.Param("id"), userID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, status)
}

type raiseDisputeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *Handler) handleRaiseDispute(c *gin.Context) {
	userID, _ := auth.UserIDFrom(c)
	var req raiseDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, h.log, apperr.New(apperr.KindInvalidInput, "invalid request body"))
		return
	}
	dispute, err := h.machine.RaiseDispute(c.Param("id"), userID, req.Reason)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusCreated, dispute)
}

type createScamReportRequest struct {
	ReportedUserID string `json:"reported_user_id" binding:"required"`
	Reason         string `json:"reason" binding:"required"`
}

// handleCreateScamReport enforces the reporter's tier report_cap before
// persisting the accusation and applying the immediate reputational
// penalty to the reported user.
func (h *Handler) handleCreateScamReport(c *gin.Context) {
	userID, _ := auth.UserIDFrom(c)
	var req createScamReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, h.log, apperr.New(apperr.KindInvalidInput, "invalid request body"))
		return
	}
	if req.ReportedUserID == userID {
		fail(c, h.log, apperr.New(apperr.KindInvalidInput, "cannot report yourself"))
		return
	}

	user, err := h.store.UserByID(userID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	caps := models.CapsFor(user.TierFor())
	reportedToday, err := h.store.CountReportsByUserLastDay(userID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if reportedToday >= caps.ReportCap {
		fail(c, h.log, apperr.New(apperr.KindConflict, "report_cap reached for your current trust tier"))
		return
	}

	report, err := h.store.CreateScamReport(models.ScamReport{
		ReportedUserID: req.ReportedUserID,
		ReporterUserID: userID,
		Reason:         req.Reason,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if _, err := h.ledger.Apply(req.ReportedUserID, trust.ReasonScamReported); err != nil && h.log != nil {
		h.log.Warnw("trust: failed to apply scam_reported delta", "userId", req.ReportedUserID, "error", err)
	}
	ok(c, http.StatusCreated, report)
}
