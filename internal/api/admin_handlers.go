package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rwandatech/byaboneka-plus/internal/apperr"
	"github.com/rwandatech/byaboneka-plus/internal/auth"
	"github.com/rwandatech/byaboneka-plus/internal/trust"
	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

type resolveDisputeRequest struct {
	Resolution models.DisputeResolution `json:"resolution" binding:"required"`
}

func (h *Handler) handleResolveDispute(c *gin.Context) {
	adminID, _ := auth.UserIDFrom(c)
	var req resolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, h.log, apperr.New(apperr.KindInvalidInput, "invalid request body"))
		return
	}
	if err := h.machine.ResolveDispute(c.Param("id"), adminID, req.Resolution); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"resolved": true})
}

type banRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleBanUser(c *gin.Context) {
	h.setBanned(c, true)
}

func (h *Handler) handleUnbanUser(c *gin.Context) {
	h.setBanned(c, false)
}

func (h *Handler) setBanned(c *gin.Context, banned bool) {
	userID := c.Param("id")
	exists, err := h.store.UserExists(userID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if !exists {
		fail(c, h.log, apperr.New(apperr.KindNotFound, "user not found"))
		return
	}

	var req banRequest
	_ = c.ShouldBindJSON(&req)
	if err := h.store.SetBanned(userID, banned, req.Reason); err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"banned": banned})
}

type resolveScamReportRequest struct {
	Status models.ScamReportStatus `json:"status" binding:"required"`
}

// handleResolveScamReport closes out a pending scam report and applies
// the matching trust delta to the reported user and, for a confirmed
// report, a small credibility bump to the reporter.
func (h *Handler) handleResolveScamReport(c *gin.Context) {
	var req resolveScamReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, h.log, apperr.New(apperr.KindInvalidInput, "invalid request body"))
		return
	}
	if req.Status != models.ScamReportConfirmed && req.Status != models.ScamReportDismissed {
		fail(c, h.log, apperr.New(apperr.KindInvalidInput, "status must be confirmed or dismissed"))
		return
	}

	report, err := h.store.ScamReportByID(c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if report.Status != models.ScamReportPending {
		fail(c, h.log, apperr.New(apperr.KindConflict, "scam report is already resolved"))
		return
	}

	if err := h.store.ResolveScamReport(report.ID, req.Status); err != nil {
		fail(c, h.log, err)
		return
	}

	if req.Status == models.ScamReportConfirmed {
		if _, err := h.ledger.Apply(report.ReportedUserID, trust.ReasonScamConfirmed); err != nil && h.log != nil {
			h.log.Warnw("trust: failed to apply scam_confirmed delta", "userId", report.ReportedUserID, "error", err)
		}
		if _, err := h.ledger.Apply(report.ReporterUserID, trust.ReasonAccurateReportConfirmed); err != nil && h.log != nil {
			h.log.Warnw("trust: failed to apply accurate_report_confirmed delta", "userId", report.ReporterUserID, "error", err)
		}
	} else {
		if _, err := h.ledger.Apply(report.ReporterUserID, trust.ReasonFalseScamReport); err != nil && h.log != nil {
			h.log.Warnw("trust: failed to apply false_scam_report delta", "userId", report.ReporterUserID, "error", err)
		}
	}
	ok(c, http.StatusOK, gin.H{"status": req.Status})
}

func (h *Handler) handleRecomputeTrust(c *gin.Context) {
	userID := c.Param("id")
	recomputed, matches, err := h.ledger.Recalculate(userID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"score": recomputed, "matchesMaterializedScore": matches})
}

// handleAuditEvents serves either a claim-scoped listing (?claimId=) or
// a recent unscoped tail (?limit=, default 100).
func (h *Handler) handleAuditEvents(c *gin.Context) {
	if claimID := c.Query("claimId"); claimID != "" {
		events, err := h.store.AuditEventsForClaim(claimID)
		if err != nil {
			fail(c, h.log, err)
			return
		}
		ok(c, http.StatusOK, events)
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	events, err := h.store.RecentAuditEvents(limit)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, events)
}
