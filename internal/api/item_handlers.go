package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rwandatech/byaboneka-plus/internal/analyzer"
	"github.com/rwandatech/byaboneka-plus/internal/apperr"
	"github.com/rwandatech/byaboneka-plus/internal/auth"
	"github.com/rwandatech/byaboneka-plus/internal/queue"
	"github.com/rwandatech/byaboneka-plus/internal/secretstore"
	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

type qaPair struct {
	Q string `json:"q"`
	A string `json:"a"`
}

type createLostItemRequest struct {
	Category             models.Category `json:"category" binding:"required"`
	Title                string          `json:"title" binding:"required"`
	Description          string          `json:"description" binding:"required"`
	LocationArea         string          `json:"location_area" binding:"required"`
	LostDate             time.Time       `json:"lost_date" binding:"required"`
	VerificationQuestions []qaPair       `json:"verification_questions"`
}

func (req createLostItemRequest) validate() *apperr.Error {
	var fields []apperr.FieldError
	if len(req.Title) < 3 || len(req.Title) > 100 {
		fields = append(fields, apperr.FieldError{Field: "title", Message: "must be 3-100 characters"})
	}
	if len(req.Description) < 10 || len(req.Description) > 2000 {
		fields = append(fields, apperr.FieldError{Field: "description", Message: "must be 10-2000 characters"})
	}
	if len(req.VerificationQuestions) != 3 {
		fields = append(fields, apperr.FieldError{Field: "verification_questions", Message: "exactly 3 question/answer pairs are required"})
	}
	if len(fields) > 0 {
		return apperr.New(apperr.KindInvalidInput, "validation failed").WithFields(fields...)
	}
	return nil
}

func (h *Handler) handleCreateLostItem(c *gin.Context) {
	userID, _ := auth.UserIDFrom(c)

	var req createLostItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, h.log, apperr.New(apperr.KindInvalidInput, "invalid request body"))
		return
	}
	if verr := req.validate(); verr != nil {
		fail(c, h.log, verr)
		return
	}

	keywords := analyzer.ExtractKeywords(req.Title+" "+req.Description, string(req.Category))
	item, err := h.store.CreateLostItem(models.LostItem{
		OwnerID:      userID,
		Category:     req.Category,
		Title:        req.Title,
		Description:  req.Description,
		LocationArea: req.LocationArea,
		LostDate:     req.LostDate,
		Keywords:     keywords,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}

	var qas [3]secretstore.QA
	for i, p := range req.VerificationQuestions {
		qas[i] = secretstore.QA{Question: p.Q, Answer: p.A}
	}
	if err := h.secrets.Store(item.ID, qas); err != nil {
		fail(c, h.log, err)
		return
	}

	h.scheduleMatchRecompute(item.ID)
	ok(c, http.StatusCreated, item)
}

func (h *Handler) handleGetLostItem(c *gin.Context) {
	item, err := h.store.GetLostItem(c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, item)
}

func (h *Handler) handleLostItemMatches(c *gin.Context) {
	matches, err := h.matcher.MatchesForLostItem(c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, matches)
}

type createFoundItemRequest struct {
	Category      models.Category        `json:"category" binding:"required"`
	Title         string                  `json:"title" binding:"required"`
	Description   string                  `json:"description" binding:"required"`
	LocationArea  string                  `json:"location_area" binding:"required"`
	FoundDate     time.Time               `json:"found_date" binding:"required"`
	CooperativeID string                  `json:"cooperative_id"`
	ImageURLs     []string                `json:"image_urls"`
	Source        models.FoundItemSource  `json:"source"`
}

func (h *Handler) handleCreateFoundItem(c *gin.Context) {
	userID, _ := auth.UserIDFrom(c)

	var req createFoundItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, h.log, apperr.New(apperr.KindInvalidInput, "invalid request body"))
		return
	}
	if len(req.Title) < 3 || len(req.Title) > 100 {
		fail(c, h.log, apperr.New(apperr.KindInvalidInput, "title must be 3-100 characters"))
		return
	}
	if len(req.ImageURLs) > models.MaxImageURLs {
		req.ImageURLs = req.ImageURLs[:models.MaxImageURLs]
	}
	if req.Source == "" {
		req.Source = models.FoundSourceCitizen
	}

	keywords := analyzer.ExtractKeywords(req.Title+" "+req.Description, string(req.Category))
	item, err := h.store.CreateFoundItem(models.FoundItem{
		FinderID:      userID,
		CooperativeID: req.CooperativeID,
		Category:      req.Category,
		Title:         req.Title,
		Description:   req.Description,
		LocationArea:  req.LocationArea,
		FoundDate:     req.FoundDate,
		Keywords:      keywords,
		Source:        req.Source,
		ImageURLs:     req.ImageURLs,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}

	h.scheduleMatchRefresh()
	ok(c, http.StatusCreated, item)
}

func (h *Handler) handleGetFoundItem(c *gin.Context) {
	item, err := h.store.GetFoundItem(c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, item)
}

func (h *Handler) handleFoundItemMatches(c *gin.Context) {
	matches, err := h.matcher.MatchesForFoundItem(c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, http.StatusOK, matches)
}

// recentLostItemsRefreshCount is the "up to 20 recent candidate
// LostItems" refresh fan-out triggered by a new FoundItem.
const recentLostItemsRefreshCount = 20

// scheduleMatchRecompute and scheduleMatchRefresh push background
// matching work onto the bounded queue; scheduling failures are logged by
// the queue itself and never propagate to the publishing request.
func (h *Handler) scheduleMatchRecompute(lostItemID string) {
	h.queue.Enqueue(queue.Task{
		Name: "match_recompute:" + lostItemID,
		Run: func(ctx context.Context) error {
			_, err := h.matcher.RecomputeForLostItem(lostItemID)
			return err
		},
	})
}

func (h *Handler) scheduleMatchRefresh() {
	h.queue.Enqueue(queue.Task{
		Name: "match_refresh",
		Run: func(ctx context.Context) error {
			h.matcher.RefreshFromFoundItem(recentLostItemsRefreshCount)
			return nil
		},
	})
}
