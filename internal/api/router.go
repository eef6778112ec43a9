package api

import (
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"

	"github.com/rwandatech/byaboneka-plus/internal/auth"
	"github.com/rwandatech/byaboneka-plus/internal/claims"
	"github.com/rwandatech/byaboneka-plus/internal/db"
	"github.com/rwandatech/byaboneka-plus/internal/matching"
	"github.com/rwandatech/byaboneka-plus/internal/queue"
	"github.com/rwandatech/byaboneka-plus/internal/secretstore"
	"github.com/rwandatech/byaboneka-plus/internal/trust"
	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

// Handler holds every wired subsystem a route handler may need.
type Handler struct {
	store    *db.Store
	authSvc  *auth.Service
	issuer   *auth.TokenIssuer
	machine  *claims.Machine
	matcher  *matching.Engine
	secrets  *secretstore.Store
	ledger   *trust.Ledger
	queue    *queue.Queue
	log      *zap.SugaredLogger
}

// SetupRouter wires every Byaboneka+ Core subsystem into a gin.Engine:
// one CORS middleware up front, a public group, and a
// bearer-token-protected group carrying its own rate limiter.
func SetupRouter(store *db.Store, authSvc *auth.Service, issuer *auth.TokenIssuer, machine *claims.Machine,
	matcher *matching.Engine, secrets *secretstore.Store, ledger *trust.Ledger, q *queue.Queue, hub *Hub, log *zap.SugaredLogger) *gin.Engine {

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	h := &Handler{store: store, authSvc: authSvc, issuer: issuer, machine: machine, matcher: matcher, secrets: secrets, ledger: ledger, queue: q, log: log}

	pub := r.Group("/api/v1")
	{
		pub.GET("/health", h.handleHealth)
		pub.GET("/stream", hub.Subscribe)

		pub.POST("/auth/register", h.handleRegister)
		pub.POST("/auth/login", h.handleLogin)
		pub.POST("/auth/refresh", h.handleRefresh)
		pub.POST("/auth/logout", h.handleLogout)
		pub.POST("/auth/forgot-password", h.handleForgotPassword)
		pub.POST("/auth/reset-password", h.handleResetPassword)
	}

	protected := r.Group("/api/v1")
	protected.Use(auth.Middleware(issuer))
	protected.Use(NewRateLimiter(60, 10).Middleware())
	{
		protected.POST("/lost-items", h.handleCreateLostItem)
		protected.GET("/lost-items/:id", h.handleGetLostItem)
		protected.GET("/lost-items/:id/matches", h.handleLostItemMatches)

		protected.POST("/found-items", h.handleCreateFoundItem)
		protected.GET("/found-items/:id", h.handleGetFoundItem)
		protected.GET("/found-items/:id/matches", h.handleFoundItemMatches)

		protected.POST("/claims", h.handleCreateClaim)
		protected.GET("/claims/:id/questions", h.handleClaimQuestions)
		protected.POST("/claims/:id/verify", h.handleVerifyClaim)
		protected.POST("/claims/:id/cancel", h.handleCancelClaim)

		protected.POST("/claims/:id/handover/otp", h.handleMintHandover)
		protected.POST("/claims/:id/handover/verify", h.handleRedeemHandover)
		protected.GET("/claims/:id/handover", h.handleHandoverStatus)

		protected.POST("/claims/:id/dispute", h.handleRaiseDispute)

		protected.POST("/scam-reports", h.handleCreateScamReport)

		admin := protected.Group("/admin")
		admin.Use(auth.RequireRole(models.RoleAdmin))
		{
			admin.POST("/disputes/:id/resolve", h.handleResolveDispute)
			admin.POST("/users/:id/ban", h.handleBanUser)
			admin.POST("/users/:id/unban", h.handleUnbanUser)
			admin.POST("/scam-reports/:id/resolve", h.handleResolveScamReport)
			admin.POST("/users/:id/trust/recompute", h.handleRecomputeTrust)
			admin.GET("/audit-events", h.handleAuditEvents)
		}
	}

	return r
}

func (h *Handler) handleHealth(c *gin.Context) {
	ok(c, 200, gin.H{"status": "operational", "service": "byaboneka-plus"})
}
