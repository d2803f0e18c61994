package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"splitfree/balance"
	"splitfree/config"
	"splitfree/ledger"
	"splitfree/logging"
	"splitfree/middleware"
	"splitfree/models"
	"splitfree/repository"
	"splitfree/services"
	"splitfree/utils"
)

// Inviter e-mails people who do not have an account yet.
type Inviter interface {
	SendInvitation(ctx context.Context, inviter models.User, email string) error
}

// Handler serves the HTTP API on top of the ledger, the pool and the
// balance aggregator.
type Handler struct {
	cfg      *config.Config
	store    *repository.Store
	ledger   *ledger.Ledger
	pool     *ledger.Pool
	balances *balance.Aggregator
	sessions *services.TokenBlacklist
	invites  Inviter
	log      *slog.Logger
}

func New(cfg *config.Config, store *repository.Store, l *ledger.Ledger, pool *ledger.Pool, balances *balance.Aggregator, sessions *services.TokenBlacklist, invites Inviter, log *slog.Logger) *Handler {
	return &Handler{
		cfg:      cfg,
		store:    store,
		ledger:   l,
		pool:     pool,
		balances: balances,
		sessions: sessions,
		invites:  invites,
		log:      logging.Component(log, "handlers"),
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": h.cfg.AppName,
		})
	})

	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}

	api := r.Group("/api")
	api.Use(middleware.AuthRequired(h.cfg.JWTSecret, h.sessions))
	{
		api.POST("/auth/logout", h.Logout)
		api.POST("/auth/change-password", h.ChangePassword)

		// Users
		api.GET("/users/me", h.GetProfile)
		api.PUT("/users/me", h.UpdateProfile)
		api.PUT("/users/me/fcm-token", h.UpdateFCMToken)
		api.GET("/users/me/balance", h.GetBalance)
		api.GET("/users/me/stats", h.GetStats)
		api.GET("/users/find", h.FindUser)

		// Friends
		api.GET("/friends", h.GetFriends)
		api.POST("/friends", h.AddFriend)
		api.POST("/friends/invite", h.InviteFriend)
		api.POST("/friends/request", h.SendFriendRequest)
		api.GET("/friends/requests", h.GetFriendRequests)
		api.PUT("/friends/requests/:id", h.RespondFriendRequest)
		api.DELETE("/friends/:id", h.RemoveFriend)

		// Groups
		api.GET("/groups", h.GetGroups)
		api.POST("/groups", h.CreateGroup)
		api.GET("/groups/:id", h.GetGroup)
		api.PUT("/groups/:id", h.UpdateGroup)
		api.DELETE("/groups/:id", h.DeleteGroup)
		api.POST("/groups/:id/members", h.AddMember)
		api.DELETE("/groups/:id/members/:memberId", h.RemoveMember)

		// Events
		api.GET("/events/recent", h.GetRecentEvents)
		api.POST("/events", h.CreateEvent)
		api.GET("/events/:id", h.GetEvent)
		api.PUT("/events/:id", h.UpdateEvent)
		api.DELETE("/events/:id", h.DeleteEvent)
		api.GET("/events/:id/summary", h.GetEventSummary)
		api.GET("/events/:id/participants", h.GetParticipants)
		api.PUT("/events/:id/participants/:participantId/pay", h.PayParticipant)
		api.PUT("/events/:id/settle", h.SettleEvent)
		api.POST("/events/:id/remind", h.RemindEvent)

		// Pool
		api.GET("/pool/people", h.GetPeople)
		api.POST("/pool/people", h.CreatePerson)
		api.GET("/pool/expenses", h.GetExpenses)
		api.POST("/pool/expenses", h.CreateExpense)
		api.GET("/pool/split", h.GetSplit)
	}
}

// fail maps domain errors to status codes. Anything unrecognised is logged
// and reported as a 500 without detail.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case ledger.IsInvalidInput(err):
		utils.BadRequest(c, err.Error())
	case ledger.IsNotFound(err):
		utils.NotFound(c, err.Error())
	case ledger.IsConflict(err):
		utils.Conflict(c, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		utils.NotFound(c, "Not found")
	default:
		h.log.Error("❌ request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		utils.InternalError(c, "Internal server error")
	}
}
