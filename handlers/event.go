package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"splitfree/ledger"
	"splitfree/models"
	"splitfree/repository"
	"splitfree/utils"
)

// Shown for participants whose user record is gone.
const (
	unknownName        = "Unknown"
	unknownInitials    = "UN"
	unknownAvatarColor = "#999999"
)

// userDirectory memoises user lookups for the lifetime of one request.
type userDirectory struct {
	h     *Handler
	ctx   context.Context
	users map[uint]*models.User
}

func (h *Handler) directory(ctx context.Context) *userDirectory {
	return &userDirectory{h: h, ctx: ctx, users: make(map[uint]*models.User)}
}

func (d *userDirectory) get(id uint) *models.User {
	if u, ok := d.users[id]; ok {
		return u
	}
	u, err := d.h.store.Users.Get(d.ctx, id)
	if err != nil {
		u = nil
	}
	d.users[id] = u
	return u
}

func (d *userDirectory) participant(p models.Participant) models.ParticipantResponse {
	resp := models.ParticipantResponse{
		ID:            p.ID,
		UserID:        p.UserID,
		Name:          unknownName,
		Initials:      unknownInitials,
		AvatarColor:   unknownAvatarColor,
		Amount:        p.Amount,
		Status:        p.Status,
		PaymentMethod: p.PaymentMethod,
		PaidAt:        p.PaidAt,
	}
	if u := d.get(p.UserID); u != nil {
		resp.Name = u.Name
		resp.Initials = u.Initials
		resp.AvatarColor = u.AvatarColor
	}
	return resp
}

func (d *userDirectory) participants(event *models.Event) []models.ParticipantResponse {
	out := make([]models.ParticipantResponse, 0, len(event.Participants))
	for _, p := range event.Participants {
		out = append(out, d.participant(p))
	}
	return out
}

// eventResponse decorates event with participant identities, the group name
// and the viewer's own share.
func (h *Handler) eventResponse(d *userDirectory, event *models.Event, viewerID uint) models.EventResponse {
	resp := models.EventResponse{
		ID:               event.ID,
		Name:             event.Name,
		Icon:             event.Icon,
		IconBgColor:      event.IconBgColor,
		GroupID:          event.GroupID,
		Total:            event.Total,
		Status:           event.Status,
		ParticipantCount: len(event.Participants),
		Participants:     d.participants(event),
		CreatedByID:      event.CreatedByID,
		CreatedAt:        event.CreatedAt,
		UpdatedAt:        event.UpdatedAt,
	}
	if p := event.ParticipantFor(viewerID); p != nil {
		resp.MyShare = p.Amount
	}
	if event.GroupID != nil {
		if g, err := h.store.Groups.Get(d.ctx, *event.GroupID); err == nil {
			resp.GroupName = &g.Name
		}
	}
	return resp
}

// POST /api/events
func (h *Handler) CreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	userID := utils.GetCurrentUserID(c)
	if req.GroupID != nil {
		group, err := h.store.Groups.Get(ctx, *req.GroupID)
		if errors.Is(err, repository.ErrNotFound) {
			h.fail(c, &ledger.NotFoundError{Kind: "group", ID: *req.GroupID})
			return
		} else if err != nil {
			h.fail(c, err)
			return
		}
		if !group.HasMember(userID) {
			utils.Forbidden(c, "You are not a member of this group")
			return
		}
	}

	event, err := h.ledger.CreateEvent(ctx, ledger.CreateEventInput{
		Name:           req.Name,
		Icon:           req.Icon,
		IconBgColor:    req.IconBgColor,
		GroupID:        req.GroupID,
		Total:          req.Total,
		ParticipantIDs: req.ParticipantIDs,
		CreatorID:      userID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.eventResponse(h.directory(ctx), event, userID))
}

// GET /api/events/:id
func (h *Handler) GetEvent(c *gin.Context) {
	eventID, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	event, err := h.ledger.GetEvent(ctx, eventID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.eventResponse(h.directory(ctx), event, utils.GetCurrentUserID(c)))
}

// GET /api/events/:id/participants
func (h *Handler) GetParticipants(c *gin.Context) {
	eventID, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	event, err := h.ledger.GetEvent(ctx, eventID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.directory(ctx).participants(event))
}

// PUT /api/events/:id
func (h *Handler) UpdateEvent(c *gin.Context) {
	eventID, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	event, err := h.ledger.UpdateEvent(ctx, eventID, ledger.UpdateEventInput{
		Name:        req.Name,
		Icon:        req.Icon,
		IconBgColor: req.IconBgColor,
		Total:       req.Total,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.eventResponse(h.directory(ctx), event, utils.GetCurrentUserID(c)))
}

// DELETE /api/events/:id
func (h *Handler) DeleteEvent(c *gin.Context) {
	eventID, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.ledger.DeleteEvent(c.Request.Context(), eventID); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
