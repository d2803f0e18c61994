package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"splitfree/models"
	"splitfree/utils"
)

// PUT /api/events/:id/participants/:participantId/pay
func (h *Handler) PayParticipant(c *gin.Context) {
	eventID, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}
	participantID, ok := utils.ParseID(c, "participantId")
	if !ok {
		return
	}

	// The body is optional; an empty one records no payment method.
	var req models.PayParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	participant, err := h.ledger.MarkParticipantPaid(ctx, eventID, participantID, req.PaymentMethod)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.directory(ctx).participant(*participant))
}

// PUT /api/events/:id/settle
func (h *Handler) SettleEvent(c *gin.Context) {
	eventID, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	event, err := h.ledger.SettleEvent(ctx, eventID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.eventResponse(h.directory(ctx), event, utils.GetCurrentUserID(c)))
}

// POST /api/events/:id/remind
func (h *Handler) RemindEvent(c *gin.Context) {
	eventID, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}

	count, err := h.ledger.RemindPending(c.Request.Context(), eventID)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, fmt.Sprintf("Reminder sent to %d pending participants", count), nil)
}
