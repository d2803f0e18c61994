package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"splitfree/ledger"
	"splitfree/models"
	"splitfree/utils"
)

// GET /api/events/recent
// The current user's events, newest first.
func (h *Handler) GetRecentEvents(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	limit := utils.LimitQuery(c, ledger.DefaultRecentLimit)

	ctx := c.Request.Context()
	events, err := h.ledger.RecentEvents(ctx, userID, limit)
	if err != nil {
		h.fail(c, err)
		return
	}

	d := h.directory(ctx)
	out := make([]models.EventResponse, 0, len(events))
	for i := range events {
		out = append(out, h.eventResponse(d, &events[i], userID))
	}
	c.JSON(http.StatusOK, out)
}
