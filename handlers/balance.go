package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"splitfree/utils"
)

// GET /api/users/me/balance
func (h *Handler) GetBalance(c *gin.Context) {
	balance, err := h.balances.Dashboard(c.Request.Context(), utils.GetCurrentUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

// GET /api/users/me/stats
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.balances.Stats(c.Request.Context(), utils.GetCurrentUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GET /api/events/:id/summary
func (h *Handler) GetEventSummary(c *gin.Context) {
	eventID, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}

	summary, err := h.balances.Summary(c.Request.Context(), eventID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GET /api/pool/split
func (h *Handler) GetSplit(c *gin.Context) {
	split, err := h.balances.Split(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, split)
}
