package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"splitfree/models"
	"splitfree/repository"
	"splitfree/utils"
)

type UpdateProfileRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" binding:"omitempty,email"`
	Phone *string `json:"phone"`
}

type UpdateFCMTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// GET /api/users/me
func (h *Handler) GetProfile(c *gin.Context) {
	user, err := h.store.Users.Get(c.Request.Context(), utils.GetCurrentUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user.ToResponse())
}

// PUT /api/users/me
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := h.store.Users.Get(ctx, utils.GetCurrentUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			utils.BadRequest(c, "Name must not be empty")
			return
		}
		user.Name = name
		user.Initials = models.Initials(name)
		user.AvatarColor = models.AvatarColor(name)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		taken, err := h.store.Users.GetByEmail(ctx, email)
		switch {
		case err == nil && taken.ID != user.ID:
			utils.Conflict(c, "Email already in use")
			return
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			h.fail(c, err)
			return
		}
		user.Email = email
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}

	if err := h.store.Users.Save(ctx, user); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user.ToResponse())
}

// PUT /api/users/me/fcm-token
func (h *Handler) UpdateFCMToken(c *gin.Context) {
	var req UpdateFCMTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := h.store.Users.Get(ctx, utils.GetCurrentUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	user.FCMToken = req.Token
	if err := h.store.Users.Save(ctx, user); err != nil {
		h.fail(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "FCM token updated", nil)
}

// GET /api/users/find?code=
func (h *Handler) FindUser(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		utils.BadRequest(c, "Code required")
		return
	}

	user, err := h.store.Users.GetByFriendCode(c.Request.Context(), code)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user.ToPublicProfile())
}
