package handlers

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"splitfree/models"
	"splitfree/repository"
	"splitfree/utils"
)

func friendRequestResponse(d *userDirectory, r models.FriendRequest) models.FriendRequestResponse {
	resp := models.FriendRequestResponse{
		ID:                  r.ID,
		FromUserID:          r.FromUserID,
		FromUserName:        unknownName,
		FromUserInitials:    unknownInitials,
		FromUserAvatarColor: unknownAvatarColor,
		ToUserID:            r.ToUserID,
		Status:              r.Status,
		CreatedAt:           r.CreatedAt,
	}
	if u := d.get(r.FromUserID); u != nil {
		resp.FromUserName = u.Name
		resp.FromUserInitials = u.Initials
		resp.FromUserAvatarColor = u.AvatarColor
	}
	return resp
}

// POST /api/friends/request
func (h *Handler) SendFriendRequest(c *gin.Context) {
	var req models.SendFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Friend code required")
		return
	}

	ctx := c.Request.Context()
	userID := utils.GetCurrentUserID(c)

	target, err := h.store.Users.GetByFriendCode(ctx, strings.TrimSpace(req.FriendCode))
	if errors.Is(err, repository.ErrNotFound) {
		utils.NotFound(c, "User not found with that code")
		return
	} else if err != nil {
		h.fail(c, err)
		return
	}
	if target.ID == userID {
		utils.BadRequest(c, "Cannot send request to yourself")
		return
	}

	requests, err := h.store.Requests.List(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	if slices.ContainsFunc(requests, func(r models.FriendRequest) bool {
		return r.FromUserID == userID && r.ToUserID == target.ID && r.Status == models.FriendRequestPending
	}) {
		utils.Conflict(c, "Request already sent")
		return
	}

	already, err := h.areFriends(ctx, userID, target.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if already {
		utils.Conflict(c, "Already friends")
		return
	}

	request := models.FriendRequest{FromUserID: userID, ToUserID: target.ID, Status: models.FriendRequestPending}
	if err := h.store.Requests.Create(ctx, &request); err != nil {
		h.fail(c, err)
		return
	}

	h.log.Info("✅ friend request sent", "request_id", request.ID, "from", userID, "to", target.ID)
	utils.SuccessResponse(c, http.StatusCreated, "Friend request sent!", nil)
}

// GET /api/friends/requests
// Requests the current user sent or received.
func (h *Handler) GetFriendRequests(c *gin.Context) {
	ctx := c.Request.Context()
	userID := utils.GetCurrentUserID(c)

	requests, err := h.store.Requests.List(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}

	d := h.directory(ctx)
	out := make([]models.FriendRequestResponse, 0)
	for _, r := range requests {
		if r.FromUserID == userID || r.ToUserID == userID {
			out = append(out, friendRequestResponse(d, r))
		}
	}
	c.JSON(http.StatusOK, out)
}

// PUT /api/friends/requests/:id
func (h *Handler) RespondFriendRequest(c *gin.Context) {
	requestID, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}

	var req models.RespondFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	userID := utils.GetCurrentUserID(c)

	request, err := h.store.Requests.Get(ctx, requestID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && request.ToUserID != userID) {
		utils.NotFound(c, "Friend request not found")
		return
	} else if err != nil {
		h.fail(c, err)
		return
	}
	if request.Status != models.FriendRequestPending {
		utils.BadRequest(c, "Request already processed")
		return
	}

	if !req.Accept {
		request.Status = models.FriendRequestRejected
		if err := h.store.Requests.Save(ctx, request); err != nil {
			h.fail(c, err)
			return
		}
		utils.SuccessResponse(c, http.StatusOK, "Request rejected", nil)
		return
	}

	// The two may have become friends some other way since the request.
	already, err := h.areFriends(ctx, request.FromUserID, request.ToUserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !already {
		friend := models.Friend{UserID: request.FromUserID, FriendID: request.ToUserID}
		if err := h.store.Friends.Create(ctx, &friend); err != nil {
			h.fail(c, err)
			return
		}
	}

	request.Status = models.FriendRequestAccepted
	if err := h.store.Requests.Save(ctx, request); err != nil {
		h.fail(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Friend added!", nil)
}
