package handlers

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"splitfree/ledger"
	"splitfree/models"
	"splitfree/repository"
	"splitfree/services"
	"splitfree/utils"
)

func (h *Handler) groupResponse(d *userDirectory, g *models.Group) models.GroupResponse {
	resp := models.GroupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Icon:        g.Icon,
		IconBgColor: g.IconBgColor,
		CreatedByID: g.CreatedByID,
		Members:     make([]models.GroupMemberResponse, 0, len(g.Members)),
		CreatedAt:   g.CreatedAt,
	}
	for _, m := range g.Members {
		member := models.GroupMemberResponse{
			ID:          m.UserID,
			Name:        unknownName,
			Initials:    unknownInitials,
			AvatarColor: unknownAvatarColor,
		}
		if u := d.get(m.UserID); u != nil {
			member.Name = u.Name
			member.Initials = u.Initials
			member.AvatarColor = u.AvatarColor
		}
		resp.Members = append(resp.Members, member)
	}
	return resp
}

// visibleGroup loads a group the current user belongs to. Groups the user
// is not part of are reported as missing.
func (h *Handler) visibleGroup(c *gin.Context) (*models.Group, bool) {
	groupID, ok := utils.ParseID(c, "id")
	if !ok {
		return nil, false
	}

	group, err := h.store.Groups.Get(c.Request.Context(), groupID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !group.HasMember(utils.GetCurrentUserID(c))) {
		h.fail(c, &ledger.NotFoundError{Kind: "group", ID: groupID})
		return nil, false
	}
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return group, true
}

// POST /api/groups
func (h *Handler) CreateGroup(c *gin.Context) {
	var req models.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		utils.BadRequest(c, "Group name required")
		return
	}

	ctx := c.Request.Context()
	userID := utils.GetCurrentUserID(c)

	// Creator first, then the listed members in order without repeats.
	memberIDs := []uint{userID}
	for _, id := range req.MemberIDs {
		if !slices.Contains(memberIDs, id) {
			memberIDs = append(memberIDs, id)
		}
	}

	d := h.directory(ctx)
	group := models.Group{
		Name:        name,
		Icon:        req.Icon,
		IconBgColor: req.IconBgColor,
		CreatedByID: userID,
	}
	if group.Icon == "" {
		group.Icon = models.DefaultGroupIcon
	}
	if group.IconBgColor == "" {
		group.IconBgColor = models.DefaultGroupIconBgColor
	}
	for _, id := range memberIDs {
		if d.get(id) == nil {
			h.fail(c, &ledger.NotFoundError{Kind: "user", ID: id})
			return
		}
		group.Members = append(group.Members, models.GroupMember{UserID: id})
	}

	if err := h.store.Groups.Create(ctx, &group); err != nil {
		h.fail(c, err)
		return
	}

	h.log.Info("✅ group created", "group_id", group.ID, "members", len(group.Members))
	c.JSON(http.StatusCreated, h.groupResponse(d, &group))
}

// GET /api/groups
func (h *Handler) GetGroups(c *gin.Context) {
	ctx := c.Request.Context()
	userID := utils.GetCurrentUserID(c)

	groups, err := h.store.Groups.List(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}

	d := h.directory(ctx)
	out := make([]models.GroupResponse, 0, len(groups))
	for i := range groups {
		if groups[i].HasMember(userID) {
			out = append(out, h.groupResponse(d, &groups[i]))
		}
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/groups/:id
func (h *Handler) GetGroup(c *gin.Context) {
	group, ok := h.visibleGroup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.groupResponse(h.directory(c.Request.Context()), group))
}

// PUT /api/groups/:id
func (h *Handler) UpdateGroup(c *gin.Context) {
	group, ok := h.visibleGroup(c)
	if !ok {
		return
	}

	var req models.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			utils.BadRequest(c, "Group name required")
			return
		}
		group.Name = name
	}
	if req.Icon != nil {
		group.Icon = *req.Icon
	}
	if req.IconBgColor != nil {
		group.IconBgColor = *req.IconBgColor
	}

	ctx := c.Request.Context()
	if err := h.store.Groups.Save(ctx, group); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.groupResponse(h.directory(ctx), group))
}

// POST /api/groups/:id/members
func (h *Handler) AddMember(c *gin.Context) {
	group, ok := h.visibleGroup(c)
	if !ok {
		return
	}

	var req models.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	var (
		user *models.User
		err  error
	)
	switch {
	case req.UserID != 0:
		user, err = h.store.Users.Get(ctx, req.UserID)
	case strings.TrimSpace(req.Email) != "":
		user, err = h.store.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	case strings.TrimSpace(req.FriendCode) != "":
		user, err = h.store.Users.GetByFriendCode(ctx, strings.TrimSpace(req.FriendCode))
	default:
		utils.BadRequest(c, "User id, email or friend code required")
		return
	}
	if errors.Is(err, repository.ErrNotFound) {
		utils.NotFound(c, "User not found")
		return
	} else if err != nil {
		h.fail(c, err)
		return
	}

	if group.HasMember(user.ID) {
		utils.Conflict(c, "User is already a member of this group")
		return
	}

	group.Members = append(group.Members, models.GroupMember{UserID: user.ID})
	if err := h.store.Groups.Save(ctx, group); err != nil {
		h.fail(c, err)
		return
	}

	h.log.Info("✅ member added", "group_id", group.ID, "user_id", user.ID, "by", utils.GetCurrentUserID(c))
	c.JSON(http.StatusCreated, models.GroupMemberResponse{
		ID:          user.ID,
		Name:        user.Name,
		Initials:    user.Initials,
		AvatarColor: user.AvatarColor,
	})
}

// DELETE /api/groups/:id/members/:memberId
// The creator may remove anyone else; other members may only leave.
func (h *Handler) RemoveMember(c *gin.Context) {
	group, ok := h.visibleGroup(c)
	if !ok {
		return
	}
	memberID, ok := utils.ParseID(c, "memberId")
	if !ok {
		return
	}

	userID := utils.GetCurrentUserID(c)
	if group.CreatedByID != userID && memberID != userID {
		utils.Forbidden(c, "Only the group creator can remove other members")
		return
	}
	if memberID == group.CreatedByID {
		utils.BadRequest(c, "The group creator cannot be removed")
		return
	}

	idx := slices.IndexFunc(group.Members, func(m models.GroupMember) bool { return m.UserID == memberID })
	if idx == -1 {
		utils.NotFound(c, "Member not found")
		return
	}
	group.Members = slices.Delete(group.Members, idx, idx+1)

	if err := h.store.Groups.Save(c.Request.Context(), group); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /api/groups/:id
func (h *Handler) DeleteGroup(c *gin.Context) {
	group, ok := h.visibleGroup(c)
	if !ok {
		return
	}
	if group.CreatedByID != utils.GetCurrentUserID(c) {
		utils.Forbidden(c, "Only the group creator can delete it")
		return
	}

	if err := h.store.Groups.Delete(c.Request.Context(), group.ID); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) friendResponse(d *userDirectory, f models.Friend, userID uint) models.FriendResponse {
	resp := models.FriendResponse{
		ID:          f.ID,
		UserID:      f.Other(userID),
		Name:        unknownName,
		Initials:    unknownInitials,
		AvatarColor: unknownAvatarColor,
		AddedAt:     f.AddedAt,
	}
	if u := d.get(resp.UserID); u != nil {
		resp.Name = u.Name
		resp.Initials = u.Initials
		resp.AvatarColor = u.AvatarColor
		resp.FriendCode = u.FriendCode
	}
	return resp
}

// GET /api/friends
func (h *Handler) GetFriends(c *gin.Context) {
	ctx := c.Request.Context()
	userID := utils.GetCurrentUserID(c)

	friends, err := h.store.Friends.List(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}

	d := h.directory(ctx)
	out := make([]models.FriendResponse, 0)
	for _, f := range friends {
		if f.Involves(userID) {
			out = append(out, h.friendResponse(d, f, userID))
		}
	}
	c.JSON(http.StatusOK, out)
}

// POST /api/friends
// Adds a friend by friend code or user id.
func (h *Handler) AddFriend(c *gin.Context) {
	var req models.AddFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	userID := utils.GetCurrentUserID(c)

	var (
		friend *models.User
		err    error
	)
	switch {
	case strings.TrimSpace(req.FriendCode) != "":
		friend, err = h.store.Users.GetByFriendCode(ctx, strings.TrimSpace(req.FriendCode))
	case req.FriendID != 0:
		friend, err = h.store.Users.Get(ctx, req.FriendID)
	default:
		utils.BadRequest(c, "Friend code required")
		return
	}
	if errors.Is(err, repository.ErrNotFound) {
		utils.NotFound(c, "User not found with that code")
		return
	} else if err != nil {
		h.fail(c, err)
		return
	}

	h.befriend(c, userID, friend)
}

// areFriends reports whether a friendship exists between a and b in either
// direction.
func (h *Handler) areFriends(ctx context.Context, a, b uint) (bool, error) {
	friends, err := h.store.Friends.List(ctx)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(friends, func(f models.Friend) bool {
		return f.Involves(a) && f.Other(a) == b
	}), nil
}

// befriend records a friendship between userID and friend and writes the
// response. Existing friendships in either direction are a conflict.
func (h *Handler) befriend(c *gin.Context, userID uint, friend *models.User) {
	ctx := c.Request.Context()
	if friend.ID == userID {
		utils.BadRequest(c, "Cannot add yourself as a friend")
		return
	}

	already, err := h.areFriends(ctx, userID, friend.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if already {
		utils.Conflict(c, "Already friends")
		return
	}

	record := models.Friend{UserID: userID, FriendID: friend.ID}
	if err := h.store.Friends.Create(ctx, &record); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.friendResponse(h.directory(ctx), record, userID))
}

// POST /api/friends/invite
// Befriends a registered user straight away, otherwise e-mails an invitation
// carrying the caller's friend code.
func (h *Handler) InviteFriend(c *gin.Context) {
	var req models.InviteFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	userID := utils.GetCurrentUserID(c)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := h.store.Users.GetByEmail(ctx, email)
	if err == nil {
		h.befriend(c, userID, existing)
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		h.fail(c, err)
		return
	}

	inviter, err := h.store.Users.Get(ctx, userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if h.invites == nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Invitations are not available")
		return
	}
	if err := h.invites.SendInvitation(ctx, *inviter, email); err != nil {
		if errors.Is(err, services.ErrMailDisabled) {
			utils.ErrorResponse(c, http.StatusServiceUnavailable, "Invitations are not available")
			return
		}
		h.fail(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusAccepted, "Invitation sent", nil)
}

// DELETE /api/friends/:id
func (h *Handler) RemoveFriend(c *gin.Context) {
	friendID, ok := utils.ParseID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	userID := utils.GetCurrentUserID(c)

	friends, err := h.store.Friends.List(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	idx := slices.IndexFunc(friends, func(f models.Friend) bool {
		return f.ID == friendID && f.Involves(userID)
	})
	if idx == -1 {
		utils.NotFound(c, "Friend not found")
		return
	}

	if err := h.store.Friends.Delete(ctx, friendID); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
