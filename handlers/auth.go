package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"splitfree/middleware"
	"splitfree/models"
	"splitfree/repository"
	"splitfree/utils"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

type AuthResponse struct {
	Token string              `json:"token"`
	User  models.UserResponse `json:"user"`
}

// friendCodeAttempts bounds retries when a generated code is already taken.
const friendCodeAttempts = 5

// POST /auth/register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" {
		utils.BadRequest(c, "Name is required")
		return
	}

	if _, err := h.store.Users.GetByEmail(ctx, req.Email); err == nil {
		utils.Conflict(c, "Email already registered")
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		h.fail(c, err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.InternalError(c, "Failed to hash password")
		return
	}

	code, err := h.uniqueFriendCode(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hashedPassword),
		Initials:     models.Initials(req.Name),
		AvatarColor:  models.AvatarColor(req.Name),
		FriendCode:   code,
	}
	if err := h.store.Users.Create(ctx, &user); err != nil {
		h.fail(c, err)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Email, h.cfg.JWTSecret, h.cfg.TokenTTL)
	if err != nil {
		utils.InternalError(c, "Failed to generate token")
		return
	}

	h.log.Info("✅ user registered", "user_id", user.ID)
	utils.SuccessResponse(c, http.StatusCreated, "Registration successful", AuthResponse{
		Token: token,
		User:  user.ToResponse(),
	})
}

func (h *Handler) uniqueFriendCode(c *gin.Context) (string, error) {
	var lastErr error
	for range friendCodeAttempts {
		code, err := models.NewFriendCode()
		if err != nil {
			return "", err
		}
		_, err = h.store.Users.GetByFriendCode(c.Request.Context(), code)
		if errors.Is(err, repository.ErrNotFound) {
			return code, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("could not allocate a unique friend code")
	}
	return "", lastErr
}

// POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.store.Users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Unauthorized(c, "Invalid email or password")
			return
		}
		h.fail(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		utils.Unauthorized(c, "Invalid email or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Email, h.cfg.JWTSecret, h.cfg.TokenTTL)
	if err != nil {
		utils.InternalError(c, "Failed to generate token")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Login successful", AuthResponse{
		Token: token,
		User:  user.ToResponse(),
	})
}

// POST /api/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	tokenID := c.GetString(utils.TokenIDKey)
	if err := h.sessions.Revoke(c.Request.Context(), tokenID, middleware.TokenExpiry(c)); err != nil {
		h.fail(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Logged out", nil)
}

// POST /api/auth/change-password
func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
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

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		utils.BadRequest(c, "Current password is incorrect")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		utils.InternalError(c, "Failed to hash password")
		return
	}
	user.PasswordHash = string(hash)
	if err := h.store.Users.Save(ctx, user); err != nil {
		h.fail(c, err)
		return
	}

	h.log.Info("✅ password changed", "user_id", user.ID)
	utils.SuccessResponse(c, http.StatusOK, "Password changed successfully", nil)
}
