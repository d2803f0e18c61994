package middleware

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"splitfree/utils"
)

// RevocationChecker reports whether a token id was logged out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthRequired accepts "Authorization: Bearer <jwt>" and stores the user id
// and token id in the gin context.
func AuthRequired(secret string, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			utils.Unauthorized(c, "Authorization header required")
			return
		}

		claims, err := utils.ParseToken(tokenString, secret)
		if err != nil {
			utils.Unauthorized(c, "Invalid or expired token")
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			utils.Unauthorized(c, "Invalid or expired token")
			return
		}

		if revoked != nil {
			isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				slog.Error("❌ Token revocation check failed", "error", err)
				utils.InternalError(c, "Failed to verify session")
				return
			}
			if isRevoked {
				utils.Unauthorized(c, "Session has ended")
				return
			}
		}

		c.Set(utils.UserIDKey, userID)
		c.Set(utils.TokenIDKey, claims.ID)
		c.Set(tokenExpiryKey, claims.ExpiresAt.Time)
		c.Next()
	}
}

const tokenExpiryKey = "token_expires_at"

// TokenExpiry returns when the current request's token expires.
func TokenExpiry(c *gin.Context) time.Time {
	return c.GetTime(tokenExpiryKey)
}
