package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"eventhub/models"
	"eventhub/utils"
)

// UserIDKey is the gin context key holding the authenticated user id (int64).
const UserIDKey = "userId"

// UserLookup resolves the user a token was issued to.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// Authenticate verifies the access token in the Authorization header, given either as
// "Bearer <token>" or as the bare token, and stores the user id under UserIDKey.
// A token whose user no longer exists is rejected; users may be nil to skip that check.
func Authenticate(tokens *utils.TokenManager, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader("Authorization"))
		if scheme, rest, ok := strings.Cut(token, " "); ok && strings.EqualFold(scheme, "Bearer") {
			token = strings.TrimSpace(rest)
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication credentials were not provided."})
			return
		}

		userID, err := tokens.VerifyAccessToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized."})
			return
		}

		if users != nil {
			_, err := users.GetByID(c.Request.Context(), userID)
			switch {
			case errors.Is(err, models.ErrNotFound):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User not found."})
				return
			case err != nil:
				slog.Error("auth user lookup failed", slog.Int64("user_id", userID), slog.Any("error", err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "An unexpected error occurred. Try again later."})
				return
			}
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}
