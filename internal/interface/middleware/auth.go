package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/tasko/internal/domain/entity"
	"github.com/oksasatya/tasko/pkg/helpers"
	"github.com/oksasatya/tasko/pkg/response"
)

// Gin context keys set by Auth.
const (
	CtxUserIDKey    = "userID"
	CtxUserRoleKey  = "userRole"
	CtxSessionIDKey = "sessionID"
)

// AccessToken reads the bearer token, falling back to the access_token cookie.
func AccessToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	token, err := c.Cookie(helpers.AccessCookie)
	if err != nil {
		return ""
	}
	return token
}

// Auth validates the access token and, when rdb is set, requires the token's
// session to still be the user's live session. On success it stores the
// user id, role and session id in the Gin context.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := AccessToken(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid access token", err.Error())
			return
		}

		if rdb != nil {
			sess, err := helpers.LoadSession(c.Request.Context(), rdb, claims.UserID)
			if err != nil || sess.SID != claims.SessionID {
				response.Abort(c, http.StatusUnauthorized, "session not found", nil)
				return
			}
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxUserRoleKey, claims.Role)
		c.Set(CtxSessionIDKey, claims.SessionID)
		c.Next()
	}
}

// Actor returns the authenticated caller.
func Actor(c *gin.Context) entity.Actor {
	return entity.Actor{ID: c.GetString(CtxUserIDKey), Role: entity.Role(c.GetString(CtxUserRoleKey))}
}

// RequireRole rejects callers whose role is not one of roles. Must run after Auth.
func RequireRole(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := entity.Role(c.GetString(CtxUserRoleKey))
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		response.Abort(c, http.StatusForbidden, "forbidden", nil)
	}
}
