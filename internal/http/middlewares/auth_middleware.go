package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/clubhub/internal/actorctx"
	"github.com/geocoder89/clubhub/internal/auth"
	"github.com/geocoder89/clubhub/internal/domain/user"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			abortUnauthorized(c, "Missing or invalid access token")
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired access token")
			return
		}

		actor := claims.Actor()

		// gin handlers read it from the gin context, services and logs from the request context
		c.Set(CtxActor, actor)
		c.Request = c.Request.WithContext(actorctx.WithActor(c.Request.Context(), actor))

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":      "unauthorized",
			"message":   message,
			"requestId": c.GetString(CtxRequestID),
		},
	})
}

func ActorFromContext(c *gin.Context) (user.Actor, bool) {
	v, ok := c.Get(CtxActor)
	if !ok {
		return user.Actor{}, false
	}
	a, ok := v.(user.Actor)
	return a, ok && a.ID != ""
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	a, ok := ActorFromContext(c)
	return a.ID, ok
}
