package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/djishijima/hellbuild-v3/internal/application/port"
)

// HeaderUserID carries the acting user id when token auth is disabled
const HeaderUserID = "X-User-ID"

const (
	ctxKeyUserID   = "userID"
	ctxKeyUserRole = "userRole"
)

// identityMiddleware puts the acting user in the gin context. With a secret
// it requires a valid HS256 bearer token (or ?token= for websocket clients)
// and reads the sub and role claims; without one it trusts X-User-ID.
func identityMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(secret) == 0 {
			if id := strings.TrimSpace(c.GetHeader(HeaderUserID)); id != "" {
				c.Set(ctxKeyUserID, id)
			}
			c.Next()
			return
		}

		tokenString := bearerToken(c)
		if tokenString == "" {
			abortUnauthorized(c, "authorization is missing")
			return
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			abortUnauthorized(c, "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, "invalid token claims")
			return
		}

		sub, _ := claims["sub"].(string)
		if strings.TrimSpace(sub) == "" {
			abortUnauthorized(c, "token has no subject")
			return
		}
		role, _ := claims["role"].(string)

		c.Set(ctxKeyUserID, sub)
		c.Set(ctxKeyUserRole, role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Query("token")
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Response{Success: false, Error: msg})
}

// rateLimitMiddleware rejects callers over their enrichment budget with 429
func rateLimitMiddleware(limiter port.RateLimiter, logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		key := c.GetString(ctxKeyUserID)
		if key == "" {
			key = "ip:" + c.ClientIP()
		}

		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Error("Rate limiter failed", "error", err, "key", key)
		}
		if err == nil && !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, Response{Success: false, Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// actorID returns the acting user id, or "" when the request has none
func actorID(c *gin.Context) string {
	return c.GetString(ctxKeyUserID)
}
