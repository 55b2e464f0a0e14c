package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mediatrack/internal/auth"
	"mediatrack/internal/pkg/logger"
	"mediatrack/internal/pkg/response"
)

// UsernameKey is the gin context key the authenticated username is stored
// under.
const UsernameKey = "username"

// JWTAuth rejects requests without a valid bearer token. SSE clients
// cannot set headers, so a token query parameter is accepted as well.
func JWTAuth(jwtManager *auth.JWTManager, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			var err error
			token, err = auth.ExtractTokenFromHeader(authHeader)
			if err != nil {
				response.Unauthorized(c, "invalid authorization header")
				c.Abort()
				return
			}
		} else if token = c.Query("token"); token == "" {
			response.Unauthorized(c, "missing authorization")
			c.Abort()
			return
		}

		claims, err := jwtManager.Verify(token)
		if err != nil {
			log.Warn("invalid access token",
				zap.Error(err),
				zap.String("ip", c.ClientIP()))
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(UsernameKey, claims.Username)
		c.Next()
	}
}

// Username returns the authenticated username set by JWTAuth.
func Username(c *gin.Context) string {
	return c.GetString(UsernameKey)
}
