package security

import (
	"net/http"
	"strings"

	appconfig "HelloChat/global/config"
	errs "HelloChat/tools/errs"
	"HelloChat/tools/security"

	"github.com/gin-gonic/gin"
)

// Context key the authenticated user id is stored under.
const CtxUserIDKey = "authUserID"

// Middleware authenticates HTTP requests with the same bearer tokens the
// sockets use. Expired and invalid tokens get distinct responses so
// clients know whether to refresh.
func Middleware(cfg *appconfig.AppConfig) gin.HandlerFunc {
	opts := security.Options{Secret: cfg.JWTSecret, Alg: cfg.JWTAlg}
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "authorization required"})
			return
		}
		claims, err := security.VerifyConnToken(opts, token)
		if err != nil {
			detail := "invalid token"
			if errs.ErrTokenExpired.Is(err) {
				detail = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
			return
		}
		if !claims.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "account blocked"})
			return
		}
		c.Set(CtxUserIDKey, claims.UserID)
		c.Next()
	}
}

// UserID reads the authenticated user id set by Middleware.
func UserID(c *gin.Context) int64 {
	v, ok := c.Get(CtxUserIDKey)
	if !ok {
		return 0
	}
	id, _ := v.(int64)
	return id
}

func bearerToken(c *gin.Context) string {
	authz := strings.TrimSpace(c.GetHeader("Authorization"))
	if authz == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	return authz
}
