package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by FirebaseAuthMiddleware
const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextName   = "name"
)

// TokenVerifier checks Firebase ID tokens; *auth.Client satisfies it
type TokenVerifier interface {
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*auth.Token, error)
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// CronSecretMiddleware only lets through requests carrying
// "Authorization: Bearer <secret>"
func CronSecretMiddleware(secret string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if secret == "" || !ok || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			log.Warn("⚠️ Unauthorized attempt to trigger expiry check", zap.String("ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// FirebaseAuthMiddleware validates Firebase ID tokens and injects the caller into context
func FirebaseAuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format. Use: Bearer <token>"})
			return
		}

		idToken, err := verifier.VerifyIDTokenAndCheckRevoked(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		email, _ := idToken.Claims["email"].(string)
		name, _ := idToken.Claims["name"].(string)
		c.Set(ContextUserID, idToken.UID)
		c.Set(ContextEmail, email)
		c.Set(ContextName, name)

		c.Next()
	}
}
