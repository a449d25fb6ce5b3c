package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lojinha/models"
)

const sessionKey = "auth.session"

// Session is the explicit request identity handed to handlers. Nothing in
// this codebase reads ambient auth globals.
type Session struct {
	Subject string
	Email   string
	Admin   bool
}

// TokenVerifier abstracts go-oidc's verifier so the middleware is
// testable without a live provider.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*oidc.IDToken, error)
}

// RoleStore answers whether a token subject is an admin.
type RoleStore interface {
	IsAdmin(ctx context.Context, subject string) (bool, error)
}

// NewVerifier discovers the OIDC provider and returns its token verifier.
func NewVerifier(ctx context.Context, issuer, clientID string) (TokenVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, err
	}
	return provider.Verifier(&oidc.Config{ClientID: clientID}), nil
}

// Middleware verifies the bearer token and stores a Session in the gin
// context. Requests without a valid token are rejected with 401.
func Middleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			return
		}
		token, err := verifier.Verify(c.Request.Context(), strings.TrimPrefix(authHeader, prefix))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		var claims struct {
			Email string `json:"email"`
		}
		_ = token.Claims(&claims)
		c.Set(sessionKey, &Session{Subject: token.Subject, Email: claims.Email})
		c.Next()
	}
}

// FromContext returns the session placed by Middleware, or nil.
func FromContext(c *gin.Context) *Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(*Session); ok {
			return s
		}
	}
	return nil
}

const (
	adminCheckAttempts = 3
	adminCheckBackoff  = 300 * time.Millisecond
)

// RequireAdmin gates a route behind the role check. The lookup is retried
// up to 3 times with linear backoff (300ms × attempt) before concluding
// non-admin, to ride out token propagation races right after sign-in.
func RequireAdmin(store RoleStore, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := FromContext(c)
		if session == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		for attempt := 1; attempt <= adminCheckAttempts; attempt++ {
			isAdmin, err := store.IsAdmin(c.Request.Context(), session.Subject)
			if err == nil && isAdmin {
				session.Admin = true
				c.Next()
				return
			}
			if err != nil {
				log.Warn("admin check failed",
					zap.String("subject", session.Subject),
					zap.Int("attempt", attempt),
					zap.Error(err))
			}
			if attempt < adminCheckAttempts {
				time.Sleep(adminCheckBackoff * time.Duration(attempt))
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
	}
}

// GormRoleStore looks admins up in the admin_users table.
type GormRoleStore struct {
	DB *gorm.DB
}

func (s GormRoleStore) IsAdmin(ctx context.Context, subject string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&models.AdminUser{}).
		Where("subject = ? AND role = ?", subject, "admin").
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
