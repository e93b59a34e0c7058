package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"slotstream/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthMiddleware struct {
	jwtService *jwt.Service
}

const (
	ctxTenantIDKey = "tenant_id"
	ctxActorIDKey  = "actor_id"
)

func NewAuthMiddleware(jwtService *jwt.Service) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
	}
}

// RequireAuth validates the bearer token and pins the tenant scope for the
// request; every downstream query and mutation is bounded by that tenant.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimSpace(authHeader[len("Bearer "):])
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Access token required",
			})
			c.Abort()
			return
		}

		claims, err := m.jwtService.ValidateToken(token)
		if err != nil {
			slog.Warn("Token validation failed in auth middleware", "error", err.Error())
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		actorID, err := claims.ActorID()
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(ctxTenantIDKey, claims.TenantID)
		c.Set(ctxActorIDKey, actorID)
		c.Set("jwt_claims", map[string]any{
			"tenant_id": claims.TenantID.String(),
			"actor_id":  actorID.String(),
		})
		c.Next()
	}
}

func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	tenantID, exists := c.Get(ctxTenantIDKey)
	if !exists {
		return uuid.Nil, false
	}

	id, ok := tenantID.(uuid.UUID)
	return id, ok
}

func GetActorID(c *gin.Context) (uuid.UUID, bool) {
	actorID, exists := c.Get(ctxActorIDKey)
	if !exists {
		return uuid.Nil, false
	}

	id, ok := actorID.(uuid.UUID)
	return id, ok
}
