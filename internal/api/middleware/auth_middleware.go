package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"carpark_manager/internal/service"
)

const (
	AuthorizationHeaderKey  = "Authorization"
	AuthorizationTypeBearer = "Bearer"
	UsernameKey             = "username"
	UserRoleKey             = "userRole"
)

type AuthMiddleware struct {
	authService *service.AuthService
}

func NewAuthMiddleware(authService *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Authenticate verifies the bearer token and stores the caller's identity
// in the gin context for downstream handlers.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeaderKey)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		fields := strings.Fields(authHeader)
		if len(fields) < 2 || !strings.EqualFold(fields[0], AuthorizationTypeBearer) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		claims, err := m.authService.ValidateToken(fields[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token is invalid or expired", "details": err.Error()})
			return
		}

		username, okUsername := claims["username"].(string)
		role, okRole := claims["role"].(string)
		if !okUsername || !okRole {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user information in token"})
			return
		}

		c.Set(UsernameKey, username)
		c.Set(UserRoleKey, role)
		c.Next()
	}
}

// AuthorizeRole allows only callers whose role is in requiredRoles.
// Authenticate must run first.
func (m *AuthMiddleware) AuthorizeRole(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, exists := c.Get(UserRoleKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied (missing role)"})
			return
		}
		role, ok := roleVal.(string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied (invalid role)"})
			return
		}
		for _, required := range requiredRoles {
			if role == required {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied (insufficient role)"})
	}
}
