package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/flicky/storefront-api/internal/model"
)

const (
	ctxUserID    = "userID"
	ctxUserEmail = "userEmail"
	ctxUserRole  = "userRole"
)

// AuthMiddleware requires a valid bearer token. Tokens whose email is on the
// allow-list are given the admin role.
func AuthMiddleware(secret string, allowList []string) gin.HandlerFunc {
	allowed := emailSet(allowList)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if msg := authenticate(c, secret, header[7:], allowed); msg != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid bearer token is present
// and lets anonymous requests through.
func OptionalAuth(secret string, allowList []string) gin.HandlerFunc {
	allowed := emailSet(allowList)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			authenticate(c, secret, header[7:], allowed)
		}
		c.Next()
	}
}

// authenticate validates the token and stores the caller identity. It
// returns a client-facing message on failure.
func authenticate(c *gin.Context, secret, raw string, allowed map[string]bool) string {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "invalid token"
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "invalid claims"
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return "invalid user id"
	}

	role, _ := claims["role"].(string)
	email, _ := claims["email"].(string)
	if allowed[strings.ToLower(email)] {
		role = model.RoleAdmin
	}
	c.Set(ctxUserID, userID)
	c.Set(ctxUserEmail, email)
	c.Set(ctxUserRole, role)
	return ""
}

func emailSet(list []string) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, e := range list {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			set[e] = true
		}
	}
	return set
}

// AdminOnly must run after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}

// CustomerOnly rejects callers without a user account, such as the
// back-office admin token.
func CustomerOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "customer account required"})
			return
		}
		c.Next()
	}
}

func IsAdmin(c *gin.Context) bool {
	return GetUserRole(c) == model.RoleAdmin
}

func GetUserID(c *gin.Context) uuid.UUID {
	id, _ := c.Get(ctxUserID)
	uid, _ := id.(uuid.UUID)
	return uid
}

func GetUserEmail(c *gin.Context) string {
	return c.GetString(ctxUserEmail)
}

func GetUserRole(c *gin.Context) string {
	return c.GetString(ctxUserRole)
}
