package identity

import (
	"net/http"
	"strings"

	"github.com/beka-birhanu/profesores-api/service/i"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// ContextUserID is the key used to store the authenticated user id in the Gin context.
	ContextUserID = "userID"
	// ContextUsername is the key used to store the authenticated username in the Gin context.
	ContextUsername = "username"

	// queryToken carries the token for clients that cannot set headers (websockets in browsers).
	queryToken = "access_token"
)

func Authoriz(identifier i.Identifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := accessToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			return
		}

		userID, username, err := identifier.Identify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			return
		}

		// Attach the verified identity to the request context for further use.
		c.Set(ContextUserID, userID)
		c.Set(ContextUsername, username)
		c.Next()
	}
}

// accessToken reads the token from the Authorization header, falling back to the query string.
func accessToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		token := c.Query(queryToken)
		return token, token != ""
	}

	// Split the "Bearer" prefix from the token.
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// UserID returns the user id set by Authoriz.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// Username returns the username set by Authoriz.
func Username(c *gin.Context) string {
	return c.GetString(ContextUsername)
}
