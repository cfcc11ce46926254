package middleware

import (
	"net/http"
	"strings"

	"studylog/pkg/auth"

	"github.com/gin-gonic/gin"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "studylog_session"

// SessionAuth gates an endpoint on a valid session: the authorization
// predicate for every data and file route. The token is taken from the
// session cookie or, failing that, a bearer Authorization header.
func SessionAuth(sessions *auth.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
			return
		}
		claims, err := sessions.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set("session", claims)
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if v, err := c.Cookie(SessionCookie); err == nil && v != "" {
		return v
	}
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
