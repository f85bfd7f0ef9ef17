package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// VisitorCookieName carries the pseudo-anonymous visitor identifier.
	VisitorCookieName = "mango_visitor_id"

	// visitorCookieMaxAge is one year, in seconds.
	visitorCookieMaxAge = 60 * 60 * 24 * 365

	// ContextVisitorID is the gin context key holding the resolved id.
	ContextVisitorID = "visitorID"
)

// Visitor resolves the visitor identity from the long-lived cookie, issuing
// a fresh id on first contact. The id partitions sessions and rate limits;
// no profile is stored against it.
func Visitor(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		visitorID, err := c.Cookie(VisitorCookieName)
		if err != nil || visitorID == "" {
			visitorID = uuid.New().String()
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     VisitorCookieName,
				Value:    visitorID,
				Path:     "/",
				MaxAge:   visitorCookieMaxAge,
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		c.Set(ContextVisitorID, visitorID)
		c.Next()
	}
}

// VisitorID returns the visitor id resolved by the Visitor middleware.
func VisitorID(c *gin.Context) string {
	return c.GetString(ContextVisitorID)
}
