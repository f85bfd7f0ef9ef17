package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func visitorRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Visitor(false))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, VisitorID(c))
	})
	return r
}

func TestVisitor_IssuesCookie(t *testing.T) {
	r := visitorRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	var issued *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == VisitorCookieName {
			issued = cookie
		}
	}
	if issued == nil {
		t.Fatalf("expected %s cookie on first contact", VisitorCookieName)
	}
	if !issued.HttpOnly {
		t.Fatalf("visitor cookie must be http-only")
	}
	if issued.SameSite != http.SameSiteLaxMode {
		t.Fatalf("visitor cookie must be SameSite=Lax, got %v", issued.SameSite)
	}
	if issued.MaxAge != visitorCookieMaxAge {
		t.Fatalf("visitor cookie max age = %d, want %d", issued.MaxAge, visitorCookieMaxAge)
	}
	if w.Body.String() != issued.Value {
		t.Fatalf("context id %q does not match cookie %q", w.Body.String(), issued.Value)
	}
}

func TestVisitor_ReusesExistingCookie(t *testing.T) {
	r := visitorRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: VisitorCookieName, Value: "visitor-abc"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Body.String() != "visitor-abc" {
		t.Fatalf("expected existing id to be reused, got %q", w.Body.String())
	}
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == VisitorCookieName {
			t.Fatalf("no new cookie should be issued when one exists")
		}
	}
}
