package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newProtectedRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", mw, func(c *gin.Context) {
		subject, _ := GetSubject(c.Request.Context())
		c.String(http.StatusOK, subject)
	})
	return router
}

func call(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestIssuedTokenPassesMiddleware(t *testing.T) {
	issuer := NewTokenIssuer("secret", "lockscreen", time.Minute)
	token, expires, err := issuer.Issue(UnlockSubject, "req-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if !expires.After(time.Now()) {
		t.Fatalf("expected future expiry, got %s", expires)
	}

	resp := call(newProtectedRouter(JWTMiddleware("secret", "lockscreen")), token)
	if resp.Code != http.StatusOK || resp.Body.String() != UnlockSubject {
		t.Fatalf("expected 200 %q, got %d %q", UnlockSubject, resp.Code, resp.Body.String())
	}
}

func TestMiddlewareRejects(t *testing.T) {
	wrongAudience, _, _ := NewTokenIssuer("secret", "other", time.Minute).Issue(UnlockSubject, "r")
	wrongSecret, _, _ := NewTokenIssuer("nope", "lockscreen", time.Minute).Issue(UnlockSubject, "r")

	expired := NewTokenIssuer("secret", "lockscreen", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	stale, _, _ := expired.Issue(UnlockSubject, "r")

	router := newProtectedRouter(JWTMiddleware("secret", "lockscreen"))
	for name, token := range map[string]string{
		"missing":        "",
		"wrong audience": wrongAudience,
		"wrong secret":   wrongSecret,
		"expired":        stale,
	} {
		if resp := call(router, token); resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, resp.Code)
		}
	}
}

func TestRequireWhen(t *testing.T) {
	required := false
	router := newProtectedRouter(RequireWhen(func() bool { return required }, JWTMiddleware("secret", "")))

	if resp := call(router, ""); resp.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d", resp.Code)
	}
	required = true
	if resp := call(router, ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 once required, got %d", resp.Code)
	}
}

func TestIssueWithoutSecret(t *testing.T) {
	if _, _, err := NewTokenIssuer(" ", "", time.Minute).Issue(UnlockSubject, "r"); err == nil {
		t.Fatal("expected error without secret")
	}
}
