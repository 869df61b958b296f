package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tbourn/go-rewards-shop/internal/security"
)

const testSecret = "0123456789abcdef0123"

func viewerToken(t *testing.T, uid string, ttl time.Duration) string {
	t.Helper()
	tok, err := security.GenerateViewerToken(testSecret, uid, "", ttl)
	if err != nil {
		t.Fatalf("sign viewer: %v", err)
	}
	return tok
}

func do(r http.Handler, method, path string, hdr map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json %q: %v", w.Body.String(), err)
	}
	s, _ := body["code"].(string)
	return s
}

func viewerEngine(fallback bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/points/:userId",
		ViewerAuth(ViewerAuthOptions{Secret: testSecret, HeaderFallback: fallback}),
		SelfOnly("userId"),
		func(c *gin.Context) {
			ctxUser, _ := security.ViewerFrom(c.Request.Context())
			c.String(http.StatusOK, UserID(c)+"|"+ctxUser)
		})
	return r
}

func TestViewerAuth_BearerToken(t *testing.T) {
	r := viewerEngine(false)

	w := do(r, http.MethodGet, "/points/Alice", map[string]string{"Authorization": "Bearer " + viewerToken(t, "alice", time.Hour)})
	if w.Code != http.StatusOK || w.Body.String() != "alice|alice" {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
}

func TestViewerAuth_Rejections(t *testing.T) {
	r := viewerEngine(false)
	adminTok, _ := security.GenerateAdminToken(testSecret, "alice", time.Hour)
	baseExpired := testutil.ToFloat64(authFailures.WithLabelValues("viewer", "expired"))

	cases := []struct {
		name string
		hdr  map[string]string
		code int
		err  string
	}{
		{"missing", nil, http.StatusUnauthorized, "unauthorized"},
		{"garbage", map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized, "unauthorized"},
		{"expired", map[string]string{"Authorization": "Bearer " + viewerToken(t, "alice", -time.Minute)}, http.StatusUnauthorized, "unauthorized"},
		{"admin audience", map[string]string{"Authorization": "Bearer " + adminTok}, http.StatusUnauthorized, "unauthorized"},
		{"header without fallback", map[string]string{HeaderUserID: "alice"}, http.StatusUnauthorized, "unauthorized"},
		{"other user", map[string]string{"Authorization": "Bearer " + viewerToken(t, "bob", time.Hour)}, http.StatusForbidden, "forbidden"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodGet, "/points/alice", tc.hdr)
			if w.Code != tc.code || errCode(t, w) != tc.err {
				t.Fatalf("got %d %s", w.Code, w.Body.String())
			}
		})
	}
	if got := testutil.ToFloat64(authFailures.WithLabelValues("viewer", "expired")); got != baseExpired+1 {
		t.Fatalf("expired counter = %v; want %v", got, baseExpired+1)
	}
}

func TestViewerAuth_HeaderFallback(t *testing.T) {
	r := viewerEngine(true)

	w := do(r, http.MethodGet, "/points/alice", map[string]string{HeaderUserID: "  ALICE "})
	if w.Code != http.StatusOK || w.Body.String() != "alice|alice" {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
	// A bearer token wins over the header.
	w = do(r, http.MethodGet, "/points/alice", map[string]string{
		HeaderUserID:    "alice",
		"Authorization": "Bearer " + viewerToken(t, "bob", time.Hour),
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected token identity to be used, got %d", w.Code)
	}
}

func TestAdminAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", AdminAuth(testSecret), func(c *gin.Context) {
		name, err := security.ContextAuthorizer{}.Admin(c.Request.Context())
		if err != nil {
			t.Fatalf("admin missing from request context: %v", err)
		}
		c.String(http.StatusOK, Admin(c)+"|"+name)
	})

	tok, err := security.GenerateAdminToken(testSecret, "mod", time.Hour)
	if err != nil {
		t.Fatalf("sign admin: %v", err)
	}
	w := do(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer " + tok})
	if w.Code != http.StatusOK || w.Body.String() != "mod|mod" {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}

	for name, hdr := range map[string]map[string]string{
		"missing":      nil,
		"viewer token": {"Authorization": "Bearer " + viewerToken(t, "mod", time.Hour)},
		"basic scheme": {"Authorization": "Basic " + tok},
	} {
		if w := do(r, http.MethodGet, "/admin", hdr); w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, w.Code)
		}
	}
}

func TestFeedToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }

	r := gin.New()
	r.POST("/sync", FeedToken("s3cret"), ok)
	if w := do(r, http.MethodPost, "/sync", map[string]string{HeaderFeedToken: "s3cret"}); w.Code != http.StatusNoContent {
		t.Fatalf("valid token: got %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/sync", map[string]string{HeaderFeedToken: "wrong"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: got %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/sync", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: got %d", w.Code)
	}

	disabled := gin.New()
	disabled.POST("/sync", FeedToken(""), ok)
	if w := do(disabled, http.MethodPost, "/sync", map[string]string{HeaderFeedToken: ""}); w.Code != http.StatusForbidden {
		t.Fatalf("disabled route: got %d", w.Code)
	}
}
