package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/audiosessions/backend/internal/config"
	middlewarePkg "github.com/audiosessions/backend/internal/middleware"
	"github.com/audiosessions/backend/internal/model/catalog"
	accessService "github.com/audiosessions/backend/internal/service/access"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>audio sessions</html>"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}

	return &config.Config{
		Server: config.ServerConfig{
			Port:             "5000",
			Environment:      "testing",
			StaticDir:        dir,
			MaxContentLength: 1024,
		},
		Auth: config.AuthConfig{
			Password:        "Julio25",
			SecretKey:       "router-test-secret",
			SessionLifetime: 24 * time.Hour,
			SweepInterval:   time.Minute,
			CookieName:      "audiosessions_session",
		},
		Security: config.SecurityConfig{
			CORSOrigins:      []string{"*"},
			RateLimitDefault: "200 per day;50 per hour",
			AuthRateLimit:    "5 per minute",
		},
	}
}

func setupRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()

	gate, err := accessService.NewGate(accessService.Config{
		Password: cfg.Auth.Password,
		Lifetime: cfg.Auth.SessionLifetime,
		Cost:     bcrypt.MinCost,
	}, accessService.NewMemoryStore())
	if err != nil {
		t.Fatalf("NewGate err: %v", err)
	}
	sessions, err := middlewarePkg.NewSessions(middlewarePkg.SessionCookieConfig{
		Name:     cfg.Auth.CookieName,
		Secret:   cfg.Auth.SecretKey,
		Lifetime: cfg.Auth.SessionLifetime,
	})
	if err != nil {
		t.Fatalf("NewSessions err: %v", err)
	}

	r, err := NewRouter(cfg, catalog.NewMemoryStore(catalog.Seed()), gate, sessions)
	if err != nil {
		t.Fatalf("NewRouter err: %v", err)
	}
	return r
}

func do(r http.Handler, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func jsonBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", resp.Body.String(), err)
	}
	return body
}

func TestPrivateZoneFlow(t *testing.T) {
	r := setupRouter(t, testConfig(t))

	if resp := do(r, http.MethodGet, "/api/sessions/private", ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 before login, got %d", resp.Code)
	}

	login := do(r, http.MethodPost, "/api/auth", `{"password":"Julio25"}`)
	if login.Code != http.StatusOK {
		t.Fatalf("expected 200 from auth, got %d: %s", login.Code, login.Body.String())
	}
	cookies := login.Result().Cookies()
	if len(cookies) != 1 || !cookies[0].HttpOnly || cookies[0].SameSite != http.SameSiteLaxMode || cookies[0].MaxAge != 86400 {
		t.Fatalf("unexpected session cookie %+v", cookies)
	}

	private := do(r, http.MethodGet, "/api/sessions/private", "", cookies...)
	if private.Code != http.StatusOK {
		t.Fatalf("expected 200 after login, got %d", private.Code)
	}
	body := jsonBody(t, private)
	if body["genre"] != "private" || body["count"] != float64(0) {
		t.Fatalf("unexpected private listing %v", body)
	}

	if resp := do(r, http.MethodPost, "/api/logout", "", cookies...); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 from logout, got %d", resp.Code)
	}
	if resp := do(r, http.MethodGet, "/api/sessions/private", "", cookies...); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", resp.Code)
	}
}

func TestWrongPasswordKeepsZoneLocked(t *testing.T) {
	r := setupRouter(t, testConfig(t))

	resp := do(r, http.MethodPost, "/api/auth", `{"password":"wrong"}`)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	if body := jsonBody(t, resp); body["error"] != "Invalid password" || body["code"] != float64(401) {
		t.Fatalf("unexpected body %v", body)
	}
	if len(resp.Result().Cookies()) != 0 {
		t.Fatal("failed login must not set a cookie")
	}
}

func TestVerifyPasswordDoesNotUnlock(t *testing.T) {
	r := setupRouter(t, testConfig(t))

	verify := do(r, http.MethodPost, "/api/verify-password", `{"password":"Julio25"}`)
	if verify.Code != http.StatusOK || jsonBody(t, verify)["access"] != true {
		t.Fatalf("unexpected verify response %d %s", verify.Code, verify.Body.String())
	}
	if len(verify.Result().Cookies()) != 0 {
		t.Fatal("verify-password must not set a cookie")
	}
	if resp := do(r, http.MethodGet, "/api/sessions/private", ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected private zone to stay locked, got %d", resp.Code)
	}
}

func TestPublicCatalog(t *testing.T) {
	r := setupRouter(t, testConfig(t))

	resp := do(r, http.MethodGet, "/api/sessions/house/nati-nati", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if body := jsonBody(t, resp); body["duration"] != float64(3200) {
		t.Fatalf("unexpected session %v", body)
	}

	resp = do(r, http.MethodGet, "/api/sessions/jazz", "")
	if resp.Code != http.StatusNotFound || jsonBody(t, resp)["error"] != "Genre not found" {
		t.Fatalf("expected genre 404, got %d %s", resp.Code, resp.Body.String())
	}
}

func TestAPIFallbacks(t *testing.T) {
	r := setupRouter(t, testConfig(t))

	resp := do(r, http.MethodGet, "/api/unknown", "")
	if resp.Code != http.StatusNotFound || jsonBody(t, resp)["error"] != "Resource not found" {
		t.Fatalf("expected JSON 404, got %d %s", resp.Code, resp.Body.String())
	}

	resp = do(r, http.MethodGet, "/api/auth", "")
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
	if !strings.Contains(resp.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("expected JSON 405, got %q", resp.Header().Get("Content-Type"))
	}
}

func TestHealthEndpoint(t *testing.T) {
	r := setupRouter(t, testConfig(t))

	resp := do(r, http.MethodGet, "/api/health", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := jsonBody(t, resp)
	if body["status"] != "healthy" || body["version"] != "2.0.0" {
		t.Fatalf("unexpected body %v", body)
	}
	if resp.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("expected security headers on API responses")
	}
}

func TestStaticRoutes(t *testing.T) {
	r := setupRouter(t, testConfig(t))

	resp := do(r, http.MethodGet, "/../../etc/passwd", "")
	if resp.Code != http.StatusBadRequest || jsonBody(t, resp)["error"] != "Invalid file path" {
		t.Fatalf("expected 400, got %d %s", resp.Code, resp.Body.String())
	}

	resp = do(r, http.MethodGet, "/favorites", "")
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "audio sessions") {
		t.Fatalf("expected SPA index, got %d", resp.Code)
	}
}

func TestOversizeBodyRejected(t *testing.T) {
	r := setupRouter(t, testConfig(t))

	resp := do(r, http.MethodPost, "/api/auth", `{"password":"`+strings.Repeat("x", 2048)+`"}`)
	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.Code)
	}
}

func TestAuthRateLimit(t *testing.T) {
	r := setupRouter(t, testConfig(t))

	for i := 0; i < 5; i++ {
		if resp := do(r, http.MethodPost, "/api/auth", `{"password":"wrong"}`); resp.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, resp.Code)
		}
	}

	resp := do(r, http.MethodPost, "/api/auth", `{"password":"Julio25"}`)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if body := jsonBody(t, resp); body["error"] != "Rate limit exceeded" {
		t.Fatalf("unexpected body %v", body)
	}
}

func authFrom(r http.Handler, remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/auth", bytes.NewBufferString(`{"password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", forwardedFor)
	req.RemoteAddr = remoteAddr
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp.Code
}

func TestAuthRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	r := setupRouter(t, testConfig(t))

	var codes []int
	for i := 0; i < 6; i++ {
		codes = append(codes, authFrom(r, "198.51.100.9:5555", fmt.Sprintf("10.0.0.%d", i+1)))
	}

	for i, code := range codes[:5] {
		if code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %v", i+1, codes)
		}
	}
	if codes[5] != http.StatusTooManyRequests {
		t.Fatalf("attempt 6: expected 429, got %v", codes)
	}
}

func TestAuthRateLimitBehindTrustedProxy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.TrustProxy = true
	r := setupRouter(t, cfg)

	// Distinct clients behind one proxy each get their own budget.
	for i := 0; i < 6; i++ {
		if code := authFrom(r, "192.0.2.1:443", fmt.Sprintf("203.0.113.%d", i+1)); code != http.StatusUnauthorized {
			t.Fatalf("client %d: expected 401, got %d", i+1, code)
		}
	}

	var last int
	for i := 0; i < 6; i++ {
		last = authFrom(r, "192.0.2.1:443", "203.0.113.1")
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for a single forwarded client, got %d", last)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := setupRouter(t, testConfig(t))

	req := httptest.NewRequest(http.MethodOptions, "/api/auth", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("unexpected Access-Control-Allow-Origin %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := setupRouter(t, testConfig(t))

	do(r, http.MethodGet, "/api/health", "")
	resp := do(r, http.MethodGet, "/metrics", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "audiosessions_http_requests_total") {
		t.Fatal("expected request counter in metrics output")
	}
}
