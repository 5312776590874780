package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newCORSRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS(CORSOptions{
		AllowedOrigins: []string{"http://localhost:3000", "https://taskboard.example.com/", "*"},
		HostSuffixes:   []string{"vercel.app"},
	}))
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestCORSOriginDecisions(t *testing.T) {
	router := newCORSRouter()

	tests := []struct {
		name    string
		origin  string
		allowed bool
	}{
		{name: "explicit origin", origin: "http://localhost:3000", allowed: true},
		{name: "trailing slash in config", origin: "https://taskboard.example.com", allowed: true},
		{name: "preview deployment", origin: "https://taskboard-git-main.vercel.app", allowed: true},
		{name: "suffix without dot boundary", origin: "https://evilvercel.app", allowed: false},
		{name: "unknown origin", origin: "https://attacker.example.net", allowed: false},
		{name: "non-http scheme", origin: "file://vercel.app", allowed: false},
		{name: "no origin", origin: "", allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("expected simple requests to pass through, got %d", rr.Code)
			}
			got := rr.Header().Get("Access-Control-Allow-Origin")
			if tt.allowed && got != tt.origin {
				t.Fatalf("expected origin %q to be echoed, got %q", tt.origin, got)
			}
			if !tt.allowed && got != "" {
				t.Fatalf("expected no allow-origin header, got %q", got)
			}
			if got == "*" {
				t.Fatalf("wildcard must never be returned")
			}
			if rr.Header().Get("Vary") != "Origin" {
				t.Fatalf("expected Vary: Origin, got %q", rr.Header().Get("Vary"))
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	router := newCORSRouter()

	req := httptest.NewRequest(http.MethodOptions, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Methods") != corsAllowMethods {
		t.Fatalf("unexpected allow-methods: %q", rr.Header().Get("Access-Control-Allow-Methods"))
	}
	if rr.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("expected credentials to be allowed")
	}

	req = httptest.NewRequest(http.MethodOptions, "/health", nil)
	req.Header.Set("Origin", "https://attacker.example.net")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for disallowed preflight, got %d", rr.Code)
	}
}
