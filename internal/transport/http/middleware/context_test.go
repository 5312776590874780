package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/arklim/taskboard-auth/internal/infra/logger"
)

func TestCorrelationIdentifiersReachRequestContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var gotTrace, gotRequest string
	router := gin.New()
	router.Use(RequestID(), EnrichContext())
	router.GET("/", func(c *gin.Context) {
		ctx := c.Request.Context()
		gotTrace, _ = ctx.Value(logger.TraceIDKey{}).(string)
		gotRequest, _ = ctx.Value(logger.RequestIDKey{}).(string)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, "trace-abc")
	req.Header.Set(requestIDHeader, "req-abc")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if gotTrace != "trace-abc" || gotRequest != "req-abc" {
		t.Fatalf("unexpected identifiers: trace=%q request=%q", gotTrace, gotRequest)
	}
	if rr.Header().Get(TraceIDHeader) != "trace-abc" || rr.Header().Get(requestIDHeader) != "req-abc" {
		t.Fatalf("expected identifiers echoed in response headers")
	}
}

func TestGeneratedIdentifiersWhenAbsent(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID(), EnrichContext())
	router.GET("/", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Header().Get(TraceIDHeader) == "" || rr.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated identifiers, got headers %v", rr.Header())
	}
}
