package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/feiradireta/feiradireta-api/internal/models"
)

func identityRouter(extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity())
	handlers := append(extra, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": currentUserID(c)})
	})
	r.GET("/probe", handlers...)
	return r
}

func TestIdentity_ExtractsHeaders(t *testing.T) {
	r := identityRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("X-User-ID", "usr_1")
	req.Header.Set("X-User-Role", "producer")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestRequireUser_RejectsAnonymous(t *testing.T) {
	r := identityRouter(RequireUser())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestRequireUser_AllowsAuthenticated(t *testing.T) {
	r := identityRouter(RequireUser())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("X-User-ID", "usr_1")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		expected int
	}{
		{"producer allowed", "producer", http.StatusOK},
		{"admin allowed", "admin", http.StatusOK},
		{"consumer forbidden", "consumer", http.StatusForbidden},
		{"missing role defaults to consumer", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := identityRouter(RequireUser(), RequireRole(models.RoleProducer, models.RoleAdmin))

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/probe", nil)
			req.Header.Set("X-User-ID", "usr_1")
			if tt.role != "" {
				req.Header.Set("X-User-Role", tt.role)
			}
			r.ServeHTTP(w, req)

			if w.Code != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, w.Code)
			}
		})
	}
}

func TestRequestID_GeneratedWhenAbsent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/probe", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))

	if got := w.Header().Get("X-Request-ID"); got == "" {
		t.Error("expected a generated request id header")
	}
}

func TestRequestID_Propagated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/probe", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("X-Request-ID", "req_fixed")
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "req_fixed" {
		t.Errorf("expected propagated id, got %q", got)
	}
}
