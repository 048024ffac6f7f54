package middlewares_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mmlivehub/opsboard_backend/middlewares"
	"github.com/mmlivehub/opsboard_backend/utils"
)

func bearerRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middlewares.AuthMiddleware())
	r.GET("/whoami", func(c *gin.Context) {
		userId, _ := utils.GetUserIdFromContext(c.Request.Context())
		role, _ := utils.GetRoleFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": userId, "role": role})
	})
	gated := r.Group("/", middlewares.RequireRole("Finance"))
	gated.GET("/finance-only", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthMiddleware_HydratesIdentityFromClaims(t *testing.T) {
	t.Setenv("TOKEN_HOUR_LIFESPAN", "24")

	token, err := utils.JwtGenerate(42, "Finance")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	bearerRouter().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		UserId int    `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.UserId != 42 || body.Role != "Finance" {
		t.Fatalf("want user 42 / Finance, got %+v", body)
	}
}

func TestAuthMiddleware_AllowsRoleGatedRoutes(t *testing.T) {
	t.Setenv("TOKEN_HOUR_LIFESPAN", "24")

	token, err := utils.JwtGenerate(7, "Finance")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/finance-only", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	bearerRouter().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("finance token must pass the role gate, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAuthMiddleware_RejectsBadTokens(t *testing.T) {
	cases := []struct {
		name   string
		header string
	}{
		{"garbage token", "Bearer not-a-jwt"},
		{"short header", "Bearer"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			req.Header.Set("Authorization", tc.header)
			w := httptest.NewRecorder()
			bearerRouter().ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("want 401, got %d", w.Code)
			}
		})
	}
}

func TestAuthMiddleware_NoHeaderPassesThrough(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w := httptest.NewRecorder()
	bearerRouter().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("anonymous request must reach the handler, got %d", w.Code)
	}
}
