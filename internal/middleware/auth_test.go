package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/projectflow/backend/internal/models"
	"github.com/projectflow/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubAuth accepts a single token.
type stubAuth struct {
	token string
	user  *models.User
	err   error
}

func (a *stubAuth) Authenticate(_ context.Context, token string) (*models.User, error) {
	if a.err != nil {
		return nil, a.err
	}
	if token != a.token {
		return nil, response.NewUnauthorized("could not validate credentials")
	}
	return a.user, nil
}

func newTestUser(superuser bool) *models.User {
	u := &models.User{Email: "ada@example.com", IsActive: true, IsSuperuser: superuser}
	u.ID = uuid.New()
	return u
}

func protectedRouter(auth Authenticator, extra ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(AuthRequired(auth))
	router.Use(extra...)
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": GetEmail(c), "id": CurrentUser(c).ID})
	})
	return router
}

func get(router http.Handler, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestAuthRequired_NoHeader(t *testing.T) {
	router := protectedRouter(&stubAuth{token: "good"})

	if w := get(router, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthRequired_InvalidFormat(t *testing.T) {
	router := protectedRouter(&stubAuth{token: "good"})

	for _, authHeader := range []string{"InvalidToken", "Basic token123", "Bearer", "Bearer "} {
		if w := get(router, authHeader); w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected status %d, got %d", authHeader, http.StatusUnauthorized, w.Code)
		}
	}
}

func TestAuthRequired_InvalidToken(t *testing.T) {
	router := protectedRouter(&stubAuth{token: "good", user: newTestUser(false)})

	if w := get(router, "Bearer invalid.jwt.token"); w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthRequired_InactiveUser(t *testing.T) {
	router := protectedRouter(&stubAuth{err: response.NewForbidden("user account is inactive")})

	if w := get(router, "Bearer anything"); w.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, w.Code)
	}
}

func TestAuthRequired_ValidToken(t *testing.T) {
	user := newTestUser(false)
	router := protectedRouter(&stubAuth{token: "good", user: user})

	w := get(router, "bearer good")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, user.Email) || !strings.Contains(body, user.ID.String()) {
		t.Errorf("unexpected body %s", body)
	}
}

func TestSuperuserRequired(t *testing.T) {
	tests := []struct {
		name      string
		superuser bool
		want      int
	}{
		{"regular user", false, http.StatusForbidden},
		{"superuser", true, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := protectedRouter(&stubAuth{token: "good", user: newTestUser(tt.superuser)}, SuperuserRequired())
			if w := get(router, "Bearer good"); w.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestSuperuserRequired_WithoutAuth(t *testing.T) {
	router := gin.New()
	router.Use(SuperuserRequired())
	router.GET("/protected", func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := get(router, ""); w.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, w.Code)
	}
}

func TestCurrentUser(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if u := CurrentUser(c); u != nil {
		t.Errorf("expected nil for missing user, got %+v", u)
	}
	if email := GetEmail(c); email != "" {
		t.Errorf("expected empty email, got %q", email)
	}

	user := newTestUser(false)
	c.Set(ContextUser, user)
	if u := CurrentUser(c); u != user {
		t.Error("CurrentUser should return the stored user")
	}
}
