package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wrapcrm_backend/platform/apperr"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type staticJWT string

func (s staticJWT) GetJWTAccessSecret() string { return string(s) }

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newTestEngine(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/me", AuthRequired(staticJWT(secret)), func(c *gin.Context) {
		id := MustGetIdentity(c)
		if id == nil {
			return
		}
		OK(c, gin.H{"username": id.Username()})
	})
	engine.GET("/admin", AuthRequired(staticJWT(secret)), RequireRole("admin"), func(c *gin.Context) {
		OK(c, gin.H{"ok": true})
	})
	return engine
}

func TestAuthRequired(t *testing.T) {
	const secret = "s3cret"
	userID := uuid.New()
	valid := signToken(t, secret, jwt.MapClaims{
		"sub": userID.String(), "username": "maria", "roles": []string{"sales_rep"},
		"type": "access", "exp": time.Now().Add(time.Minute).Unix(),
	})
	refresh := signToken(t, secret, jwt.MapClaims{
		"sub": userID.String(), "type": "refresh", "exp": time.Now().Add(time.Minute).Unix(),
	})
	expired := signToken(t, secret, jwt.MapClaims{
		"sub": userID.String(), "type": "access", "exp": time.Now().Add(-time.Minute).Unix(),
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"valid token", "Bearer " + valid, http.StatusOK},
		{"refresh token rejected", "Bearer " + refresh, http.StatusUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other", jwt.MapClaims{"sub": userID.String(), "type": "access"}), http.StatusUnauthorized},
	}

	engine := newTestEngine(secret)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	const secret = "s3cret"
	engine := newTestEngine(secret)

	for _, tc := range []struct {
		roles []string
		want  int
	}{
		{[]string{"sales_rep"}, http.StatusForbidden},
		{[]string{"admin"}, http.StatusOK},
	} {
		token := signToken(t, secret, jwt.MapClaims{
			"sub": uuid.NewString(), "roles": tc.roles, "type": "access",
			"exp": time.Now().Add(time.Minute).Unix(),
		})
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("roles %v: status = %d, want %d", tc.roles, rec.Code, tc.want)
		}
	}
}

func TestHandleErrorMapsKinds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err  error
		want int
	}{
		{apperr.NotFound("lead not found"), http.StatusNotFound},
		{apperr.Validation("bad"), http.StatusBadRequest},
		{http.ErrHandlerTimeout, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		if !HandleError(c, tc.err) {
			t.Fatalf("HandleError returned false for %v", tc.err)
		}
		if rec.Code != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewIPRateLimiter(0, 2, nil)
	engine := gin.New()
	engine.POST("/login", limiter.RateLimit(), func(c *gin.Context) { NoContent(c) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
}
