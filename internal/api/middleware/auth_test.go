package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestAuth_ValidToken(t *testing.T) {
	e := echo.New()
	signed := signToken(t, "secret", jwt.MapClaims{"username": "ops-admin", "role": "admin"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	c := e.NewContext(req, httptest.NewRecorder())

	var gotUsername, gotRole any
	err := Auth("secret")(func(c echo.Context) error {
		gotUsername = c.Get("username")
		gotRole = c.Get("role")
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if gotUsername != "ops-admin" || gotRole != "admin" {
		t.Errorf("claims not injected: username=%v role=%v", gotUsername, gotRole)
	}
}

func TestAuth_Rejections(t *testing.T) {
	e := echo.New()

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Token abc"},
		{"garbage token", "Bearer not-a-token"},
		{"wrong secret", "Bearer " + signToken(t, "other-secret", jwt.MapClaims{"username": "x", "role": "admin"})},
		{"missing role claim", "Bearer " + signToken(t, "secret", jwt.MapClaims{"username": "x"})},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())

			err := Auth("secret")(func(c echo.Context) error {
				t.Fatal("should not reach next handler")
				return nil
			})(c)

			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got: %v", err)
			}
		})
	}
}
