package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testCfg = JWTConfig{SigningKey: []byte("test-signing-key-at-least-32-bytes!"), Issuer: "pdms"}

func runJWT(t *testing.T, cfg JWTConfig, header string) (*echo.HTTPError, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/create", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	var seen echo.Context
	err := JWTMiddleware(cfg)(func(c echo.Context) error {
		seen = c
		return nil
	})(c)
	if err == nil {
		return nil, seen
	}
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	return he, nil
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	token, err := IssueToken(testCfg, "clerk-1", []string{RoleRegistrar}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	he, c := runJWT(t, testCfg, "Bearer "+token)
	if he != nil {
		t.Fatalf("expected success, got %d %v", he.Code, he.Message)
	}
	ctx := c.Request().Context()
	if UserIDFromContext(ctx) != "clerk-1" {
		t.Errorf("expected subject clerk-1, got %q", UserIDFromContext(ctx))
	}
	if roles := RolesFromContext(ctx); len(roles) != 1 || roles[0] != RoleRegistrar {
		t.Errorf("expected [registrar], got %v", roles)
	}
}

func TestJWTMiddleware_Rejects(t *testing.T) {
	expired, _ := IssueToken(testCfg, "u", nil, -time.Minute)
	otherKey, _ := IssueToken(JWTConfig{SigningKey: []byte("another-key-another-key-another-k"), Issuer: "pdms"}, "u", nil, time.Hour)
	wrongIssuer, _ := IssueToken(JWTConfig{SigningKey: testCfg.SigningKey, Issuer: "elsewhere"}, "u", nil, time.Hour)
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u", "iss": "pdms"}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic dXNlcjpwYXNz",
		"empty token":    "Bearer ",
		"garbage":        "Bearer not.a.token",
		"expired":        "Bearer " + expired,
		"other key":      "Bearer " + otherKey,
		"wrong issuer":   "Bearer " + wrongIssuer,
		"alg none":       "Bearer " + none,
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			he, _ := runJWT(t, testCfg, header)
			if he == nil || he.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %v", he)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  int
	}{
		{"registrar", []string{RoleRegistrar}, http.StatusOK},
		{"admin passes everything", []string{RoleAdmin}, http.StatusOK},
		{"viewer", []string{"viewer"}, http.StatusForbidden},
		{"no roles", nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _ := IssueToken(testCfg, "u", tt.roles, time.Hour)
			e := echo.New()
			e.POST("/create", func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			}, JWTMiddleware(testCfg), RequireRole(RoleRegistrar))

			req := httptest.NewRequest(http.MethodPost, "/create", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
