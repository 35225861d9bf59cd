package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resource-reservation/internal/utils"
)

const testSecret = "test-secret"

func doRequest(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, string, string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/my-reservations", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotCustomer, gotRole string
	handler := mw(func(c echo.Context) error {
		gotCustomer = CustomerID(c)
		gotRole, _ = c.Get("role").(string)
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec, gotCustomer, gotRole
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, "cust-42", "CUSTOMER", time.Hour)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	rec, customer, role := doRequest(t, JWTAuth(testSecret), "Bearer "+tok.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if customer != "cust-42" || role != "CUSTOMER" {
		t.Fatalf("claims = %q/%q", customer, role)
	}
}

func TestJWTAuthRejectsBadTokens(t *testing.T) {
	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tc := range cases {
		rec, _, _ := doRequest(t, JWTAuth(testSecret), tc.header)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d, want 401", tc.name, rec.Code)
		}
	}
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	tok, err := utils.NewAccessToken("other-secret", "cust-42", "CUSTOMER", time.Hour)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	rec, _, _ := doRequest(t, JWTAuth(testSecret), "Bearer "+tok.Token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthRejectsExpiredToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, "cust-42", "CUSTOMER", -time.Minute)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	rec, _, _ := doRequest(t, JWTAuth(testSecret), "Bearer "+tok.Token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	mw := RequireRole("AGENT")
	e := echo.New()

	run := func(role string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/reservations/r1/activate", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != "" {
			c.Set("role", role)
		}
		h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
		if err := h(c); err != nil {
			t.Fatalf("handler: %v", err)
		}
		return rec.Code
	}

	if code := run("AGENT"); code != http.StatusOK {
		t.Fatalf("agent: status = %d", code)
	}
	if code := run("CUSTOMER"); code != http.StatusForbidden {
		t.Fatalf("customer: status = %d", code)
	}
	if code := run(""); code != http.StatusForbidden {
		t.Fatalf("no role: status = %d", code)
	}
}
