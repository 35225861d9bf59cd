package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resource-reservation/internal/catalog"
	"github.com/iliyamo/resource-reservation/internal/config"
	"github.com/iliyamo/resource-reservation/internal/engine"
	"github.com/iliyamo/resource-reservation/internal/handler"
	"github.com/iliyamo/resource-reservation/internal/ledger"
	"github.com/iliyamo/resource-reservation/internal/utils"
)

const testSecret = "router-secret"

// newTestEcho registers the full route surface over in-memory stores with
// Redis absent, so the limiter and cache run in their fail-open mode.
func newTestEcho() *echo.Echo {
	store := ledger.NewMemory()
	cat := catalog.NewMemory()
	svc := engine.NewService(cat, store, engine.NewPolicies(engine.DefaultPolicy()), engine.LogNotifier{}, engine.SystemClock{}, "RES")
	rec := engine.NewReconciler(store, cat, svc.Availability(), engine.NewStateMachine(engine.SystemClock{}), engine.LogNotifier{}, engine.SystemClock{}, time.Minute)
	cfg := &config.Config{JWTSecret: testSecret}

	e := echo.New()
	RegisterRoutes(e)
	RegisterCatalog(e, handler.NewResourceHandler(cat), cfg.Cache, nil)
	RegisterReservations(e, handler.NewReservationHandler(svc), handler.SweepHandler(rec), cfg, nil)
	return e
}

func do(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestReservationRoutesRequireToken(t *testing.T) {
	e := newTestEcho()
	if rec := do(e, http.MethodGet, "/v1/my-reservations", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list: %d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/v1/admin/sweep", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated sweep: %d", rec.Code)
	}
}

func TestAgentRoutesShareMiddlewareChain(t *testing.T) {
	e := newTestEcho()

	cust, err := utils.NewAccessToken(testSecret, "cust-1", "CUSTOMER", time.Hour)
	if err != nil {
		t.Fatalf("mint customer token: %v", err)
	}
	// Customers cannot reach agent operations.
	if rec := do(e, http.MethodPost, "/v1/reservations/ghost/activate", cust.Token); rec.Code != http.StatusForbidden {
		t.Fatalf("customer activate: %d", rec.Code)
	}

	agent, err := utils.NewAccessToken(testSecret, "agent-1", "AGENT", time.Hour)
	if err != nil {
		t.Fatalf("mint agent token: %v", err)
	}
	// An agent passes the role gate and the limiter and reaches the
	// handler, which reports the unknown reservation.
	if rec := do(e, http.MethodPost, "/v1/reservations/ghost/activate", agent.Token); rec.Code != http.StatusNotFound {
		t.Fatalf("agent activate unknown id: %d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/v1/admin/sweep", agent.Token); rec.Code != http.StatusOK {
		t.Fatalf("agent sweep: %d", rec.Code)
	}
}

func TestHealthRouteIsPublic(t *testing.T) {
	e := newTestEcho()
	if rec := do(e, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("health: %d", rec.Code)
	}
}
