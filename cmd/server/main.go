package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resource-reservation/internal/catalog"
	"github.com/iliyamo/resource-reservation/internal/config"
	"github.com/iliyamo/resource-reservation/internal/database"
	"github.com/iliyamo/resource-reservation/internal/engine"
	"github.com/iliyamo/resource-reservation/internal/handler"
	"github.com/iliyamo/resource-reservation/internal/ledger"
	"github.com/iliyamo/resource-reservation/internal/queue"
	"github.com/iliyamo/resource-reservation/internal/router"
)

func main() {
	// Load .env if present; real environments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	// Storage backend: MySQL in deployments, in-memory for local runs
	// and demos (STORE_BACKEND=memory).
	var (
		store ledger.Ledger
		cat   catalog.Catalog
	)
	switch cfg.StoreBackend {
	case "memory":
		store = ledger.NewMemory()
		cat = catalog.NewMemory()
		log.Printf("using in-memory store; reservations will not survive a restart")
	default:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		store = ledger.NewMySQL(db)
		cat = catalog.NewMySQL(db)
	}

	// Redis backs the rate limiter and the catalog response cache.  A nil
	// client disables both rather than blocking startup.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response caching disabled")
	}

	policies := engine.NewPolicies(engine.Policy{
		DepositMultiplier:    cfg.DepositMultiplier,
		RefundRate:           cfg.RefundRate,
		CancellationDeadline: cfg.CancellationDeadline,
		HoldTTL:              cfg.HoldTTL,
		LateReturnFeeCents:   cfg.LateReturnFeeCents,
		OveragePerUnitCents:  cfg.OveragePerUnitCents,
		MismatchFeeCents:     cfg.MismatchFeeCents,
		ExtraItemFeeCents:    cfg.ExtraItemFeeCents,
		ModificationFeeCents: cfg.ModificationFeeCents,
	})

	clock := engine.SystemClock{}
	notifier := queue.NewPublisher()
	svc := engine.NewService(cat, store, policies, notifier, clock, cfg.ConfirmationPrefix)

	// Background reconciliation: expired holds are cancelled and due
	// reservations activated on every tick.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reconciler := engine.NewReconciler(store, cat, svc.Availability(), engine.NewStateMachine(clock), notifier, clock, cfg.ReconcileInterval)
	go func() {
		if err := reconciler.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("reconciler stopped: %v", err)
		}
	}()

	// Consume lifecycle events off the broker and append them to the
	// notification log.
	go func() {
		if err := queue.StartEventConsumer(); err != nil {
			log.Printf("event consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterCatalog(e, handler.NewResourceHandler(cat), cfg.Cache, rdb)
	router.RegisterReservations(e, handler.NewReservationHandler(svc), handler.SweepHandler(reconciler), &cfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, store=%s)", addr, cfg.Env, cfg.StoreBackend)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
