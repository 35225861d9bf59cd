package config // package config loads application configuration from environment variables

import (
    "log"
    "os"
    "strconv"
    "time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Strings for identifiers and secrets, ints and
// durations for the engine's policy constants.
type Config struct {
    Env                string        // application environment (e.g. "dev", "prod")
    Port               string        // HTTP port to listen on
    StoreBackend       string        // "mysql" or "memory"
    DBUser             string        // database username
    DBPass             string        // database password (optional)
    DBHost             string        // database host address
    DBPort             string        // database port number
    DBName             string        // database name
    JWTSecret          string        // secret used to verify customer tokens
    ConfirmationPrefix string        // prefix for confirmation numbers
    ReconcileInterval  time.Duration // how often the reconciler sweeps

    // Engine policy constants.  These feed the default category policy;
    // category overrides would be catalog data, not configuration.
    DepositMultiplier    float64
    RefundRate           float64
    CancellationDeadline time.Duration
    HoldTTL              time.Duration
    LateReturnFeeCents   int64
    OveragePerUnitCents  int64
    MismatchFeeCents     int64
    ExtraItemFeeCents    int64
    ModificationFeeCents int64

    RateLimit RateLimitConfig // token-bucket settings for booking traffic
    Cache     CacheConfig     // response-cache settings for catalog reads
}

// Load reads configuration from environment variables.  Required variables
// are enforced by must() and missing values cause the program to exit with
// a fatal log message; policy knobs carry sensible defaults.
func Load() Config {
    cfg := Config{
        Env:                must("APP_ENV"),  // environment (dev/test/prod)
        Port:               must("APP_PORT"), // port to bind the HTTP server
        StoreBackend:       getenv("STORE_BACKEND", "mysql"),
        JWTSecret:          must("JWT_SECRET"),
        ConfirmationPrefix: getenv("CONFIRMATION_PREFIX", "RES"),
        ReconcileInterval:  envDur("RECONCILE_INTERVAL", 5*time.Minute),

        DepositMultiplier:    envFloat("DEPOSIT_MULTIPLIER", 2.0),
        RefundRate:           envFloat("REFUND_RATE", 0.9),
        CancellationDeadline: envDur("CANCELLATION_DEADLINE", 24*time.Hour),
        HoldTTL:              envDur("HOLD_TTL", 15*time.Minute),
        LateReturnFeeCents:   envInt64("LATE_RETURN_FEE_CENTS", 5000),
        OveragePerUnitCents:  envInt64("OVERAGE_PER_UNIT_CENTS", 25),
        MismatchFeeCents:     envInt64("MISMATCH_FEE_CENTS", 7500),
        ExtraItemFeeCents:    envInt64("EXTRA_ITEM_FEE_CENTS", 3000),
        ModificationFeeCents: envInt64("MODIFICATION_FEE_CENTS", 2500),
    }
    if cfg.StoreBackend == "mysql" {
        cfg.DBUser = must("DB_USER")
        cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
        cfg.DBHost = must("DB_HOST")
        cfg.DBPort = must("DB_PORT")
        cfg.DBName = must("DB_NAME")
    }
    cfg.RateLimit = LoadRateLimitConfig()
    cfg.Cache = LoadCacheConfig()
    return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

func envFloat(key string, def float64) float64 {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    f, err := strconv.ParseFloat(v, 64)
    if err != nil {
        log.Fatalf("invalid float for %s: %q", key, v)
    }
    return f
}

func envInt64(key string, def int64) int64 {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    n, err := strconv.ParseInt(v, 10, 64)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, v)
    }
    return n
}
