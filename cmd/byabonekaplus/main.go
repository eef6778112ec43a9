package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rwandatech/byaboneka-plus/internal/api"
	"github.com/rwandatech/byaboneka-plus/internal/auth"
	"github.com/rwandatech/byaboneka-plus/internal/claims"
	"github.com/rwandatech/byaboneka-plus/internal/db"
	"github.com/rwandatech/byaboneka-plus/internal/handover"
	"github.com/rwandatech/byaboneka-plus/internal/matching"
	"github.com/rwandatech/byaboneka-plus/internal/queue"
	"github.com/rwandatech/byaboneka-plus/internal/secretstore"
	"github.com/rwandatech/byaboneka-plus/internal/trust"
	"github.com/rwandatech/byaboneka-plus/internal/verification"
)

// reapInterval governs how often the Claim State Machine's daily reaper
// sweep runs.
const reapInterval = 6 * time.Hour

// reapBatchSize bounds each reaper pass the way the matching engine
// bounds its own candidate passes.
const reapBatchSize = 200

func main() {
	log := mustLogger()
	defer log.Sync()
	sugar := log.Sugar()

	sugar.Info("starting Byaboneka+ Core")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbURL := requireEnv(sugar, "DATABASE_URL")
	maxConns := getEnvIntOrDefault(sugar, "DB_MAX_CONNS", 20)
	store, err := db.Connect(ctx, dbURL, maxConns)
	if err != nil {
		sugar.Fatalw("failed to connect to postgres", "error", err)
	}
	defer store.Close()

	if err := store.InitSchema(ctx, db.SchemaSQL); err != nil {
		sugar.Fatalw("failed to apply schema", "error", err)
	}

	jwtSecret := requireEnv(sugar, "JWT_SECRET")
	issuer := auth.NewTokenIssuer([]byte(jwtSecret))
	authSvc := auth.NewService(store, issuer)

	secrets := secretstore.New(store)
	ledger := trust.NewLedger(store, sugar)
	verifyEngine := verification.NewEngine(store, secrets, store, ledger, sugar)
	ho := handover.New(store, ledger)

	q := queue.New(ctx, queue.DefaultCapacity, queue.DefaultTaskBudget, sugar)

	hub := api.NewHub()
	go hub.Run()

	machine := claims.NewMachine(store, verifyEngine, ho, q, hub, sugar)
	matcher := matching.NewEngine(store, store, sugar)

	go runReaper(ctx, machine, sugar)

	r := api.SetupRouter(store, authSvc, issuer, machine, matcher, secrets, ledger, q, hub, sugar)

	port := getEnvOrDefault("PORT", "8080")
	sugar.Infow("listening", "port", port)
	if err := r.Run(":" + port); err != nil {
		sugar.Fatalw("server exited", "error", err)
	}
}

// runReaper periodically expires stale Pending claims until ctx is
// cancelled.
func runReaper(ctx context.Context, machine *claims.Machine, log *zap.SugaredLogger) {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := machine.ReapExpired(ctx, reapBatchSize)
			if err != nil {
				log.Errorw("reaper pass failed", "error", err)
				continue
			}
			if n > 0 {
				log.Infow("reaper pass expired stale claims", "count", n)
			}
		}
	}
}

func mustLogger() *zap.Logger {
	if getEnvOrDefault("ENV", "development") == "production" {
		l, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		return l
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return l
}

// requireEnv reads a required environment variable and exits if it is not
// set, failing fast on misconfiguration rather than limping along.
func requireEnv(log *zap.SugaredLogger, key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalw("required environment variable is not set", "key", key)
	}
	return val
}

// getEnvOrDefault returns the env var value or a safe default for
// non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvIntOrDefault parses an int32 env var, falling back (and warning)
// on an unset or malformed value.
func getEnvIntOrDefault(log *zap.SugaredLogger, key string, fallback int32) int32 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.ParseInt(val, 10, 32)
	if err != nil {
		log.Warnw("invalid integer env var, using default", "key", key, "value", val, "default", fallback)
		return fallback
	}
	return int32(n)
}
