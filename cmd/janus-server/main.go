package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/openmakerlabs/janus/internal/config"
	"github.com/openmakerlabs/janus/internal/db"
	"github.com/openmakerlabs/janus/internal/httpapi"
	"github.com/openmakerlabs/janus/internal/janus/service"
	"github.com/openmakerlabs/janus/internal/janus/store/sqlite"
)

func main() {
	// .env is optional; real env vars always win.
	_ = godotenv.Load()

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "janus-server ", log.LstdFlags|log.LUTC)

	if cfg.JWTSecret == "" {
		if cfg.Env == "prod" {
			logger.Fatal("JANUS_JWT_SECRET is required in prod")
		}
		cfg.JWTSecret = "dev-only-secret"
		logger.Printf("JANUS_JWT_SECRET not set, using dev default")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer sqlDB.Close()

	if cfg.Env == "dev" {
		if err := db.SeedDev(ctx, sqlDB, db.SeedDevOptions{}); err != nil {
			logger.Fatalf("seed dev data: %v", err)
		}
	}

	writer := db.NewWorker(sqlDB)
	defer writer.Close()

	// Stores
	adminStore := sqlite.NewAdminStore(sqlDB, writer)
	doorStore := sqlite.NewDoorStore(sqlDB, writer)
	capStore := sqlite.NewCapabilityStore(sqlDB, writer)
	userStore := sqlite.NewLockUserStore(sqlDB, writer)
	cardStore := sqlite.NewKeycardStore(sqlDB, writer)
	sessionStore := sqlite.NewScanSessionStore(sqlDB, writer)
	eventStore := sqlite.NewAccessEventStore(sqlDB, writer)

	// Services
	clock := service.UTCNow
	ledger := service.NewKeycardLedger(cardStore, clock)
	tracker := service.NewScanTracker(sessionStore, writer,
		time.Duration(cfg.ScanTimeoutMinutes)*time.Minute, clock)
	registry := service.NewDoorRegistry(doorStore, capStore, userStore, ledger, writer, clock)
	directory := service.NewLockUserDirectory(userStore, ledger, tracker, writer, clock)
	scope := service.NewAdminScope(doorStore, capStore, userStore)
	admins := service.NewAdmins(adminStore, capStore, doorStore, clock)
	ingest := service.NewIngest(doorStore, userStore, cardStore, eventStore, tracker, clock, logger)

	pruner := service.NewSessionPruner(sessionStore, service.PrunerConfig{
		RetentionHours: cfg.SessionRetentionHours,
		IntervalHours:  cfg.PruneIntervalHours,
	}, clock, logger)
	pruner.Start(ctx)
	defer pruner.Stop()

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:    logger,
		Addr:      cfg.HTTPAddr,
		JWTSecret: cfg.JWTSecret,
		JWTTTL:    time.Duration(cfg.JWTTTLHours) * time.Hour,
		Admins:    admins,
		Doors:     registry,
		Directory: directory,
		Ledger:    ledger,
		Tracker:   tracker,
		Scope:     scope,
		Ingest:    ingest,
		Clock:     clock,
	})

	go func() {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
