package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Astitva-Bhardwaj/Video-Call/config"
	"github.com/Astitva-Bhardwaj/Video-Call/internal/memory"
	"github.com/Astitva-Bhardwaj/Video-Call/internal/postgres"
	"github.com/Astitva-Bhardwaj/Video-Call/internal/registry"
	"github.com/Astitva-Bhardwaj/Video-Call/internal/room"
	"github.com/Astitva-Bhardwaj/Video-Call/internal/security"
	"github.com/Astitva-Bhardwaj/Video-Call/internal/service"
	httpx "github.com/Astitva-Bhardwaj/Video-Call/internal/transport/http"
	"github.com/Astitva-Bhardwaj/Video-Call/internal/transport/ws"
	"github.com/Astitva-Bhardwaj/Video-Call/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting signaling-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	ctx := context.Background()

	// --- meeting store: postgres при заданном DSN, иначе in-memory ---
	var store service.MeetingStore
	if cfg.Postgres.DSN != "" {
		db, err := postgres.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer db.Close()
		store = postgres.NewMeetingRepository(db.Pool)
		slog.Info("meeting store: postgres")
	} else {
		store = memory.NewMeetingStore()
		slog.Info("meeting store: in-memory")
	}

	// --- auth ---
	pemBytes, err := os.ReadFile(cfg.Auth.PublicKeyPath)
	if err != nil {
		log.Fatalf("read jwt public key: %v", err)
	}
	pub, err := security.LoadRSAPublicKeyFromPEM(pemBytes)
	if err != nil {
		log.Fatalf("parse jwt public key: %v", err)
	}
	verifier := security.NewTokenVerifier(pub, cfg.Auth.Issuer,
		time.Duration(cfg.Auth.ClockSkewSec)*time.Second)

	// --- core state ---
	reg := registry.NewRegistry()
	rooms := room.NewTable(reg, cfg.Signaling.RoomCapacity)
	hub := ws.NewHub()
	relay := ws.NewRelay(reg, hub)

	// --- services ---
	meetingSvc := service.NewMeetingService(store)
	gate := service.NewGatekeeper(store, rooms, hub)

	// --- transports ---
	wsServer := ws.NewServer(hub, reg, rooms, gate, relay, verifier)
	handler := httpx.NewHandler(meetingSvc, gate)
	router := httpx.NewRouter(handler, wsServer, verifier, cfg.HTTP.AllowedOrigins)

	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
