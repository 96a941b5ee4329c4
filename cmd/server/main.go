package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweetcrumbs/storefront/internal/backend"
	"github.com/sweetcrumbs/storefront/internal/checkout"
	"github.com/sweetcrumbs/storefront/internal/config"
	"github.com/sweetcrumbs/storefront/internal/drafts"
	"github.com/sweetcrumbs/storefront/internal/router"
	"github.com/sweetcrumbs/storefront/internal/session"
	"github.com/sweetcrumbs/storefront/internal/ws"
)

const sweepInterval = 5 * time.Minute

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := backend.NewClient(cfg.BackendURL, &http.Client{Timeout: cfg.BackendTimeout})
	if err != nil {
		log.Fatalf("backend client: %v", err)
	}

	store, closeStore, err := openSessionStore(ctx, cfg)
	if err != nil {
		log.Fatalf("session store: %v", err)
	}
	defer closeStore()

	sessions := session.NewManager(store, cfg.SessionTTL, nil)
	go sessions.RunSweeper(ctx, sweepInterval, log.Printf)

	wizards := drafts.NewStore(cfg.DraftTTL, nil)
	go sweepDrafts(ctx, wizards)

	hub := ws.NewHub()
	go hub.Run(ctx)

	r := router.New(cfg, router.Deps{
		Backend:   client,
		Sessions:  sessions,
		Drafts:    wizards,
		Submitter: checkout.NewSubmitter(client, nil),
		Hub:       hub,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s (backend %s)", cfg.Port, cfg.BackendURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Println("shutting down")
	case err := <-serverErr:
		log.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	} else {
		log.Println("server stopped")
	}
}

// openSessionStore uses Postgres when DATABASE_URL is set and memory otherwise.
func openSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Println("DATABASE_URL not set, sessions are kept in memory")
		return session.NewMemoryStore(), func() {}, nil
	}

	pool, err := session.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := session.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return session.NewPostgresStore(pool), pool.Close, nil
}

func sweepDrafts(ctx context.Context, store *drafts.Store) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(); n > 0 {
				log.Printf("draft sweep: removed %d abandoned wizards", n)
			}
		}
	}
}
