package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sweetcrumbs/storefront/internal/auth"
	"github.com/sweetcrumbs/storefront/internal/config"
	"github.com/sweetcrumbs/storefront/internal/stub"
)

func main() {
	cfg := config.LoadStub()

	// CLI flags override the environment
	email := flag.String("email", cfg.SeedEmail, "Admin email address")
	password := flag.String("password", cfg.SeedPassword, "Admin password")
	name := flag.String("name", "Shop Admin", "Admin full name")
	emptyCatalog := flag.Bool("empty", false, "Start without sample cakes")
	flag.Parse()

	if *password == "admin123" {
		log.Println("WARNING: Using default admin password 'admin123'. Development use only!")
	}

	srv := stub.New(cfg.JWTSecret, auth.DefaultTTL, nil)
	if err := srv.SeedAdmin(*name, *email, *password); err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}
	if !*emptyCatalog {
		srv.SeedCatalog()
	}
	log.Printf("Seeded admin '%s'", *email)

	// The gateway's default BACKEND_URL points at /api.
	r := chi.NewRouter()
	r.Mount("/api", srv.Routes())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Stub backend starting on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		log.Fatalf("Stub backend failed: %v", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: shutdown: %v", err)
	}
	log.Println("Stub backend stopped")
}
