package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"peopledesk.org/internal/authd"
	"peopledesk.org/internal/directory"
	"peopledesk.org/internal/httpapi"
	"peopledesk.org/internal/obs"
)

var version = "1.0.0"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("AUTHD_COMMIT"))

	addr := envOr("AUTHD_ADDR", ":8081")
	secret := os.Getenv("AUTHD_TOKEN_SECRET")
	if secret == "" {
		log.Fatal("AUTHD_TOKEN_SECRET is required")
	}

	// Accounts come from Postgres when a DSN is configured; otherwise the
	// seeded in-memory directory backs local development.
	var dir directory.Directory
	var pg *directory.Postgres
	if dsn := os.Getenv("AUTHD_PG_DSN"); dsn != "" {
		var err error
		pg, err = directory.OpenPostgres(dsn)
		if err != nil {
			log.Fatalf("open postgres: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := pg.EnsureSchema(ctx); err != nil {
			cancel()
			log.Fatalf("ensure schema: %v", err)
		}
		cancel()
		dir = pg
	} else {
		mem, err := directory.NewSeededMemory(directory.DemoAccounts())
		if err != nil {
			log.Fatalf("seed directory: %v", err)
		}
		dir = mem
	}

	issuer, err := authd.NewTokenIssuer(secret, 12*time.Hour)
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}
	server, err := authd.NewServer(dir, issuer)
	if err != nil {
		log.Fatalf("authd server: %v", err)
	}

	// Credential exchanges are throttled per client IP.
	handler := httpapi.RequestID(httpapi.LoggingJSON(httpapi.RateLimit(server.Handler(), 5, 10)))

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting peopledesk-authd %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if pg != nil {
		_ = pg.Close()
	}
	log.Println("Stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
