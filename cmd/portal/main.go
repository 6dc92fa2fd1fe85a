package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"peopledesk.org/internal/httpapi"
	"peopledesk.org/internal/obs"
	"peopledesk.org/internal/session"
	"peopledesk.org/internal/upstream"
)

var version = "1.0.0"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("PORTAL_COMMIT"))

	addr := envOr("PORTAL_ADDR", ":8080")
	authURL := envOr("PORTAL_AUTH_URL", "http://localhost:8081")

	// Session blobs live in Redis when an address is configured; the
	// in-process store keeps local development dependency-free.
	var store session.Store
	if redisAddr := os.Getenv("PORTAL_REDIS_ADDR"); redisAddr != "" {
		rs, err := session.OpenRedisStore(redisAddr)
		if err != nil {
			log.Fatalf("open redis: %v", err)
		}
		store = rs
	} else {
		store = session.NewMemoryStore()
	}

	authn, err := upstream.NewClient(authURL, upstream.WithAPIKey(os.Getenv("PORTAL_AUTH_API_KEY")))
	if err != nil {
		log.Fatalf("auth client: %v", err)
	}

	var opts []session.Option
	if raw := os.Getenv("PORTAL_SESSION_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("parse PORTAL_SESSION_TTL: %v", err)
		}
		opts = append(opts, session.WithTTL(ttl))
	}
	sessions, err := session.NewManager(store, authn, opts...)
	if err != nil {
		log.Fatalf("session manager: %v", err)
	}

	// The boot probe runs off the serving path; guards answer with the
	// loading view until it settles.
	go sessions.Start(context.Background())

	api, err := httpapi.New(sessions, version, httpapi.DefaultRoutes())
	if err != nil {
		log.Fatalf("http api: %v", err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting peopledesk-portal %s on %s", version, srv.Addr)

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
	log.Println("Stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
