// Package httpapi is the portal's HTTP surface: the route table, the route
// guard in front of every protected page and the login/logout flow.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"peopledesk.org/api/spec"
	"peopledesk.org/internal/obs"
	"peopledesk.org/internal/session"
)

// ReadyProbe answers whether the portal's dependencies can serve traffic.
type ReadyProbe struct {
	Sessions *session.Manager
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.Sessions == nil {
		return nil
	}
	return rp.Sessions.Ping(ctx)
}

// API is the portal HTTP layer.
type API struct {
	mux        *http.ServeMux
	sessions   *session.Manager
	readyProbe ReadyProbe
	version    string
}

// New composes the portal: health/info endpoints, the auth flow and every
// route from the table wrapped in a guard. An invalid route table is a
// configuration bug and fails construction.
func New(sessions *session.Manager, version string, routes []Route) (*API, error) {
	if sessions == nil {
		return nil, errors.New("httpapi: session manager is required")
	}
	if err := validateRouteTable(routes); err != nil {
		return nil, err
	}

	a := &API{
		mux:        http.NewServeMux(),
		sessions:   sessions,
		readyProbe: ReadyProbe{Sessions: sessions},
		version:    version,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/openapi.yaml", a.OpenAPISpec)

	// auth flow: the login path is the only page reachable without a
	// session; logout is always available and always lands on /login.
	// Credential submissions are throttled per client IP.
	a.mux.Handle(loginRoute, RateLimit(http.HandlerFunc(a.handleLogin), 5, 10))
	a.mux.HandleFunc(logoutRoute, a.handleLogout)

	// protected routes, each behind its own guard
	for _, route := range routes {
		a.mux.Handle(route.Path, a.Guard(route.Required, route.Handler))
	}

	// catch-all: "/" forwards to the portal's landing page, everything
	// unmatched renders not-found without consulting authorization.
	a.mux.HandleFunc("/", a.handleRoot)

	return a, nil
}

// Handler returns the full middleware-wrapped portal handler.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = SecurityHeaders(h)
	h = CORS(h)
	h = MaxBodyBytes(h, 1<<20)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		http.Redirect(w, r, landingRoute, http.StatusSeeOther)
		return
	}
	renderNotFound(w)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "peopledesk-portal",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	_, _ = w.Write(spec.OpenAPI)
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "peopledesk-portal",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
