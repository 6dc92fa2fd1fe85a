package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"peopledesk.org/internal/rbac"
	"peopledesk.org/internal/session"
)

type authnFunc func(ctx context.Context, email, password string) session.AuthOutcome

func (f authnFunc) Exchange(ctx context.Context, email, password string) session.AuthOutcome {
	return f(ctx, email, password)
}

// demoAuthn accepts any password and grants the role registered for the
// email, mirroring the upstream exchange without a network hop.
func demoAuthn(roles map[string]rbac.Role) session.Authenticator {
	return authnFunc(func(_ context.Context, email, _ string) session.AuthOutcome {
		role, ok := roles[email]
		if !ok {
			return session.AuthOutcome{Error: session.ErrMsgInvalidCredentials}
		}
		return session.AuthOutcome{
			Success: true,
			Session: &session.Session{
				Email:    email,
				Name:     "Test User",
				Role:     role,
				Token:    "tok-" + email,
				IssuedAt: time.Now().UTC(),
			},
		}
	})
}

func newTestAPI(t *testing.T, start bool) (*API, *session.Manager, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore()
	mgr, err := session.NewManager(store, demoAuthn(map[string]rbac.Role{
		"employee@company.com": rbac.RoleEmployee,
		"hr@company.com":       rbac.RoleHRManager,
		"admin@company.com":    rbac.RoleAdmin,
	}))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if start {
		mgr.Start(context.Background())
	}
	a, err := New(mgr, "test", DefaultRoutes())
	if err != nil {
		t.Fatalf("new api: %v", err)
	}
	return a, mgr, store
}

// seedSession writes a session blob for sid straight into the store.
func seedSession(t *testing.T, store *session.MemoryStore, sid string, role rbac.Role) {
	t.Helper()
	blob, err := session.Encode(&session.Session{
		Email:    "seeded@company.com",
		Name:     "Seeded User",
		Role:     role,
		Token:    "tok-seeded",
		IssuedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("encode session: %v", err)
	}
	if err := store.Save(context.Background(), sid, blob, time.Hour); err != nil {
		t.Fatalf("save session: %v", err)
	}
}

func getWithSID(t *testing.T, h http.Handler, path, sid string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: sid})
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestGuardRendersLoadingBeforeStart(t *testing.T) {
	a, _, store := newTestAPI(t, false)
	seedSession(t, store, "sid-1", rbac.RoleAdmin)

	rr := getWithSID(t, a.Handler(), "/dashboard", "sid-1")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while loading, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After on loading view")
	}
}

func TestGuardRedirectsAnonymousToLogin(t *testing.T) {
	a, _, _ := newTestAPI(t, true)

	rr := getWithSID(t, a.Handler(), "/asset-management?tab=laptops", "")
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rr.Code)
	}
	want := "/login?from=%2Fasset-management%3Ftab%3Dlaptops"
	if got := rr.Header().Get("Location"); got != want {
		t.Fatalf("expected redirect to %q, got %q", want, got)
	}
}

func TestGuardDeniesInsufficientRole(t *testing.T) {
	a, _, store := newTestAPI(t, true)
	seedSession(t, store, "sid-emp", rbac.RoleEmployee)

	rr := getWithSID(t, a.Handler(), "/admin", "sid-emp")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "" {
		t.Fatalf("denied view must not redirect, got Location %q", loc)
	}
}

func TestGuardAllowsHigherRole(t *testing.T) {
	a, _, store := newTestAPI(t, true)
	seedSession(t, store, "sid-admin", rbac.RoleAdmin)

	rr := getWithSID(t, a.Handler(), "/dashboard", "sid-admin")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestGuardInjectsSessionIntoContext(t *testing.T) {
	_, mgr, store := newTestAPI(t, true)
	seedSession(t, store, "sid-hr", rbac.RoleHRManager)

	var got *session.Session
	probe := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = session.MustFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	a, err := New(mgr, "test", []Route{
		{Path: "/probe", Required: rbac.RoleEmployee, Handler: probe},
	})
	if err != nil {
		t.Fatalf("new api: %v", err)
	}

	rr := getWithSID(t, a.Handler(), "/probe", "sid-hr")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got == nil || got.Email != "seeded@company.com" || got.Role != rbac.RoleHRManager {
		t.Fatalf("unexpected session in context: %+v", got)
	}
}

func TestEvaluateOutcomes(t *testing.T) {
	hr := &session.Session{
		Email:    "hr@company.com",
		Name:     "HR Manager",
		Role:     rbac.RoleHRManager,
		Token:    "tok",
		IssuedAt: time.Now().UTC(),
	}

	cases := []struct {
		name     string
		sess     *session.Session
		required rbac.Role
		want     OutcomeKind
	}{
		{"nil session", nil, rbac.RoleEmployee, OutcomeRedirectToLogin},
		{"invalid session", &session.Session{Email: "x@y"}, rbac.RoleEmployee, OutcomeRedirectToLogin},
		{"exact role", hr, rbac.RoleHRManager, OutcomeAllowed},
		{"higher role", hr, rbac.RoleEmployee, OutcomeAllowed},
		{"insufficient role", hr, rbac.RoleAdmin, OutcomeDenied},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Evaluate(tc.sess, tc.required); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
