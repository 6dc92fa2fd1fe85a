package httpapi

import (
	"net/http"
	"net/url"

	"peopledesk.org/internal/audit"
	"peopledesk.org/internal/obs"
	"peopledesk.org/internal/rbac"
	"peopledesk.org/internal/session"
)

// OutcomeKind classifies a route guard decision.
type OutcomeKind int

const (
	// OutcomeAllowed renders the requested page.
	OutcomeAllowed OutcomeKind = iota
	// OutcomeRedirectToLogin bounces an unauthenticated visitor to the
	// login page, remembering where they were headed.
	OutcomeRedirectToLogin
	// OutcomeDenied keeps the visitor on the attempted URL and shows the
	// access-denied view.
	OutcomeDenied
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAllowed:
		return "allowed"
	case OutcomeRedirectToLogin:
		return "redirect_to_login"
	case OutcomeDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Evaluate is the pure per-navigation authorization decision: given the
// restored session and the page's requirement, produce the outcome. It is
// recomputed on every request and never stored.
func Evaluate(sess *session.Session, required rbac.Role) OutcomeKind {
	switch {
	case !sess.Valid():
		return OutcomeRedirectToLogin
	case !rbac.Authorize(sess.Role, required):
		return OutcomeDenied
	default:
		return OutcomeAllowed
	}
}

// Guard wraps a single route's page handler and gates its rendering. It
// holds no state of its own beyond what it reads from the session manager,
// so mounting many guards is safe.
func (a *API) Guard(required rbac.Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Until the boot probe settles, answer with the neutral loading
		// view: neither the page (no flash of protected content) nor a
		// premature bounce to login.
		if !a.sessions.Ready() {
			obs.ObserveGuard(r.URL.Path, "loading")
			renderLoading(w)
			return
		}

		sess := a.sessions.Restore(r.Context(), a.sessionID(r))
		outcome := Evaluate(sess, required)
		obs.ObserveGuard(r.URL.Path, outcome.String())

		switch outcome {
		case OutcomeRedirectToLogin:
			redirectToLogin(w, r)
		case OutcomeDenied:
			_ = audit.LogEvent(
				session.ContextWithSession(r.Context(), sess),
				"route.access_denied",
				map[string]any{
					"path":     r.URL.Path,
					"required": required.String(),
					"role":     sess.Role.String(),
				},
			)
			renderDenied(w)
		default:
			ctx := session.ContextWithSession(r.Context(), sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	})
}

// redirectToLogin carries the original path (query included) so the login
// flow can return the visitor there after success.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := loginRoute + "?from=" + url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, target, http.StatusSeeOther)
}
