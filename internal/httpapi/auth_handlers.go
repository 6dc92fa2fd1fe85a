package httpapi

import (
	"net/http"
	"strings"
	"time"

	"peopledesk.org/internal/audit"
	"peopledesk.org/internal/ids"
	"peopledesk.org/internal/obs"
	"peopledesk.org/internal/session"
)

const sessionCookieName = "peopledesk_sid"

// sessionID reads the visitor's session cookie. An absent cookie yields the
// empty string, which the session manager treats as "no session".
func (a *API) sessionID(r *http.Request) string {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// setSessionCookie points the browser at sid. The cookie itself carries no
// auth state; the session blob lives server-side under this id.
func setSessionCookie(w http.ResponseWriter, sid string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

type loginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	From     string `json:"from,omitempty"`
}

// handleLogin serves the sign-in page and processes credential submissions.
// Browser form posts get a redirect on success and the form re-rendered with
// the error inline on failure; JSON clients get the LoginResult verbatim.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		renderLoginForm(w, http.StatusOK, r.URL.Query().Get("from"), "", "")
	case http.MethodPost:
		a.processLogin(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) processLogin(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	wantsJSON := strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
	if wantsJSON {
		if err := decodeJSON(w, r, &form); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, r, http.StatusBadRequest, "malformed form body")
			return
		}
		form.Email = r.PostFormValue("email")
		form.Password = r.PostFormValue("password")
		form.From = r.PostFormValue("from")
	}

	// Attempts before authentication share the cookie's sid; the manager
	// rotates it on success so the pre-auth id never names a session.
	sid := a.sessionID(r)
	if sid == "" {
		sid = ids.New()
	}
	result := a.sessions.Login(r.Context(), sid, form.Email, form.Password)

	if !result.Success {
		if result.Error == session.ErrMsgNetwork {
			obs.ObserveLogin("network_error")
		} else {
			obs.ObserveLogin("invalid_credentials")
		}
		_ = audit.LogEvent(r.Context(), "auth.login.failure", map[string]any{
			"email": strings.ToLower(strings.TrimSpace(form.Email)),
			"error": result.Error,
		})
		setSessionCookie(w, sid)
		if wantsJSON {
			writeJSON(w, http.StatusUnauthorized, result)
			return
		}
		renderLoginForm(w, http.StatusUnauthorized, form.From, form.Email, result.Error)
		return
	}

	obs.ObserveLogin("success")
	setSessionCookie(w, result.SID)
	fields := map[string]any{"email": strings.ToLower(strings.TrimSpace(form.Email))}
	if sess := a.sessions.Restore(r.Context(), result.SID); sess.Valid() {
		fields["email"] = sess.Email
		fields["role"] = sess.Role.String()
	}
	_ = audit.LogEvent(r.Context(), "auth.login.success", fields)
	if wantsJSON {
		writeJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, safeReturnPath(form.From), http.StatusSeeOther)
}

// handleLogout clears the visitor's server-side session and expires the
// cookie. It is idempotent and always lands on the login page.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	sid := a.sessionID(r)
	sess := a.sessions.Restore(r.Context(), sid)
	a.sessions.Logout(r.Context(), sid)
	if sess.Valid() {
		_ = audit.LogEvent(r.Context(), "auth.logout", map[string]any{
			"email": sess.Email,
		})
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
	http.Redirect(w, r, loginRoute, http.StatusSeeOther)
}

// safeReturnPath confines post-login redirects to portal-local paths so a
// crafted from parameter cannot bounce the visitor off-site.
func safeReturnPath(from string) string {
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") {
		return landingRoute
	}
	if path := strings.SplitN(from, "?", 2)[0]; path == loginRoute || path == logoutRoute {
		return landingRoute
	}
	return from
}
