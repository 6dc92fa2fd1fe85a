package httpapi

import (
	"bytes"
	"html/template"
	"net/http"

	"peopledesk.org/internal/rbac"
	"peopledesk.org/internal/session"
)

// The portal's pages are deliberately plain server-rendered HTML. The layout
// is shared; each view contributes a title and a body fragment.
var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}} - PeopleDesk</title></head>
<body>
{{.Body}}
</body>
</html>
`))

type pageData struct {
	Title string
	Body  template.HTML
}

func renderPage(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = pageTmpl.Execute(w, data)
}

// renderLoading is the neutral view shown while the boot probe is still
// settling. It answers 503 so health-checking proxies keep retrying.
func renderLoading(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "1")
	renderPage(w, http.StatusServiceUnavailable, pageData{
		Title: "Loading",
		Body:  `<p>Loading&hellip;</p>`,
	})
}

// renderDenied keeps the visitor on the attempted URL and offers a way
// back; the address bar never lies about where they are.
func renderDenied(w http.ResponseWriter) {
	renderPage(w, http.StatusForbidden, pageData{
		Title: "Access Denied",
		Body: `<h1>Access Denied</h1>
<p>You do not have permission to view this page.</p>
<p><a href="javascript:history.back()">Go back</a></p>`,
	})
}

func renderNotFound(w http.ResponseWriter) {
	renderPage(w, http.StatusNotFound, pageData{
		Title: "Not Found",
		Body:  `<h1>Not Found</h1><p>The page you requested does not exist.</p>`,
	})
}

var loginTmpl = template.Must(template.New("login").Parse(`<h1>Sign in to PeopleDesk</h1>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<form method="post" action="/login">
  <input type="hidden" name="from" value="{{.From}}">
  <label>Email <input type="email" name="email" value="{{.Email}}" required></label>
  <label>Password <input type="password" name="password" required></label>
  <button type="submit">Sign in</button>
</form>
`))

// renderLoginForm re-renders with the submitted email on rejection so the
// visitor's in-progress input is not cleared; only the password resets.
func renderLoginForm(w http.ResponseWriter, status int, from, email, errMsg string) {
	var b bytes.Buffer
	_ = loginTmpl.Execute(&b, struct {
		From  string
		Email string
		Error string
	}{From: from, Email: email, Error: errMsg})
	renderPage(w, status, pageData{Title: "Sign In", Body: template.HTML(b.String())})
}

// PageHandler renders a placeholder page for a guarded route. It reads the
// session from the context, which only exists behind a guard.
func PageHandler(title string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.MustFromContext(r.Context())
		body := `<h1>` + template.HTMLEscapeString(title) + `</h1>
<p>Signed in as ` + template.HTMLEscapeString(sess.Name) + ` (` + template.HTMLEscapeString(sess.Role.String()) + `)</p>
<form method="post" action="/logout"><button type="submit">Sign out</button></form>`
		renderPage(w, http.StatusOK, pageData{Title: title, Body: template.HTML(body)})
	})
}

// AssetPageHandler is the asset register page. The export affordance only
// appears for HR managers and above; the guard has already ensured the
// visitor may see the page at all.
func AssetPageHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.MustFromContext(r.Context())
		body := `<h1>Asset Management</h1>
<p>Signed in as ` + template.HTMLEscapeString(sess.Name) + ` (` + template.HTMLEscapeString(sess.Role.String()) + `)</p>`
		if rbac.Authorize(sess.Role, rbac.RoleHRManager) {
			body += `
<form method="post" action="/asset-management/export"><button type="submit">Export CSV</button></form>`
		}
		body += `
<form method="post" action="/logout"><button type="submit">Sign out</button></form>`
		renderPage(w, http.StatusOK, pageData{Title: "Asset Management", Body: template.HTML(body)})
	})
}
