package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"peopledesk.org/internal/rbac"
)

func postForm(t *testing.T, h http.Handler, path string, form url.Values, sid string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: sid})
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func sidFromResponse(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c.Value
		}
	}
	t.Fatal("expected session cookie in response")
	return ""
}

func TestLoginFormFlowHonorsFrom(t *testing.T) {
	a, _, _ := newTestAPI(t, true)
	h := a.Handler()

	rr := postForm(t, h, loginRoute, url.Values{
		"email":    {"hr@company.com"},
		"password": {"hr123"},
		"from":     {"/asset-management"},
	}, "")
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 after login, got %d", rr.Code)
	}
	if got := rr.Header().Get("Location"); got != "/asset-management" {
		t.Fatalf("expected redirect to /asset-management, got %q", got)
	}
	sid := sidFromResponse(t, rr)

	page := getWithSID(t, h, "/asset-management", sid)
	if page.Code != http.StatusOK {
		t.Fatalf("expected 200 after login, got %d", page.Code)
	}
	if !strings.Contains(page.Body.String(), "Export CSV") {
		t.Fatal("expected export affordance for HR manager")
	}
}

func TestLoginRejectionRendersFormWithError(t *testing.T) {
	a, _, _ := newTestAPI(t, true)

	rr := postForm(t, a.Handler(), loginRoute, url.Values{
		"email":    {"nobody@company.com"},
		"password": {"wrong"},
		"from":     {"/dashboard"},
	}, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Invalid credentials") {
		t.Fatal("expected inline error message")
	}
	// The visitor's in-progress input survives the rejection.
	if !strings.Contains(body, `value="nobody@company.com"`) {
		t.Fatal("expected submitted email kept in the form")
	}
	if !strings.Contains(body, `name="from" value="/dashboard"`) {
		t.Fatal("expected from carried through the rejection")
	}
}

func TestLoginRotatesSessionCookie(t *testing.T) {
	a, _, _ := newTestAPI(t, true)
	h := a.Handler()

	rr := postForm(t, h, loginRoute, url.Values{
		"email":    {"hr@company.com"},
		"password": {"hr123"},
	}, "pre-auth-sid")
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 after login, got %d", rr.Code)
	}
	sid := sidFromResponse(t, rr)
	if sid == "pre-auth-sid" {
		t.Fatal("session cookie must be rotated on login")
	}

	// The pre-authentication id names no session.
	if got := getWithSID(t, h, "/dashboard", "pre-auth-sid"); got.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect for pre-auth sid, got %d", got.Code)
	}
	if got := getWithSID(t, h, "/dashboard", sid); got.Code != http.StatusOK {
		t.Fatalf("expected 200 for rotated sid, got %d", got.Code)
	}
}

func TestLoginJSONClient(t *testing.T) {
	a, _, _ := newTestAPI(t, true)
	h := a.Handler()

	body := strings.NewReader(`{"email":"admin@company.com","password":"admin123"}`)
	req := httptest.NewRequest(http.MethodPost, loginRoute, body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode login result: %v", err)
	}
	if !result.Success || result.Error != "" {
		t.Fatalf("unexpected result: %+v", result)
	}
	sidFromResponse(t, rr)
}

func TestLoginJSONRejectionKeepsMessage(t *testing.T) {
	a, _, _ := newTestAPI(t, true)

	body := strings.NewReader(`{"email":"admin@company.com","password":""}`)
	req := httptest.NewRequest(http.MethodPost, loginRoute, body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	a.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode login result: %v", err)
	}
	if result.Success || result.Error == "" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	a, _, store := newTestAPI(t, true)
	h := a.Handler()
	seedSession(t, store, "sid-out", rbac.RoleEmployee)

	rr := postForm(t, h, logoutRoute, nil, "sid-out")
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 after logout, got %d", rr.Code)
	}
	if got := rr.Header().Get("Location"); got != loginRoute {
		t.Fatalf("expected redirect to %s, got %q", loginRoute, got)
	}

	after := getWithSID(t, h, "/dashboard", "sid-out")
	if after.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect to login after logout, got %d", after.Code)
	}
}

func TestLoginPageRendersWithFrom(t *testing.T) {
	a, _, _ := newTestAPI(t, true)

	rr := getWithSID(t, a.Handler(), "/login?from=%2Fadmin", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `name="from" value="/admin"`) {
		t.Fatal("expected from carried into the form")
	}
}

func TestSafeReturnPath(t *testing.T) {
	cases := []struct {
		from string
		want string
	}{
		{"", landingRoute},
		{"/dashboard", "/dashboard"},
		{"/asset-management?tab=laptops", "/asset-management?tab=laptops"},
		{"https://evil.example/", landingRoute},
		{"//evil.example", landingRoute},
		{"/login", landingRoute},
		{"/login?from=%2Fadmin", landingRoute},
		{"/logout", landingRoute},
	}
	for _, tc := range cases {
		if got := safeReturnPath(tc.from); got != tc.want {
			t.Fatalf("safeReturnPath(%q) = %q, want %q", tc.from, got, tc.want)
		}
	}
}
