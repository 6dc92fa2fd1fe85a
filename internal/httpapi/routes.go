package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"peopledesk.org/internal/rbac"
)

const (
	loginRoute   = "/login"
	logoutRoute  = "/logout"
	landingRoute = "/asset-management"
)

// Route pairs a navigable path with the minimum role it requires and the
// page that renders behind the guard. The table is declared once at boot
// and immutable afterward.
type Route struct {
	Path     string
	Required rbac.Role
	Handler  http.Handler
}

// reserved paths the route table may not shadow.
var reservedPaths = map[string]struct{}{
	"/":             {},
	loginRoute:      {},
	logoutRoute:     {},
	"/healthz":      {},
	"/readyz":       {},
	"/metrics":      {},
	"/v1/info":      {},
	"/openapi.yaml": {},
}

// DefaultRoutes is the portal's navigation table. Page bodies are
// placeholders; any http.Handler can be mounted instead.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/dashboard", Required: rbac.RoleEmployee, Handler: PageHandler("Dashboard")},
		{Path: "/leave-management", Required: rbac.RoleEmployee, Handler: PageHandler("Leave Management")},
		{Path: "/asset-management", Required: rbac.RoleEmployee, Handler: AssetPageHandler()},
		{Path: "/policy-center", Required: rbac.RoleEmployee, Handler: PageHandler("Policy Center")},
		{Path: "/onboarding-tasks", Required: rbac.RoleEmployee, Handler: PageHandler("Onboarding Tasks")},
		{Path: "/profile", Required: rbac.RoleEmployee, Handler: PageHandler("Profile")},
		{Path: "/admin", Required: rbac.RoleAdmin, Handler: PageHandler("Admin")},
		{Path: "/admin/hris", Required: rbac.RoleAdmin, Handler: PageHandler("HRIS Administration")},
	}
}

// validateRouteTable enforces the table's shape: every protected path
// appears exactly once, carries a valid requirement and a handler, and does
// not shadow the login path or the other unguarded endpoints. A violation
// is a configuration bug caught at construction, not at first navigation.
func validateRouteTable(routes []Route) error {
	seen := make(map[string]struct{}, len(routes))
	for _, route := range routes {
		path := route.Path
		if path == "" || !strings.HasPrefix(path, "/") {
			return fmt.Errorf("httpapi: route path %q must start with /", path)
		}
		if strings.HasSuffix(path, "/") {
			return fmt.Errorf("httpapi: route path %q must not end with /", path)
		}
		if _, ok := reservedPaths[path]; ok {
			return fmt.Errorf("httpapi: route path %q is reserved", path)
		}
		if _, ok := seen[path]; ok {
			return fmt.Errorf("httpapi: duplicate route path %q", path)
		}
		seen[path] = struct{}{}
		if !route.Required.Valid() {
			return fmt.Errorf("httpapi: route %q has no valid role requirement", path)
		}
		if route.Handler == nil {
			return fmt.Errorf("httpapi: route %q has no handler", path)
		}
	}
	return nil
}
