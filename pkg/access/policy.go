// Package access decides whether a request may reach a route. It is pure:
// callers resolve the session first and pass the result in.
package access

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type Level int

const (
	LevelPublic Level = iota + 1
	LevelAuthenticated
	LevelAdmin
)

func (l Level) String() string {
	switch l {
	case LevelPublic:
		return "public"
	case LevelAuthenticated:
		return "authenticated"
	case LevelAdmin:
		return "admin"
	}
	return "unknown"
}

// Routes is the static route policy keyed by "METHOD pattern", where pattern
// is the registered Fiber route path. Anything missing is denied.
var Routes = map[string]Level{
	"GET /api/health":                     LevelPublic,
	"GET /metrics":                        LevelPublic,
	"GET /api/auth/google/login":          LevelPublic,
	"GET /api/auth/google/callback":       LevelPublic,
	"GET /api/auth/verify-email":          LevelPublic,
	"POST /api/auth/logout":               LevelAuthenticated,
	"POST /api/auth/verify-email/request": LevelAuthenticated,
	"GET /api/user/profile":               LevelAuthenticated,
	"DELETE /api/user/account":            LevelAuthenticated,
	"POST /api/chat":                      LevelAuthenticated,
	"GET /api/threads":                    LevelAuthenticated,
	"PATCH /api/threads":                  LevelAuthenticated,
	"DELETE /api/threads":                 LevelAuthenticated,
	"GET /api/threads/:id/messages":       LevelAuthenticated,
	// The cleanup caller is a CI job; its OIDC token is checked by the handler.
	"POST /api/admin/cleanup": LevelPublic,
	"GET /api/admin/usage":    LevelAdmin,
	"GET /api/admin/logs":     LevelAdmin,
}

func RouteKey(method, pattern string) string {
	return strings.ToUpper(method) + " " + pattern
}

// Auth is either Anonymous or Authenticated.
type Auth interface {
	isAuth()
}

type Anonymous struct{}

type Authenticated struct {
	UserID    uuid.UUID
	Email     string
	SessionID uuid.UUID
}

func (Anonymous) isAuth()     {}
func (Authenticated) isAuth() {}

// AdminList is a case-insensitive set of admin emails.
type AdminList struct {
	emails map[string]struct{}
}

// ParseAdminList reads a comma-separated list; blanks are skipped.
func ParseAdminList(raw string) AdminList {
	list := AdminList{emails: make(map[string]struct{})}
	for _, part := range strings.Split(raw, ",") {
		email := normalizeEmail(part)
		if email == "" {
			continue
		}
		list.emails[email] = struct{}{}
	}
	return list
}

func (a AdminList) Contains(email string) bool {
	email = normalizeEmail(email)
	if email == "" {
		return false
	}
	_, ok := a.emails[email]
	return ok
}

// Emails returns the normalized entries in no particular order.
func (a AdminList) Emails() []string {
	out := make([]string, 0, len(a.emails))
	for email := range a.emails {
		out = append(out, email)
	}
	return out
}

func (a AdminList) IsAdmin(auth Auth) bool {
	user, ok := auth.(Authenticated)
	return ok && a.Contains(user.Email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type Decision int

const (
	Granted Decision = iota
	DeniedUnauthenticated
	DeniedForbidden
)

func (d Decision) Allowed() bool {
	return d == Granted
}

// Status is the HTTP status a denied decision answers with.
func (d Decision) Status() int {
	switch d {
	case Granted:
		return http.StatusOK
	case DeniedUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusForbidden
	}
}

func (d Decision) String() string {
	switch d {
	case Granted:
		return "granted"
	case DeniedUnauthenticated:
		return "denied_unauthenticated"
	default:
		return "denied_forbidden"
	}
}

type Policy struct {
	routes map[string]Level
}

func NewPolicy(routes map[string]Level) *Policy {
	return &Policy{routes: routes}
}

func (p *Policy) Level(route string) (Level, bool) {
	level, ok := p.routes[route]
	return level, ok
}

// Decide applies the route policy. A nil auth counts as anonymous.
func (p *Policy) Decide(route string, auth Auth, admins AdminList) Decision {
	level, ok := p.routes[route]
	if !ok {
		return DeniedForbidden
	}

	user, authenticated := auth.(Authenticated)

	switch level {
	case LevelPublic:
		return Granted
	case LevelAuthenticated:
		if !authenticated {
			return DeniedUnauthenticated
		}
		return Granted
	case LevelAdmin:
		if !authenticated {
			return DeniedUnauthenticated
		}
		if !admins.Contains(user.Email) {
			return DeniedForbidden
		}
		return Granted
	}
	return DeniedForbidden
}

var defaultPolicy = NewPolicy(Routes)

// Decide uses the static Routes policy.
func Decide(route string, auth Auth, admins AdminList) Decision {
	return defaultPolicy.Decide(route, auth, admins)
}
