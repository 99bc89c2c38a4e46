package serverutils

import (
	"context"
	"strings"

	"littlesteps-be/internal/apperror"
	"littlesteps-be/internal/constant"
	"littlesteps-be/pkg/access"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

const authLocalsKey = "auth"

// SessionResolver turns a raw session token into an authentication state.
// Unknown, expired or revoked tokens resolve to access.Anonymous.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (access.Auth, error)
}

type AccessGuard struct {
	resolver SessionResolver
	policy   *access.Policy
	admins   access.AdminList
	denied   *prometheus.CounterVec
}

// NewAccessGuard builds the per-route guard. denied may be nil.
func NewAccessGuard(resolver SessionResolver, policy *access.Policy, admins access.AdminList, denied *prometheus.CounterVec) *AccessGuard {
	return &AccessGuard{resolver: resolver, policy: policy, admins: admins, denied: denied}
}

func (g *AccessGuard) Admins() access.AdminList {
	return g.admins
}

// Handler must be attached to each route, not with Use, so that
// ctx.Route().Path is the registered pattern.
func (g *AccessGuard) Handler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		var auth access.Auth = access.Anonymous{}
		if token := SessionToken(ctx); token != "" {
			resolved, err := g.resolver.ResolveSession(ctx.UserContext(), token)
			if err != nil {
				return err
			}
			auth = resolved
		}
		ctx.Locals(authLocalsKey, auth)

		method := ctx.Method()
		// Fiber serves HEAD through the GET route.
		if method == fiber.MethodHead {
			method = fiber.MethodGet
		}
		decision := g.policy.Decide(access.RouteKey(method, ctx.Route().Path), auth, g.admins)
		switch decision {
		case access.Granted:
			return ctx.Next()
		case access.DeniedUnauthenticated:
			g.count(decision)
			return apperror.Unauthenticated("authentication required")
		default:
			g.count(decision)
			return apperror.Forbidden("access denied")
		}
	}
}

// DenyUnmatched is mounted after every route. Paths without a route are
// outside the policy and get the same 403 as unknown routes.
func (g *AccessGuard) DenyUnmatched() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		g.count(access.DeniedForbidden)
		return apperror.Forbidden("access denied")
	}
}

func (g *AccessGuard) count(d access.Decision) {
	if g.denied != nil {
		g.denied.WithLabelValues(d.String()).Inc()
	}
}

// SessionToken reads the bearer token or, failing that, the session cookie.
func SessionToken(ctx *fiber.Ctx) string {
	header := strings.TrimSpace(ctx.Get(fiber.HeaderAuthorization))
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ctx.Cookies(constant.SessionCookieName)
}

// CurrentAuth is the state stored by the guard; Anonymous when absent.
func CurrentAuth(ctx *fiber.Ctx) access.Auth {
	if auth, ok := ctx.Locals(authLocalsKey).(access.Auth); ok {
		return auth
	}
	return access.Anonymous{}
}

// CurrentUser returns the signed-in user of a guarded request.
func CurrentUser(ctx *fiber.Ctx) (access.Authenticated, error) {
	user, ok := CurrentAuth(ctx).(access.Authenticated)
	if !ok {
		return access.Authenticated{}, apperror.Unauthenticated("authentication required")
	}
	return user, nil
}
