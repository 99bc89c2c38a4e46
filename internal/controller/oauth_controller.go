package controller

import (
	"time"

	"littlesteps-be/internal/constant"
	"littlesteps-be/internal/dto"
	"littlesteps-be/internal/pkg/serverutils"
	"littlesteps-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	oauthStateCookie = "littlesteps_oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

type IOAuthController interface {
	RegisterRoutes(r fiber.Router, guard fiber.Handler)
	Login(ctx *fiber.Ctx) error
	Callback(ctx *fiber.Ctx) error
}

type oauthController struct {
	service       service.IOAuthService
	secureCookies bool
}

func NewOAuthController(service service.IOAuthService, secureCookies bool) IOAuthController {
	return &oauthController{service: service, secureCookies: secureCookies}
}

func (c *oauthController) RegisterRoutes(r fiber.Router, guard fiber.Handler) {
	h := r.Group("/auth/google")
	h.Get("/login", guard, c.Login)
	h.Get("/callback", guard, c.Callback)
}

// Login returns the Google consent URL. The state is kept in a short-lived
// cookie and checked on the callback.
func (c *oauthController) Login(ctx *fiber.Ctx) error {
	url, state, err := c.service.GetLoginURL()
	if err != nil {
		return err
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth/google",
		Expires:  time.Now().Add(oauthStateTTL),
		HTTPOnly: true,
		Secure:   c.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return ctx.JSON(serverutils.SuccessResponse("Google login URL", dto.GoogleLoginResponse{URL: url}))
}

func (c *oauthController) Callback(ctx *fiber.Ctx) error {
	var req dto.GoogleCallbackRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	meta := dto.SessionMeta{IpAddress: ctx.IP(), UserAgent: ctx.Get(fiber.HeaderUserAgent)}
	session, err := c.service.HandleCallback(ctx.UserContext(), &req, ctx.Cookies(oauthStateCookie), meta)
	if err != nil {
		return err
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Path:     "/api/auth/google",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   c.secureCookies,
	})
	ctx.Cookie(&fiber.Cookie{
		Name:     constant.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		Secure:   c.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return ctx.JSON(serverutils.SuccessResponse("Signed in", session))
}
