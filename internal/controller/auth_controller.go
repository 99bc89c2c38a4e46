package controller

import (
	"time"

	"littlesteps-be/internal/constant"
	"littlesteps-be/internal/dto"
	"littlesteps-be/internal/pkg/serverutils"
	"littlesteps-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router, guard fiber.Handler)
	Logout(ctx *fiber.Ctx) error
	RequestVerification(ctx *fiber.Ctx) error
	VerifyEmail(ctx *fiber.Ctx) error
}

type authController struct {
	service service.IAuthService
}

func NewAuthController(service service.IAuthService) IAuthController {
	return &authController{service: service}
}

func (c *authController) RegisterRoutes(r fiber.Router, guard fiber.Handler) {
	h := r.Group("/auth")
	h.Post("/logout", guard, c.Logout)
	h.Post("/verify-email/request", guard, c.RequestVerification)
	h.Get("/verify-email", guard, c.VerifyEmail)
}

func (c *authController) Logout(ctx *fiber.Ctx) error {
	user, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if err := c.service.Logout(ctx.UserContext(), user.SessionID); err != nil {
		return err
	}
	ctx.Cookie(&fiber.Cookie{
		Name:     constant.SessionCookieName,
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
	})
	return ctx.JSON(serverutils.SuccessResponse[any]("Signed out", nil))
}

func (c *authController) RequestVerification(ctx *fiber.Ctx) error {
	user, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if err := c.service.RequestEmailVerification(ctx.UserContext(), user.UserID); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Verification email sent", nil))
}

func (c *authController) VerifyEmail(ctx *fiber.Ctx) error {
	var req dto.VerifyEmailRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query")
	}
	if err := c.service.VerifyEmail(ctx.UserContext(), &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Email verified", nil))
}
