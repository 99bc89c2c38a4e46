package controller

import (
	"littlesteps-be/internal/constant"
	"littlesteps-be/internal/pkg/serverutils"
	"littlesteps-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IUserController interface {
	RegisterRoutes(r fiber.Router, guard fiber.Handler)
	GetProfile(ctx *fiber.Ctx) error
	DeleteAccount(ctx *fiber.Ctx) error
}

type userController struct {
	service service.IUserService
}

func NewUserController(service service.IUserService) IUserController {
	return &userController{service: service}
}

func (c *userController) RegisterRoutes(r fiber.Router, guard fiber.Handler) {
	h := r.Group("/user")
	h.Get("/profile", guard, c.GetProfile)
	h.Delete("/account", guard, c.DeleteAccount)
}

func (c *userController) GetProfile(ctx *fiber.Ctx) error {
	user, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetProfile(ctx.UserContext(), user)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("User profile", res))
}

func (c *userController) DeleteAccount(ctx *fiber.Ctx) error {
	user, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}

	if err := c.service.DeleteAccount(ctx.UserContext(), user); err != nil {
		return err
	}
	ctx.ClearCookie(constant.SessionCookieName)
	return ctx.JSON(serverutils.SuccessResponse[any]("Account deleted", nil))
}
