package controller

import (
	"littlesteps-be/internal/apperror"
	"littlesteps-be/internal/dto"
	"littlesteps-be/internal/pkg/serverutils"
	"littlesteps-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router, guard fiber.Handler)
	Cleanup(ctx *fiber.Ctx) error
	GetUsage(ctx *fiber.Ctx) error
	GetLogs(ctx *fiber.Ctx) error
}

type adminController struct {
	cleanupService service.ICleanupService
	adminService   service.IAdminService
}

func NewAdminController(cleanupService service.ICleanupService, adminService service.IAdminService) IAdminController {
	return &adminController{
		cleanupService: cleanupService,
		adminService:   adminService,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router, guard fiber.Handler) {
	h := r.Group("/admin")
	h.Post("/cleanup", guard, c.Cleanup)
	h.Get("/usage", guard, c.GetUsage)
	h.Get("/logs", guard, c.GetLogs)
}

// Cleanup answers in its own body shape for the CI caller. Error text is
// always the public message, never the cause.
func (c *adminController) Cleanup(ctx *fiber.Ctx) error {
	res, err := c.cleanupService.HandleRequest(ctx.UserContext(), ctx.Get(fiber.HeaderAuthorization))
	if err != nil {
		status, message := fiber.StatusInternalServerError, "Cleanup failed"
		if appErr, ok := apperror.As(err); ok && appErr.Status < fiber.StatusInternalServerError {
			status, message = appErr.Status, appErr.Message
		}
		return ctx.Status(status).JSON(dto.CleanupErrorResponse{Success: false, Error: message})
	}
	return ctx.JSON(res)
}

func (c *adminController) GetUsage(ctx *fiber.Ctx) error {
	res, err := c.adminService.GetUsageReport(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Weekly usage", res))
}

func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	var req dto.LogListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query")
	}

	logs, err := c.adminService.GetLogs(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("System logs", logs))
}
