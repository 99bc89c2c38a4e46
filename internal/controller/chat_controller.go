package controller

import (
	"littlesteps-be/internal/dto"
	"littlesteps-be/internal/pkg/serverutils"
	"littlesteps-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router, guard fiber.Handler)
	SendChat(ctx *fiber.Ctx) error
	ListThreads(ctx *fiber.Ctx) error
	RenameThread(ctx *fiber.Ctx) error
	DeleteThread(ctx *fiber.Ctx) error
	GetMessages(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService   service.IChatService
	threadService service.IThreadService
}

func NewChatController(chatService service.IChatService, threadService service.IThreadService) IChatController {
	return &chatController{chatService: chatService, threadService: threadService}
}

func (c *chatController) RegisterRoutes(r fiber.Router, guard fiber.Handler) {
	r.Post("/chat", guard, c.SendChat)

	r.Get("/threads", guard, c.ListThreads)
	r.Patch("/threads", guard, c.RenameThread)
	r.Delete("/threads", guard, c.DeleteThread)
	r.Get("/threads/:id/messages", guard, c.GetMessages)
}

func (c *chatController) SendChat(ctx *fiber.Ctx) error {
	user, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}

	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	res, err := c.chatService.SendChat(ctx.UserContext(), user, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat reply", res))
}

func (c *chatController) ListThreads(ctx *fiber.Ctx) error {
	user, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}

	res, err := c.threadService.ListThreads(ctx.UserContext(), user.UserID)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Threads", res))
}

func (c *chatController) RenameThread(ctx *fiber.Ctx) error {
	user, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}

	var req dto.RenameThreadRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	res, err := c.threadService.RenameThread(ctx.UserContext(), user.UserID, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Thread renamed", res))
}

func (c *chatController) DeleteThread(ctx *fiber.Ctx) error {
	user, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}

	var req dto.DeleteThreadRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := c.threadService.DeleteThread(ctx.UserContext(), user.UserID, &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Thread deleted", nil))
}

func (c *chatController) GetMessages(ctx *fiber.Ctx) error {
	user, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}

	threadID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "invalid thread id"))
	}

	res, err := c.threadService.GetMessages(ctx.UserContext(), user.UserID, threadID)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Messages", res))
}
