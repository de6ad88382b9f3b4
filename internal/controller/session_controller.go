package controller

import (
	"errors"

	"healthmate-be/internal/dto"
	"healthmate-be/internal/pkg/serverutils"
	"healthmate-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Messages(ctx *fiber.Ctx) error
	Clear(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	DefaultId(ctx *fiber.Ctx) error
}

type sessionController struct {
	sessionService service.ISessionService
}

func NewSessionController(sessionService service.ISessionService) ISessionController {
	return &sessionController{
		sessionService: sessionService,
	}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session/v1")
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Get("default", c.DefaultId)
	h.Get(":id/messages", c.Messages)
	h.Put(":id/clear", c.Clear)
	h.Delete(":id", c.Delete)
}

func (c *sessionController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.sessionService.CreateSession(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *sessionController) List(ctx *fiber.Ctx) error {
	res, err := c.sessionService.GetAllSessions(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list sessions", res))
}

func (c *sessionController) Messages(ctx *fiber.Ctx) error {
	res, err := c.sessionService.GetMessages(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get messages", res))
}

func (c *sessionController) Clear(ctx *fiber.Ctx) error {
	if err := c.sessionService.ClearSession(ctx.Context(), ctx.Params("id")); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success clear session", nil))
}

func (c *sessionController) Delete(ctx *fiber.Ctx) error {
	err := c.sessionService.DeleteSession(ctx.Context(), ctx.Params("id"))
	if errors.Is(err, service.ErrDefaultConversation) {
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	}
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete session", nil))
}

func (c *sessionController) DefaultId(ctx *fiber.Ctx) error {
	res := dto.DefaultSessionResponse{ConversationId: c.sessionService.DefaultSessionId()}
	return ctx.JSON(serverutils.SuccessResponse("Success get default session", res))
}
