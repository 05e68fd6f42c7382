package controller

import (
	"errors"

	"ai-review-be/internal/dto"
	"ai-review-be/internal/pkg/serverutils"
	"ai-review-be/internal/service"
	"ai-review-be/pkg/backend"
	"ai-review-be/pkg/interview/engine"

	"github.com/gofiber/fiber/v2"
)

type IInterviewController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	Reply(ctx *fiber.Ctx) error
	AcceptDraft(ctx *fiber.Ctx) error
	ReviseDraft(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
}

type interviewController struct {
	service   service.IInterviewService
	jwtSecret string
}

func NewInterviewController(service service.IInterviewService, jwtSecret string) IInterviewController {
	return &interviewController{service: service, jwtSecret: jwtSecret}
}

func (c *interviewController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/interview/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Post("session", c.CreateSession)
	h.Get("session", c.GetSession)
	h.Post("reply", c.Reply)
	h.Post("accept", c.AcceptDraft)
	h.Post("revise", c.ReviseDraft)
}

func (c *interviewController) CreateSession(ctx *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateSession(ctx.Context(), serverutils.UserID(ctx), serverutils.Bearer(ctx), &req)
	if err != nil {
		return mapError(err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Interview started", res))
}

func (c *interviewController) Reply(ctx *fiber.Ctx) error {
	var req dto.ReplyRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Reply(ctx.Context(), serverutils.UserID(ctx), serverutils.Bearer(ctx), &req)
	if err != nil {
		return mapError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success reply", res))
}

func (c *interviewController) AcceptDraft(ctx *fiber.Ctx) error {
	var req dto.AcceptDraftRequest
	// Empty body is allowed: no attachments.
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.AcceptDraft(ctx.Context(), serverutils.UserID(ctx), serverutils.Bearer(ctx), &req)
	if err != nil {
		return mapError(err)
	}
	if !res.OK {
		return ctx.Status(fiber.StatusBadGateway).JSON(serverutils.Response[*dto.AcceptDraftResponse]{
			Success: false,
			Code:    fiber.StatusBadGateway,
			Message: res.Message,
			Data:    res,
		})
	}

	return ctx.JSON(serverutils.SuccessResponse("Review submitted", res))
}

func (c *interviewController) ReviseDraft(ctx *fiber.Ctx) error {
	var req dto.ReviseDraftRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.ReviseDraft(ctx.Context(), serverutils.UserID(ctx), serverutils.Bearer(ctx), &req)
	if err != nil {
		return mapError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Draft revised", res))
}

func (c *interviewController) GetSession(ctx *fiber.Ctx) error {
	res, err := c.service.GetSession(ctx.Context(), serverutils.UserID(ctx))
	if err != nil {
		return mapError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}

func mapError(err error) error {
	switch {
	case errors.Is(err, service.ErrNotEligible):
		return serverutils.WithStatus(fiber.StatusConflict, err)
	case errors.Is(err, engine.ErrNoDraft):
		return serverutils.WithStatus(fiber.StatusConflict, err)
	case errors.Is(err, backend.ErrAuthRequired):
		return serverutils.WithStatus(fiber.StatusUnauthorized, err)
	}
	return err
}
