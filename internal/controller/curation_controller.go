package controller

import (
	"errors"

	"mythos-curation-be/internal/dto"
	"mythos-curation-be/internal/pkg/serverutils"
	"mythos-curation-be/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type ICurationController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	SubmitPrompt(ctx *fiber.Ctx) error
	GetExhibition(ctx *fiber.Ctx) error
	RequestAnalysis(ctx *fiber.Ctx) error
	GetAnalysis(ctx *fiber.Ctx) error
	ResetSession(ctx *fiber.Ctx) error
	GetCorpus(ctx *fiber.Ctx) error
}

type curationController struct {
	service  service.ICurationService
	validate *validator.Validate
}

func NewCurationController(service service.ICurationService) ICurationController {
	return &curationController{
		service:  service,
		validate: validator.New(),
	}
}

func (c *curationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/curation")
	h.Get("/corpus", c.GetCorpus)
	h.Post("/sessions", c.CreateSession)
	h.Get("/sessions/:sessionId", c.GetSession)
	h.Delete("/sessions/:sessionId", c.ResetSession)
	h.Post("/sessions/:sessionId/prompt", c.SubmitPrompt)
	h.Get("/sessions/:sessionId/exhibition", c.GetExhibition)
	h.Post("/sessions/:sessionId/artworks/:artworkId/analysis", c.RequestAnalysis)
	h.Get("/sessions/:sessionId/artworks/:artworkId/analysis", c.GetAnalysis)
}

func (c *curationController) CreateSession(ctx *fiber.Ctx) error {
	res, err := c.service.CreateSession(ctx.Context())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse(201, res))
}

func (c *curationController) GetSession(ctx *fiber.Ctx) error {
	res, err := c.service.GetSession(ctx.Context(), ctx.Params("sessionId"))
	if err != nil {
		return c.mapError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse(200, res))
}

func (c *curationController) SubmitPrompt(ctx *fiber.Ctx) error {
	var request dto.SubmitPromptRequest
	if err := ctx.BodyParser(&request); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "invalid request body"))
	}
	if err := c.validate.Struct(&request); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "prompt must be at least 5 characters"))
	}

	res, err := c.service.SubmitPrompt(ctx.Context(), ctx.Params("sessionId"), &request)
	if err != nil {
		return c.mapError(ctx, err)
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse(202, res))
}

func (c *curationController) GetExhibition(ctx *fiber.Ctx) error {
	res, err := c.service.GetExhibition(ctx.Context(), ctx.Params("sessionId"))
	if err != nil {
		return c.mapError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse(200, res))
}

func (c *curationController) RequestAnalysis(ctx *fiber.Ctx) error {
	res, err := c.service.RequestAnalysis(ctx.Context(), ctx.Params("sessionId"), ctx.Params("artworkId"))
	if err != nil {
		return c.mapError(ctx, err)
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse(202, res))
}

func (c *curationController) GetAnalysis(ctx *fiber.Ctx) error {
	res, err := c.service.GetAnalysis(ctx.Context(), ctx.Params("sessionId"), ctx.Params("artworkId"))
	if err != nil {
		return c.mapError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse(200, res))
}

func (c *curationController) ResetSession(ctx *fiber.Ctx) error {
	if err := c.service.ResetSession(ctx.Context(), ctx.Params("sessionId")); err != nil {
		return c.mapError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse(200, nil))
}

func (c *curationController) GetCorpus(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse(200, c.service.GetCorpus(ctx.Context())))
}

func (c *curationController) mapError(ctx *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrNoExhibition),
		errors.Is(err, service.ErrUnknownArtwork):
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
	default:
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
}
