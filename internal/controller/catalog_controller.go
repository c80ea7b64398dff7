package controller

import (
	"flowershop-chat-be/internal/dto"
	"flowershop-chat-be/internal/pkg/serverutils"
	"flowershop-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICatalogController interface {
	RegisterRoutes(r fiber.Router, adminMiddleware fiber.Handler)
	List(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
	Ingest(ctx *fiber.Ctx) error
}

type catalogController struct {
	service service.ICatalogService
}

func NewCatalogController(service service.ICatalogService) ICatalogController {
	return &catalogController{service: service}
}

func (c *catalogController) RegisterRoutes(r fiber.Router, adminMiddleware fiber.Handler) {
	h := r.Group("/catalog/v1")
	h.Get("", c.List)
	h.Get("/search", c.Search)
	h.Post("/ingest", adminMiddleware, c.Ingest)
}

func (c *catalogController) List(ctx *fiber.Ctx) error {
	var req dto.ListCatalogRequest
	if err := ctx.QueryParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get catalog", res))
}

func (c *catalogController) Search(ctx *fiber.Ctx) error {
	var req dto.SearchCatalogRequest
	if err := ctx.QueryParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Search(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search catalog", res))
}

func (c *catalogController) Ingest(ctx *fiber.Ctx) error {
	var req dto.IngestCatalogRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.QueueIngest(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Catalog records queued", res))
}
