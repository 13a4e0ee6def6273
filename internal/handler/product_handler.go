package handler

import (
	"errors"

	"go-catalog-stock/internal/model"
	"go-catalog-stock/internal/service"
	"go-catalog-stock/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ProductHandler struct {
	service service.CatalogService
}

func NewProductHandler(s service.CatalogService) *ProductHandler {
	return &ProductHandler{service: s}
}

// AmountRequest is the body of sell/restock calls
type AmountRequest struct {
	Amount int `json:"amount"`
}

// stockError maps ledger and store errors onto HTTP responses.
// InsufficientStock is a business outcome: 400 with the available quantity.
// An exhausted retry budget is a transient server condition: 503.
func stockError(c *fiber.Ctx, err error) error {
	var insufficient *stock.InsufficientStockError
	switch {
	case errors.Is(err, stock.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "Product not found"})
	case errors.As(err, &insufficient):
		return c.Status(400).JSON(fiber.Map{
			"error":     err.Error(),
			"available": insufficient.Available,
		})
	case errors.Is(err, stock.ErrInvalidAmount):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, stock.ErrConflict):
		return c.Status(503).JSON(fiber.Map{"error": "Stock update conflict, please retry"})
	default:
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var product model.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.service.CreateProduct(c.UserContext(), &product); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{"message": "Product created", "data": product})
}

func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetProducts(c.UserContext())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(products)
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	product, err := h.service.GetProduct(c.UserContext(), id)
	if err != nil {
		return stockError(c, err)
	}
	return c.JSON(product)
}

// GetProductsByStatus filters the listing by derived stock status.
// GET /api/v1/products/status/:status
func (h *ProductHandler) GetProductsByStatus(c *fiber.Ctx) error {
	status := model.StockStatus(c.Params("status"))
	if !status.Valid() {
		return c.Status(400).JSON(fiber.Map{"error": "Unknown stock status"})
	}

	products, err := h.service.GetProductsByStatus(c.UserContext(), status)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(products)
}

func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var upd service.ProductUpdate
	if err := c.BodyParser(&upd); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	updated, err := h.service.UpdateProduct(c.UserContext(), id, &upd)
	if err != nil {
		return stockError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	if err := h.service.DeleteProduct(c.UserContext(), id); err != nil {
		return stockError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}

// Sell decrements stock atomically.
// POST /api/v1/products/:id/sell
func (h *ProductHandler) Sell(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var req AmountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	product, err := h.service.Sell(c.UserContext(), id, req.Amount)
	if err != nil {
		return stockError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Stock sold", "data": product})
}

// Restock increments stock atomically.
// POST /api/v1/products/:id/restock
func (h *ProductHandler) Restock(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var req AmountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	product, err := h.service.Restock(c.UserContext(), id, req.Amount)
	if err != nil {
		return stockError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Stock restocked", "data": product})
}
