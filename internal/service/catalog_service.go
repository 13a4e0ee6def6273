package service

import (
	"context"
	"fmt"

	"go-catalog-stock/internal/model"
	"go-catalog-stock/internal/repository"
	"go-catalog-stock/internal/stock"
	"go-catalog-stock/internal/ws"
	"go-catalog-stock/pkg/validator"

	"github.com/google/uuid"
)

const defaultCategory = "General"

// ProductUpdate is the restricted patch accepted by the generic update path.
// Quantity and status are not representable here: quantity moves only
// through the ledger and status is derived.
type ProductUpdate struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Price       *int64  `json:"price" validate:"omitempty,gte=0"`
	Image       *string `json:"image"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
}

// Fields flattens the patch into the column map the repository accepts.
func (u *ProductUpdate) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if u.Name != nil {
		fields["name"] = *u.Name
	}
	if u.Price != nil {
		fields["price"] = *u.Price
	}
	if u.Image != nil {
		fields["image"] = *u.Image
	}
	if u.Description != nil {
		fields["description"] = *u.Description
	}
	if u.Category != nil {
		fields["category"] = *u.Category
	}
	return fields
}

type CatalogService interface {
	CreateProduct(ctx context.Context, req *model.Product) error
	GetProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetProductsByStatus(ctx context.Context, status model.StockStatus) ([]model.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, upd *ProductUpdate) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	Sell(ctx context.Context, id uuid.UUID, amount int) (*model.Product, error)
	Restock(ctx context.Context, id uuid.UUID, amount int) (*model.Product, error)
}

type catalogService struct {
	productRepo repository.ProductRepository
	ledger      *stock.Ledger
	classifier  stock.Classifier
	wsHub       *ws.Hub
}

func NewCatalogService(pRepo repository.ProductRepository, ledger *stock.Ledger, classifier stock.Classifier, hub *ws.Hub) CatalogService {
	return &catalogService{
		productRepo: pRepo,
		ledger:      ledger,
		classifier:  classifier,
		wsHub:       hub,
	}
}

func (s *catalogService) CreateProduct(ctx context.Context, req *model.Product) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	if req.Category == "" {
		req.Category = defaultCategory
	}
	req.Version = 1

	if err := s.productRepo.Create(ctx, req); err != nil {
		return err
	}
	s.classifier.Apply(req)

	s.notify(ws.ActionProductCreated, fmt.Sprintf("product '%s' created", req.Name), req)
	return nil
}

func (s *catalogService) GetProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		s.classifier.Apply(&products[i])
	}
	return products, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.classifier.Apply(product)
	return product, nil
}

// GetProductsByStatus filters over the derived classification; status is
// never a stored column, so the filter runs over classified records.
func (s *catalogService) GetProductsByStatus(ctx context.Context, status model.StockStatus) ([]model.Product, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown stock status %q", status)
	}
	products, err := s.GetProducts(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]model.Product, 0, len(products))
	for _, p := range products {
		if p.Status == status {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, upd *ProductUpdate) (*model.Product, error) {
	if errs := validator.ValidateStruct(upd); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	fields := upd.Fields()
	if len(fields) > 0 {
		if err := s.productRepo.UpdateFields(ctx, id, fields); err != nil {
			return nil, err
		}
	}

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	s.notify(ws.ActionProductUpdated, fmt.Sprintf("product '%s' updated", product.Name), product)
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.notify(ws.ActionProductDeleted, fmt.Sprintf("product '%s' deleted", product.Name), product)
	return nil
}

func (s *catalogService) Sell(ctx context.Context, id uuid.UUID, amount int) (*model.Product, error) {
	product, err := s.ledger.Sell(ctx, id, amount)
	if err != nil {
		return nil, err
	}
	s.notify(ws.ActionStockSold, fmt.Sprintf("sold %d units of '%s'", amount, product.Name), product)
	return product, nil
}

func (s *catalogService) Restock(ctx context.Context, id uuid.UUID, amount int) (*model.Product, error) {
	product, err := s.ledger.Restock(ctx, id, amount)
	if err != nil {
		return nil, err
	}
	s.notify(ws.ActionStockRestocked, fmt.Sprintf("restocked %d units of '%s'", amount, product.Name), product)
	return product, nil
}

func (s *catalogService) notify(action, message string, p *model.Product) {
	if s.wsHub == nil {
		return
	}
	go func() {
		s.wsHub.Events <- ws.StockEvent{
			Type:    "stock_update",
			Action:  action,
			Product: p,
			Message: message,
		}
	}()
}
