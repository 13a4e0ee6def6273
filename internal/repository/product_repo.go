package repository

import (
	"context"
	"errors"
	"fmt"

	"go-catalog-stock/internal/model"
	"go-catalog-stock/internal/stock"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// updatableColumns is the allow-list for the generic update path. Quantity,
// version and status are deliberately absent: quantity moves only through
// the ledger's conditional write, and status is never stored at all.
var updatableColumns = map[string]bool{
	"name":        true,
	"price":       true,
	"image":       true,
	"description": true,
	"category":    true,
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
	CompareAndSetQuantity(ctx context.Context, id uuid.UUID, quantity, expectedVersion int) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Order("created_at").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, stock.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateFields patches descriptive columns only. Any column outside the
// allow-list is rejected before the query is built.
func (r *productRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	for col := range fields {
		if !updatableColumns[col] {
			return fmt.Errorf("column %q is not updatable", col)
		}
	}
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return stock.ErrNotFound
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return stock.ErrNotFound
	}
	return nil
}

// CompareAndSetQuantity writes quantity conditionally on the version token
// being unchanged, bumping it in the same statement. A zero-row update means
// the row changed (or vanished) since it was read.
func (r *productRepo) CompareAndSetQuantity(ctx context.Context, id uuid.UUID, quantity, expectedVersion int) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"quantity": quantity,
			"version":  expectedVersion + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return stock.ErrVersionConflict
	}
	return nil
}
