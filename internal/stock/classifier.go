package stock

import "go-catalog-stock/internal/model"

// DefaultLowStockThreshold is used when no threshold is configured.
const DefaultLowStockThreshold = 5

// Classifier maps a quantity to its stock status. Status is always derived
// from quantity through this mapping and never stored on its own.
type Classifier struct {
	LowStockThreshold int
}

func NewClassifier(threshold int) Classifier {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return Classifier{LowStockThreshold: threshold}
}

func (c Classifier) Classify(quantity int) model.StockStatus {
	switch {
	case quantity == 0:
		return model.StatusOutOfStock
	case quantity <= c.LowStockThreshold:
		return model.StatusLowStock
	default:
		return model.StatusInStock
	}
}

// Apply stamps the derived status onto p.
func (c Classifier) Apply(p *model.Product) {
	p.Status = c.Classify(p.Quantity)
}
