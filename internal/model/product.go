package model

type StockStatus string

const (
	StatusOutOfStock StockStatus = "OUT_OF_STOCK"
	StatusLowStock   StockStatus = "LOW_STOCK"
	StatusInStock    StockStatus = "IN_STOCK"
)

// Valid reports whether s is one of the known stock statuses.
func (s StockStatus) Valid() bool {
	switch s {
	case StatusOutOfStock, StatusLowStock, StatusInStock:
		return true
	}
	return false
}

type Product struct {
	BaseModel
	Name        string `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Price       int64  `gorm:"default:0" json:"price" validate:"gte=0"`
	Image       string `gorm:"type:text" json:"image"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"type:varchar(100);default:General" json:"category"`

	// Quantity is owned by the stock ledger once the product exists.
	// Version is the optimistic-lock token for conditional writes.
	Quantity int `gorm:"not null;default:0" json:"quantity" validate:"gte=0"`
	Version  int `gorm:"not null;default:1" json:"-"`

	// Status is derived from Quantity on every read path, never persisted.
	Status StockStatus `gorm:"-" json:"status"`
}
