package stock

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the product id does not resolve to a record.
	ErrNotFound = errors.New("product not found")

	// ErrInvalidAmount rejects non-positive sell/restock amounts before
	// the store is touched.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrVersionConflict is returned by a ProductStore when a conditional
	// write loses the race. The ledger retries it internally.
	ErrVersionConflict = errors.New("product version conflict")

	// ErrConflict surfaces when the internal retry budget is exhausted
	// under sustained contention.
	ErrConflict = errors.New("stock update conflict: retries exhausted")
)

// InsufficientStockError is the expected business outcome of a Sell that
// asks for more units than are available. It carries the quantity seen at
// the serialization point so the caller can decide what to do.
type InsufficientStockError struct {
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock remaining: %d available, %d requested", e.Available, e.Requested)
}
