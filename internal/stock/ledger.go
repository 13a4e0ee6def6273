package stock

import (
	"context"
	"errors"
	"time"

	"go-catalog-stock/internal/model"
	"go-catalog-stock/pkg/retry"

	"github.com/google/uuid"
)

// DefaultMaxRetries bounds the compare-and-swap loop under contention.
const DefaultMaxRetries = 5

// ProductStore is the slice of the catalog store the ledger needs: a
// consistent read and a conditional quantity write. CompareAndSetQuantity
// must atomically write quantity and bump the version if and only if the
// stored version equals expectedVersion, returning ErrVersionConflict
// otherwise.
type ProductStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	CompareAndSetQuantity(ctx context.Context, id uuid.UUID, quantity, expectedVersion int) error
}

// Ledger is the sole writer of product quantity. Concurrent mutations of
// the same product serialize through the store's conditional write; a lost
// race is retried with backoff up to the configured attempt budget.
//
// The ledger does not deduplicate repeated calls; callers that retry after
// a timeout must handle idempotency themselves.
type Ledger struct {
	store      ProductStore
	classifier Classifier
	attempts   int
}

func NewLedger(store ProductStore, classifier Classifier, maxRetries int) *Ledger {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Ledger{
		store:      store,
		classifier: classifier,
		attempts:   maxRetries,
	}
}

// Sell decrements quantity by amount. It fails with InsufficientStockError
// when fewer than amount units are available at the serialization point;
// quantity is never driven below zero.
func (l *Ledger) Sell(ctx context.Context, id uuid.UUID, amount int) (*model.Product, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return l.apply(ctx, id, func(current int) (int, error) {
		if current < amount {
			return 0, &InsufficientStockError{Available: current, Requested: amount}
		}
		return current - amount, nil
	})
}

// Restock increments quantity by amount. There is no upper bound.
func (l *Ledger) Restock(ctx context.Context, id uuid.UUID, amount int) (*model.Product, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return l.apply(ctx, id, func(current int) (int, error) {
		return current + amount, nil
	})
}

// GetQuantity returns a consistent snapshot of the current quantity.
func (l *Ledger) GetQuantity(ctx context.Context, id uuid.UUID) (int, error) {
	product, err := l.store.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return product.Quantity, nil
}

// apply runs one read-compute-conditional-write round, retrying lost races.
// Either the write fully commits or the product is untouched; a product
// deleted mid-loop shows up as ErrNotFound on the re-read.
func (l *Ledger) apply(ctx context.Context, id uuid.UUID, compute func(current int) (int, error)) (*model.Product, error) {
	policy := retry.Policy{
		MaxAttempts: l.attempts,
		Delay:       10 * time.Millisecond,
		Retryable: func(err error) bool {
			return errors.Is(err, ErrVersionConflict)
		},
	}

	product, err := retry.DoWithResult(ctx, policy, func() (*model.Product, error) {
		p, err := l.store.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		next, err := compute(p.Quantity)
		if err != nil {
			return nil, err
		}
		if err := l.store.CompareAndSetQuantity(ctx, id, next, p.Version); err != nil {
			return nil, err
		}
		p.Quantity = next
		p.Version++
		l.classifier.Apply(p)
		return p, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		if errors.Is(err, ErrVersionConflict) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return product, nil
}
