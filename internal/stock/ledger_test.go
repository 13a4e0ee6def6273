package stock

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go-catalog-stock/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore implements ProductStore with the same conditional-write
// semantics as the database repository.
type memStore struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
}

func newMemStore() *memStore {
	return &memStore{products: make(map[uuid.UUID]*model.Product)}
}

func (s *memStore) add(p *model.Product) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Version == 0 {
		p.Version = 1
	}
	s.products[p.ID] = p
	return p.ID
}

func (s *memStore) remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
}

func (s *memStore) quantity(t *testing.T, id uuid.UUID) int {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	require.True(t, ok)
	return p.Quantity
}

func (s *memStore) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) CompareAndSetQuantity(ctx context.Context, id uuid.UUID, quantity, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok || p.Version != expectedVersion {
		return ErrVersionConflict
	}
	p.Quantity = quantity
	p.Version++
	return nil
}

func newTestLedger(store ProductStore, maxRetries int) *Ledger {
	return NewLedger(store, NewClassifier(5), maxRetries)
}

func TestSellAndRestockScenario(t *testing.T) {
	// quantity=10, threshold=5: Sell 7 -> 3 LOW_STOCK,
	// Sell 5 -> insufficient (unchanged), Restock 10 -> 13 IN_STOCK.
	store := newMemStore()
	id := store.add(&model.Product{Name: "widget", Quantity: 10})
	ledger := newTestLedger(store, 0)
	ctx := context.Background()

	p, err := ledger.Sell(ctx, id, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Quantity)
	assert.Equal(t, model.StatusLowStock, p.Status)

	_, err = ledger.Sell(ctx, id, 5)
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 3, insufficient.Available)
	assert.Equal(t, 5, insufficient.Requested)
	assert.Equal(t, 3, store.quantity(t, id))

	p, err = ledger.Restock(ctx, id, 10)
	require.NoError(t, err)
	assert.Equal(t, 13, p.Quantity)
	assert.Equal(t, model.StatusInStock, p.Status)
}

func TestSellRejectsNonPositiveAmounts(t *testing.T) {
	store := newMemStore()
	id := store.add(&model.Product{Name: "widget", Quantity: 4})
	ledger := newTestLedger(store, 0)

	for _, amount := range []int{0, -1} {
		_, err := ledger.Sell(context.Background(), id, amount)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, err = ledger.Restock(context.Background(), id, amount)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
	assert.Equal(t, 4, store.quantity(t, id))
}

func TestLedgerNotFound(t *testing.T) {
	store := newMemStore()
	ledger := newTestLedger(store, 0)
	ctx := context.Background()
	missing := uuid.New()

	_, err := ledger.Sell(ctx, missing, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = ledger.Restock(ctx, missing, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = ledger.GetQuantity(ctx, missing)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetQuantity(t *testing.T) {
	store := newMemStore()
	id := store.add(&model.Product{Name: "widget", Quantity: 8})
	ledger := newTestLedger(store, 0)

	q, err := ledger.GetQuantity(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 8, q)
}

func TestRestockIsCommutative(t *testing.T) {
	run := func(amounts []int) (int, model.StockStatus) {
		store := newMemStore()
		id := store.add(&model.Product{Name: "widget", Quantity: 0})
		ledger := newTestLedger(store, 0)
		var last *model.Product
		for _, a := range amounts {
			p, err := ledger.Restock(context.Background(), id, a)
			require.NoError(t, err)
			last = p
		}
		return last.Quantity, last.Status
	}

	q1, s1 := run([]int{5, 3})
	q2, s2 := run([]int{3, 5})
	assert.Equal(t, q1, q2)
	assert.Equal(t, s1, s2)
	assert.Equal(t, 8, q1)
}

func TestConcurrentSellsOfLastUnit(t *testing.T) {
	// Two racing sells of the last unit: exactly one wins.
	store := newMemStore()
	id := store.add(&model.Product{Name: "widget", Quantity: 1})
	ledger := newTestLedger(store, 0)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Sell(context.Background(), id, 1)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, insufficient int
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		var e *InsufficientStockError
		require.ErrorAs(t, err, &e)
		insufficient++
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, 0, store.quantity(t, id))
}

func TestConcurrentSellsNeverOversell(t *testing.T) {
	// 20 goroutines compete for 10 units. Each version bump is one
	// successful sell, so with a generous retry budget no caller can
	// exhaust it; exactly 10 succeed and the rest see insufficient stock.
	store := newMemStore()
	id := store.add(&model.Product{Name: "widget", Quantity: 10})
	ledger := newTestLedger(store, 50)

	const callers = 20
	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Sell(context.Background(), id, 1)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, insufficient int
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		var e *InsufficientStockError
		require.ErrorAs(t, err, &e)
		insufficient++
	}
	assert.Equal(t, 10, ok)
	assert.Equal(t, callers-10, insufficient)
	assert.Equal(t, 0, store.quantity(t, id))
}

func TestConcurrentRestocksAllApply(t *testing.T) {
	store := newMemStore()
	id := store.add(&model.Product{Name: "widget", Quantity: 0})
	ledger := newTestLedger(store, 50)

	const callers = 10
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Restock(context.Background(), id, 2)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, callers*2, store.quantity(t, id))
}

func TestStatusConsistentAfterEveryMutation(t *testing.T) {
	store := newMemStore()
	id := store.add(&model.Product{Name: "widget", Quantity: 0})
	classifier := NewClassifier(5)
	ledger := NewLedger(store, classifier, 0)
	ctx := context.Background()

	steps := []struct {
		restock bool
		amount  int
	}{
		{true, 7}, {false, 2}, {false, 5}, {true, 1}, {true, 20}, {false, 21},
	}
	for _, step := range steps {
		var p *model.Product
		var err error
		if step.restock {
			p, err = ledger.Restock(ctx, id, step.amount)
		} else {
			p, err = ledger.Sell(ctx, id, step.amount)
		}
		require.NoError(t, err)
		assert.Equal(t, classifier.Classify(p.Quantity), p.Status)
	}
}

// alwaysConflict simulates sustained write contention.
type alwaysConflict struct {
	*memStore
	attempts int
}

func (s *alwaysConflict) CompareAndSetQuantity(ctx context.Context, id uuid.UUID, quantity, expectedVersion int) error {
	s.attempts++
	return ErrVersionConflict
}

func TestRetryBudgetExhaustionSurfacesConflict(t *testing.T) {
	base := newMemStore()
	id := base.add(&model.Product{Name: "widget", Quantity: 10})
	store := &alwaysConflict{memStore: base}
	ledger := newTestLedger(store, 3)

	_, err := ledger.Sell(context.Background(), id, 1)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 3, store.attempts)
	assert.Equal(t, 10, base.quantity(t, id))
}

// deleteOnWrite drops the product when the first conditional write lands,
// mimicking a delete racing an in-flight mutation.
type deleteOnWrite struct {
	*memStore
	deleted bool
}

func (s *deleteOnWrite) CompareAndSetQuantity(ctx context.Context, id uuid.UUID, quantity, expectedVersion int) error {
	if !s.deleted {
		s.deleted = true
		s.remove(id)
		return ErrVersionConflict
	}
	return s.memStore.CompareAndSetQuantity(ctx, id, quantity, expectedVersion)
}

func TestDeleteRacingMutationReportsNotFound(t *testing.T) {
	base := newMemStore()
	id := base.add(&model.Product{Name: "widget", Quantity: 10})
	ledger := newTestLedger(&deleteOnWrite{memStore: base}, 0)

	_, err := ledger.Sell(context.Background(), id, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelledContextStopsRetrying(t *testing.T) {
	base := newMemStore()
	id := base.add(&model.Product{Name: "widget", Quantity: 10})
	store := &alwaysConflict{memStore: base}
	ledger := newTestLedger(store, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ledger.Sell(ctx, id, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
