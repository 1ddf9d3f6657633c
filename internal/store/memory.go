package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yuditriaji/ruhmrita-backend/internal/domain"
)

type memState struct {
	seq        int64
	order      map[uuid.UUID]int64
	items      map[uuid.UUID]domain.StockItem
	sales      map[uuid.UUID]domain.SaleRecord
	purchases  map[uuid.UUID]domain.Purchase
	users      map[uuid.UUID]domain.User
	activities []domain.Activity
}

func newMemState() *memState {
	return &memState{
		order:     make(map[uuid.UUID]int64),
		items:     make(map[uuid.UUID]domain.StockItem),
		sales:     make(map[uuid.UUID]domain.SaleRecord),
		purchases: make(map[uuid.UUID]domain.Purchase),
		users:     make(map[uuid.UUID]domain.User),
	}
}

// clone copies the maps. Stored values are never mutated in place, so a shallow
// copy is enough to roll back.
func (s *memState) clone() *memState {
	cp := &memState{
		seq:        s.seq,
		order:      make(map[uuid.UUID]int64, len(s.order)),
		items:      make(map[uuid.UUID]domain.StockItem, len(s.items)),
		sales:      make(map[uuid.UUID]domain.SaleRecord, len(s.sales)),
		purchases:  make(map[uuid.UUID]domain.Purchase, len(s.purchases)),
		users:      make(map[uuid.UUID]domain.User, len(s.users)),
		activities: append([]domain.Activity(nil), s.activities...),
	}
	for k, v := range s.order {
		cp.order[k] = v
	}
	for k, v := range s.items {
		cp.items[k] = v
	}
	for k, v := range s.sales {
		cp.sales[k] = v
	}
	for k, v := range s.purchases {
		cp.purchases[k] = v
	}
	for k, v := range s.users {
		cp.users[k] = v
	}
	return cp
}

func (s *memState) next(id uuid.UUID) {
	s.seq++
	s.order[id] = s.seq
}

// MemoryStore is an in-process Store used for demos and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memState
	now   func() time.Time
}

// NewMemoryStore returns an empty store. now may be nil.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{state: newMemState(), now: now}
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*memTx)(nil)
)

func (m *MemoryStore) read() *memTx {
	return &memTx{state: m.state, now: m.now}
}

// WithTransaction works on a copy of the state and publishes it only when fn succeeds.
func (m *MemoryStore) WithTransaction(ctx context.Context, fn func(tx Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	draft := &memTx{state: m.state.clone(), now: m.now}
	if err := fn(draft); err != nil {
		return err
	}
	m.state = draft.state
	return nil
}

func (m *MemoryStore) write(ctx context.Context, fn func(tx *memTx) error) error {
	return m.WithTransaction(ctx, func(tx Store) error { return fn(tx.(*memTx)) })
}

func (m *MemoryStore) ListItems(ctx context.Context) ([]domain.StockItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.read().ListItems(ctx)
}

func (m *MemoryStore) GetItem(ctx context.Context, id uuid.UUID) (*domain.StockItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.read().GetItem(ctx, id)
}

func (m *MemoryStore) CreateItem(ctx context.Context, item *domain.StockItem) error {
	return m.write(ctx, func(tx *memTx) error { return tx.CreateItem(ctx, item) })
}

func (m *MemoryStore) UpdateItem(ctx context.Context, item *domain.StockItem, expectedVersion int) error {
	return m.write(ctx, func(tx *memTx) error { return tx.UpdateItem(ctx, item, expectedVersion) })
}

func (m *MemoryStore) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return m.write(ctx, func(tx *memTx) error { return tx.DeleteItem(ctx, id) })
}

func (m *MemoryStore) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (*domain.StockItem, error) {
	var out *domain.StockItem
	err := m.write(ctx, func(tx *memTx) error {
		var err error
		out, err = tx.AdjustQuantity(ctx, id, delta)
		return err
	})
	return out, err
}

func (m *MemoryStore) ListSales(ctx context.Context, f SaleFilter) ([]domain.SaleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.read().ListSales(ctx, f)
}

func (m *MemoryStore) GetSale(ctx context.Context, id uuid.UUID) (*domain.SaleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.read().GetSale(ctx, id)
}

func (m *MemoryStore) CreateSale(ctx context.Context, sale *domain.SaleRecord) error {
	return m.write(ctx, func(tx *memTx) error { return tx.CreateSale(ctx, sale) })
}

func (m *MemoryStore) UpdateSale(ctx context.Context, sale *domain.SaleRecord) error {
	return m.write(ctx, func(tx *memTx) error { return tx.UpdateSale(ctx, sale) })
}

func (m *MemoryStore) DeleteSale(ctx context.Context, id uuid.UUID) error {
	return m.write(ctx, func(tx *memTx) error { return tx.DeleteSale(ctx, id) })
}

func (m *MemoryStore) ListPurchases(ctx context.Context, f PurchaseFilter) ([]domain.Purchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.read().ListPurchases(ctx, f)
}

func (m *MemoryStore) CreatePurchase(ctx context.Context, p *domain.Purchase) error {
	return m.write(ctx, func(tx *memTx) error { return tx.CreatePurchase(ctx, p) })
}

func (m *MemoryStore) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.read().FindUserByEmail(ctx, email)
}

func (m *MemoryStore) FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.read().FindUserByID(ctx, id)
}

func (m *MemoryStore) FindUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.read().FindUserByGoogleID(ctx, googleID)
}

func (m *MemoryStore) CreateUser(ctx context.Context, u *domain.User) error {
	return m.write(ctx, func(tx *memTx) error { return tx.CreateUser(ctx, u) })
}

func (m *MemoryStore) UpdateUser(ctx context.Context, u *domain.User) error {
	return m.write(ctx, func(tx *memTx) error { return tx.UpdateUser(ctx, u) })
}

func (m *MemoryStore) CreateActivity(ctx context.Context, a *domain.Activity) error {
	return m.write(ctx, func(tx *memTx) error { return tx.CreateActivity(ctx, a) })
}

func (m *MemoryStore) ListActivities(ctx context.Context, limit int) ([]domain.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.read().ListActivities(ctx, limit)
}

// memTx operates on a state without locking; the owning MemoryStore holds the lock.
type memTx struct {
	state *memState
	now   func() time.Time
}

// WithTransaction on an open transaction joins it.
func (t *memTx) WithTransaction(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}

func (t *memTx) ListItems(ctx context.Context) ([]domain.StockItem, error) {
	out := make([]domain.StockItem, 0, len(t.state.items))
	for _, it := range t.state.items {
		out = append(out, it.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return t.state.order[out[i].ID] < t.state.order[out[j].ID]
	})
	return out, nil
}

func (t *memTx) GetItem(ctx context.Context, id uuid.UUID) (*domain.StockItem, error) {
	it, ok := t.state.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := it.Clone()
	return &cp, nil
}

func (t *memTx) CreateItem(ctx context.Context, item *domain.StockItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := t.now().UTC()
	item.Version = 1
	item.CreatedAt = now
	item.UpdatedAt = now
	t.state.items[item.ID] = item.Clone()
	t.state.next(item.ID)
	return nil
}

func (t *memTx) UpdateItem(ctx context.Context, item *domain.StockItem, expectedVersion int) error {
	cur, ok := t.state.items[item.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if expectedVersion != 0 && cur.Version != expectedVersion {
		return domain.ErrConflict
	}
	item.CreatedAt = cur.CreatedAt
	item.Version = cur.Version + 1
	item.UpdatedAt = t.now().UTC()
	t.state.items[item.ID] = item.Clone()
	return nil
}

func (t *memTx) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if _, ok := t.state.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(t.state.items, id)
	delete(t.state.order, id)
	return nil
}

func (t *memTx) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (*domain.StockItem, error) {
	cur, ok := t.state.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if cur.Quantity+delta < 0 {
		return nil, &domain.StockError{Requested: -delta, Available: cur.Quantity}
	}
	cur = cur.Clone()
	cur.Quantity += delta
	cur.Version++
	cur.UpdatedAt = t.now().UTC()
	t.state.items[id] = cur
	out := cur.Clone()
	return &out, nil
}

func inRange(ts time.Time, from, to *time.Time) bool {
	if from != nil && ts.Before(*from) {
		return false
	}
	if to != nil && !ts.Before(*to) {
		return false
	}
	return true
}

func (t *memTx) ListSales(ctx context.Context, f SaleFilter) ([]domain.SaleRecord, error) {
	out := make([]domain.SaleRecord, 0, len(t.state.sales))
	for _, s := range t.state.sales {
		if f.ItemID != nil && s.ItemID != *f.ItemID {
			continue
		}
		if !inRange(s.CreatedAt, f.From, f.To) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return t.state.order[out[i].ID] > t.state.order[out[j].ID]
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (t *memTx) GetSale(ctx context.Context, id uuid.UUID) (*domain.SaleRecord, error) {
	s, ok := t.state.sales[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (t *memTx) CreateSale(ctx context.Context, sale *domain.SaleRecord) error {
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = t.now().UTC()
	}
	t.state.sales[sale.ID] = *sale
	t.state.next(sale.ID)
	return nil
}

func (t *memTx) UpdateSale(ctx context.Context, sale *domain.SaleRecord) error {
	cur, ok := t.state.sales[sale.ID]
	if !ok {
		return domain.ErrNotFound
	}
	sale.CreatedAt = cur.CreatedAt
	t.state.sales[sale.ID] = *sale
	return nil
}

func (t *memTx) DeleteSale(ctx context.Context, id uuid.UUID) error {
	if _, ok := t.state.sales[id]; !ok {
		return domain.ErrNotFound
	}
	delete(t.state.sales, id)
	delete(t.state.order, id)
	return nil
}

func (t *memTx) ListPurchases(ctx context.Context, f PurchaseFilter) ([]domain.Purchase, error) {
	out := make([]domain.Purchase, 0, len(t.state.purchases))
	for _, p := range t.state.purchases {
		if inRange(p.CreatedAt, f.From, f.To) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return t.state.order[out[i].ID] > t.state.order[out[j].ID]
	})
	return out, nil
}

func (t *memTx) CreatePurchase(ctx context.Context, p *domain.Purchase) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = t.now().UTC()
	}
	t.state.purchases[p.ID] = *p
	t.state.next(p.ID)
	return nil
}

func (t *memTx) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range t.state.users {
		if strings.EqualFold(u.Email, email) {
			cp := u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (t *memTx) FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := t.state.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (t *memTx) FindUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	if googleID == "" {
		return nil, domain.ErrNotFound
	}
	for _, u := range t.state.users {
		if u.GoogleID == googleID {
			cp := u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (t *memTx) CreateUser(ctx context.Context, u *domain.User) error {
	if _, err := t.FindUserByEmail(ctx, u.Email); err == nil {
		return domain.ErrConflict
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = t.now().UTC()
	t.state.users[u.ID] = *u
	return nil
}

func (t *memTx) UpdateUser(ctx context.Context, u *domain.User) error {
	if _, ok := t.state.users[u.ID]; !ok {
		return domain.ErrNotFound
	}
	t.state.users[u.ID] = *u
	return nil
}

func (t *memTx) CreateActivity(ctx context.Context, a *domain.Activity) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = t.now().UTC()
	t.state.activities = append(t.state.activities, *a)
	return nil
}

func (t *memTx) ListActivities(ctx context.Context, limit int) ([]domain.Activity, error) {
	n := len(t.state.activities)
	out := make([]domain.Activity, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, t.state.activities[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
