package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yuditriaji/ruhmrita-backend/internal/domain"
	"github.com/yuditriaji/ruhmrita-backend/internal/store"
)

var (
	ErrNotFound          = domain.ErrNotFound
	ErrValidation        = domain.ErrValidation
	ErrInsufficientStock = domain.ErrInsufficientStock
	ErrConflict          = domain.ErrConflict
)

// DefaultHistoryLimit is how many sales SalesHistory returns when no limit is given.
const DefaultHistoryLimit = 50

// Snapshot is a point in time copy of the ledger. Callers own it.
type Snapshot struct {
	Items     []domain.StockItem  `json:"items"`
	Sales     []domain.SaleRecord `json:"sales"`
	Purchases []domain.Purchase   `json:"purchases"`
	LoadedAt  time.Time           `json:"loaded_at"`
}

// Item returns the item with id, if present.
func (s Snapshot) Item(id uuid.UUID) (domain.StockItem, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return domain.StockItem{}, false
}

func (s Snapshot) copy() Snapshot {
	cp := Snapshot{
		Items:     make([]domain.StockItem, len(s.Items)),
		Sales:     append([]domain.SaleRecord(nil), s.Sales...),
		Purchases: append([]domain.Purchase(nil), s.Purchases...),
		LoadedAt:  s.LoadedAt,
	}
	for i, it := range s.Items {
		cp.Items[i] = it.Clone()
	}
	return cp
}

// Ledger applies validated mutations to the store and keeps a snapshot that is
// replaced wholesale after every successful write.
type Ledger struct {
	store    store.Store
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time

	refreshMu sync.Mutex
	mu        sync.RWMutex
	snap      Snapshot
	stale     bool
}

// Option configures a Ledger.
type Option func(*Ledger)

func WithNotifier(n Notifier) Option {
	return func(l *Ledger) { l.notifier = n }
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// New builds a Ledger over s. The snapshot starts stale and is loaded on first use.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:    s,
		notifier: nopNotifier{},
		log:      zap.NewNop(),
		now:      time.Now,
		stale:    true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Refresh re-fetches items, sales and purchases and swaps them in.
func (l *Ledger) Refresh(ctx context.Context) error {
	l.refreshMu.Lock()
	defer l.refreshMu.Unlock()

	items, err := l.store.ListItems(ctx)
	if err != nil {
		l.markStale()
		return fmt.Errorf("refresh items: %w", err)
	}
	sales, err := l.store.ListSales(ctx, store.SaleFilter{})
	if err != nil {
		l.markStale()
		return fmt.Errorf("refresh sales: %w", err)
	}
	purchases, err := l.store.ListPurchases(ctx, store.PurchaseFilter{})
	if err != nil {
		l.markStale()
		return fmt.Errorf("refresh purchases: %w", err)
	}

	l.mu.Lock()
	l.snap = Snapshot{Items: items, Sales: sales, Purchases: purchases, LoadedAt: l.now().UTC()}
	l.stale = false
	l.mu.Unlock()
	return nil
}

func (l *Ledger) markStale() {
	l.mu.Lock()
	l.stale = true
	l.mu.Unlock()
}

// Snapshot returns a copy of the current state, refreshing first if the last refresh failed.
func (l *Ledger) Snapshot(ctx context.Context) (Snapshot, error) {
	l.mu.RLock()
	stale := l.stale
	l.mu.RUnlock()

	if stale {
		if err := l.Refresh(ctx); err != nil {
			return Snapshot{}, err
		}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap.copy(), nil
}

// Items returns the current items.
func (l *Ledger) Items(ctx context.Context) ([]domain.StockItem, error) {
	snap, err := l.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Items, nil
}

// Item returns a single item from the snapshot.
func (l *Ledger) Item(ctx context.Context, id uuid.UUID) (*domain.StockItem, error) {
	snap, err := l.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	it, ok := snap.Item(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &it, nil
}

// SalesHistory returns up to limit sales, newest first. Older rows that predate the
// name and type snapshots get them filled in from the current catalog.
func (l *Ledger) SalesHistory(ctx context.Context, limit int) ([]domain.SaleRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	snap, err := l.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]domain.StockItem, len(snap.Items))
	for _, it := range snap.Items {
		byID[it.ID] = it
	}

	out := snap.Sales
	if len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		it, ok := byID[out[i].ItemID]
		if !ok {
			continue
		}
		if out[i].ItemName == "" {
			out[i].ItemName = it.Name
		}
		if out[i].Category == "" {
			out[i].Category = it.Type
		}
	}
	return out, nil
}

// Add creates a stock item. A positive opening quantity is booked as a purchase
// at the catalog price.
func (l *Ledger) Add(ctx context.Context, in ItemInput) (*domain.StockItem, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	item := &domain.StockItem{
		ID:          uuid.New(),
		Name:        in.Name,
		Type:        in.Type,
		Price:       in.Price,
		Quantity:    in.Quantity,
		Images:      in.Images,
		Tags:        in.Tags,
		Description: in.Description,
	}

	err = l.store.WithTransaction(ctx, func(tx store.Store) error {
		if err := tx.CreateItem(ctx, item); err != nil {
			return err
		}
		if item.Quantity == 0 {
			return nil
		}
		id := item.ID
		return tx.CreatePurchase(ctx, &domain.Purchase{
			ItemID:    &id,
			ItemName:  item.Name,
			Quantity:  item.Quantity,
			UnitCost:  item.Price,
			TotalCost: item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	})
	if err != nil {
		return nil, wrapStore("add item", err)
	}

	l.afterWrite(ctx, EventItemCreated, item.ID)
	return item, nil
}

// Update replaces the mutable fields of id. expectedVersion 0 skips the version check.
func (l *Ledger) Update(ctx context.Context, id uuid.UUID, in ItemInput, expectedVersion int) (*domain.StockItem, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	item := &domain.StockItem{
		ID:          id,
		Name:        in.Name,
		Type:        in.Type,
		Price:       in.Price,
		Quantity:    in.Quantity,
		Images:      in.Images,
		Tags:        in.Tags,
		Description: in.Description,
	}
	if err := l.store.UpdateItem(ctx, item, expectedVersion); err != nil {
		return nil, wrapStore("update item", err)
	}

	l.afterWrite(ctx, EventItemUpdated, id)
	return item, nil
}

// Delete removes id. Sales that reference it are kept.
func (l *Ledger) Delete(ctx context.Context, id uuid.UUID) error {
	if err := l.store.DeleteItem(ctx, id); err != nil {
		return wrapStore("delete item", err)
	}
	l.afterWrite(ctx, EventItemDeleted, id)
	return nil
}

// RecordSale decrements stock and logs the sale in one transaction. Cost, margin,
// name and category are snapshotted from the item as it is inside the transaction.
func (l *Ledger) RecordSale(ctx context.Context, in SaleInput) (*domain.SaleRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.ImageURL = strings.TrimSpace(in.ImageURL)

	var sale *domain.SaleRecord
	err := l.store.WithTransaction(ctx, func(tx store.Store) error {
		item, err := tx.GetItem(ctx, in.ItemID)
		if err != nil {
			return err
		}
		if in.Quantity > item.Quantity {
			return &domain.StockError{Requested: in.Quantity, Available: item.Quantity}
		}
		if in.ImageURL != "" && !item.HasImage(in.ImageURL) {
			return domain.Invalid("image_url", "must be one of the saree's images")
		}

		if _, err := tx.AdjustQuantity(ctx, item.ID, -in.Quantity); err != nil {
			return err
		}

		rec := &domain.SaleRecord{
			ItemID:       item.ID,
			ItemName:     item.Name,
			CustomerName: in.CustomerName,
			Quantity:     in.Quantity,
			SellingPrice: in.SellingPrice,
			CostPrice:    decimal.NewNullDecimal(item.Price),
			Margin:       decimal.NewNullDecimal(in.SellingPrice.Sub(item.Price)),
			Category:     item.Type,
			ImageURL:     in.ImageURL,
			CreatedAt:    l.now().UTC(),
		}
		if err := tx.CreateSale(ctx, rec); err != nil {
			return err
		}
		sale = rec
		return nil
	})
	if err != nil {
		return nil, wrapStore("record sale", err)
	}

	l.log.Info("Sale recorded",
		zap.String("sale_id", sale.ID.String()),
		zap.String("saree_id", sale.ItemID.String()),
		zap.Int("quantity", sale.Quantity),
	)
	l.afterWrite(ctx, EventSaleRecorded, sale.ID)
	return sale, nil
}

// EditSale changes customer, quantity, price and image of a sale. The margin is
// recomputed only when the sale carries a cost price. Stock is not adjusted.
func (l *Ledger) EditSale(ctx context.Context, id uuid.UUID, e SaleEdit) (*domain.SaleRecord, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}

	var sale *domain.SaleRecord
	err := l.store.WithTransaction(ctx, func(tx store.Store) error {
		cur, err := tx.GetSale(ctx, id)
		if err != nil {
			return err
		}
		cur.CustomerName = strings.TrimSpace(e.CustomerName)
		cur.Quantity = e.Quantity
		cur.SellingPrice = e.SellingPrice
		cur.ImageURL = strings.TrimSpace(e.ImageURL)
		if cur.CostPrice.Valid {
			cur.Margin = decimal.NewNullDecimal(e.SellingPrice.Sub(cur.CostPrice.Decimal))
		}
		if err := tx.UpdateSale(ctx, cur); err != nil {
			return err
		}
		sale = cur
		return nil
	})
	if err != nil {
		return nil, wrapStore("edit sale", err)
	}

	l.afterWrite(ctx, EventSaleUpdated, id)
	return sale, nil
}

// DeleteSale removes the sale record only. The sold quantity is not returned to stock.
func (l *Ledger) DeleteSale(ctx context.Context, id uuid.UUID) error {
	if err := l.store.DeleteSale(ctx, id); err != nil {
		return wrapStore("delete sale", err)
	}
	l.afterWrite(ctx, EventSaleDeleted, id)
	return nil
}

// RecordPurchase adds stock to an item and books the investment atomically.
func (l *Ledger) RecordPurchase(ctx context.Context, in PurchaseInput) (*domain.Purchase, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var p *domain.Purchase
	err := l.store.WithTransaction(ctx, func(tx store.Store) error {
		item, err := tx.AdjustQuantity(ctx, in.ItemID, in.Quantity)
		if err != nil {
			return err
		}
		id := item.ID
		rec := &domain.Purchase{
			ItemID:    &id,
			ItemName:  item.Name,
			Quantity:  in.Quantity,
			UnitCost:  in.UnitCost,
			TotalCost: in.UnitCost.Mul(decimal.NewFromInt(int64(in.Quantity))),
			CreatedAt: l.now().UTC(),
		}
		if err := tx.CreatePurchase(ctx, rec); err != nil {
			return err
		}
		p = rec
		return nil
	})
	if err != nil {
		return nil, wrapStore("record purchase", err)
	}

	l.afterWrite(ctx, EventPurchaseRecorded, p.ID)
	return p, nil
}

func (l *Ledger) afterWrite(ctx context.Context, kind EventType, id uuid.UUID) {
	if err := l.Refresh(ctx); err != nil {
		l.log.Warn("Snapshot refresh failed, marked stale", zap.Error(err))
	}
	l.notifier.Notify(Event{Type: kind, EntityID: id, At: l.now().UTC()})
}

// wrapStore leaves domain errors untouched so callers can classify them.
func wrapStore(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrConflict):
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
