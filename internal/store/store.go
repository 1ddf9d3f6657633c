package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yuditriaji/ruhmrita-backend/internal/domain"
)

// SaleFilter narrows ListSales. Zero values mean "no bound".
type SaleFilter struct {
	From   *time.Time
	To     *time.Time // exclusive
	ItemID *uuid.UUID
	Limit  int
}

// PurchaseFilter narrows ListPurchases.
type PurchaseFilter struct {
	From *time.Time
	To   *time.Time // exclusive
}

// Items persists stock items together with their image sets.
type Items interface {
	ListItems(ctx context.Context) ([]domain.StockItem, error)
	GetItem(ctx context.Context, id uuid.UUID) (*domain.StockItem, error)
	CreateItem(ctx context.Context, item *domain.StockItem) error
	// UpdateItem replaces the mutable fields. expectedVersion 0 skips the version check.
	UpdateItem(ctx context.Context, item *domain.StockItem, expectedVersion int) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	// AdjustQuantity adds delta to the stored quantity, refusing to go below zero.
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (*domain.StockItem, error)
}

// Sales persists sale records, newest first on listing.
type Sales interface {
	ListSales(ctx context.Context, f SaleFilter) ([]domain.SaleRecord, error)
	GetSale(ctx context.Context, id uuid.UUID) (*domain.SaleRecord, error)
	CreateSale(ctx context.Context, sale *domain.SaleRecord) error
	UpdateSale(ctx context.Context, sale *domain.SaleRecord) error
	DeleteSale(ctx context.Context, id uuid.UUID) error
}

// Purchases persists investment records.
type Purchases interface {
	ListPurchases(ctx context.Context, f PurchaseFilter) ([]domain.Purchase, error)
	CreatePurchase(ctx context.Context, p *domain.Purchase) error
}

// Users persists back office accounts.
type Users interface {
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, u *domain.User) error
}

// Activities persists the audit trail.
type Activities interface {
	CreateActivity(ctx context.Context, a *domain.Activity) error
	ListActivities(ctx context.Context, limit int) ([]domain.Activity, error)
}

// Store is the full persistence surface. WithTransaction runs fn against a
// transactional view; any error returned by fn discards every write made through it.
type Store interface {
	Items
	Sales
	Purchases
	Users
	Activities
	WithTransaction(ctx context.Context, fn func(tx Store) error) error
}
