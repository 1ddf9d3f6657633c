package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuditriaji/ruhmrita-backend/internal/domain"
)

func fixedClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newItem(name string, qty int) *domain.StockItem {
	return &domain.StockItem{
		Name:     name,
		Type:     "Silk",
		Price:    decimal.NewFromInt(1000),
		Quantity: qty,
		Images:   []string{"https://img/" + name + ".jpg"},
		Tags:     []string{"Traditional"},
	}
}

func TestMemoryStore_CreateAndGetReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)

	item := newItem("Banarasi", 3)
	require.NoError(t, s.CreateItem(ctx, item))
	require.NotEqual(t, uuid.Nil, item.ID)
	assert.Equal(t, 1, item.Version)

	got, err := s.GetItem(ctx, item.ID)
	require.NoError(t, err)
	got.Images[0] = "mutated"

	again, err := s.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://img/Banarasi.jpg", again.Images[0])
}

func TestMemoryStore_ListItemsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	for _, n := range []string{"a", "b", "c"} {
		require.NoError(t, s.CreateItem(ctx, newItem(n, 1)))
	}
	items, err := s.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{items[0].Name, items[1].Name, items[2].Name})
}

func TestMemoryStore_UpdateItemVersionCheck(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	item := newItem("Kanjivaram", 2)
	require.NoError(t, s.CreateItem(ctx, item))

	upd := item.Clone()
	upd.Quantity = 7
	require.NoError(t, s.UpdateItem(ctx, &upd, 1))
	assert.Equal(t, 2, upd.Version)

	stale := item.Clone()
	err := s.UpdateItem(ctx, &stale, 1)
	assert.ErrorIs(t, err, domain.ErrConflict)

	missing := newItem("ghost", 1)
	missing.ID = uuid.New()
	assert.ErrorIs(t, s.UpdateItem(ctx, missing, 0), domain.ErrNotFound)
}

func TestMemoryStore_AdjustQuantityRefusesNegative(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	item := newItem("Chiffon", 2)
	require.NoError(t, s.CreateItem(ctx, item))

	_, err := s.AdjustQuantity(ctx, item.ID, -3)
	var stockErr *domain.StockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 3, stockErr.Requested)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	got, err := s.AdjustQuantity(ctx, item.ID, -2)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)

	_, err = s.AdjustQuantity(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStore_TransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	item := newItem("Georgette", 5)
	require.NoError(t, s.CreateItem(ctx, item))

	boom := errors.New("boom")
	err := s.WithTransaction(ctx, func(tx Store) error {
		if _, err := tx.AdjustQuantity(ctx, item.ID, -2); err != nil {
			return err
		}
		if err := tx.CreateSale(ctx, &domain.SaleRecord{ItemID: item.ID, Quantity: 2}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)

	sales, err := s.ListSales(ctx, SaleFilter{})
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestMemoryStore_TransactionCommits(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	item := newItem("Cotton", 5)
	require.NoError(t, s.CreateItem(ctx, item))

	err := s.WithTransaction(ctx, func(tx Store) error {
		_, err := tx.AdjustQuantity(ctx, item.ID, -1)
		return err
	})
	require.NoError(t, err)

	got, err := s.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Quantity)
}

func TestMemoryStore_ListSalesNewestFirstWithFilters(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewMemoryStore(nil)
	itemID := uuid.New()
	other := uuid.New()

	for i, id := range []uuid.UUID{itemID, other, itemID} {
		require.NoError(t, s.CreateSale(ctx, &domain.SaleRecord{
			ItemID:    id,
			Quantity:  i + 1,
			CreatedAt: base.AddDate(0, 0, i),
		}))
	}

	all, err := s.ListSales(ctx, SaleFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 3, all[0].Quantity)
	assert.Equal(t, 1, all[2].Quantity)

	from := base.AddDate(0, 0, 1)
	to := base.AddDate(0, 0, 2)
	ranged, err := s.ListSales(ctx, SaleFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, 2, ranged[0].Quantity)

	byItem, err := s.ListSales(ctx, SaleFilter{ItemID: &itemID, Limit: 1})
	require.NoError(t, err)
	require.Len(t, byItem, 1)
	assert.Equal(t, 3, byItem[0].Quantity)
}

func TestMemoryStore_Users(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(fixedClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))

	u := &domain.User{Email: "Owner@Shop.test", Name: "Owner", Role: "owner", IsActive: true}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.ErrorIs(t, s.CreateUser(ctx, &domain.User{Email: "owner@shop.test"}), domain.ErrConflict)

	found, err := s.FindUserByEmail(ctx, "owner@shop.test")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	found.GoogleID = "g-123"
	require.NoError(t, s.UpdateUser(ctx, found))
	byGoogle, err := s.FindUserByGoogleID(ctx, "g-123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byGoogle.ID)

	_, err = s.FindUserByGoogleID(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStore_ActivitiesNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(nil)
	for _, a := range []string{"create", "update", "delete"} {
		require.NoError(t, s.CreateActivity(ctx, &domain.Activity{Action: a}))
	}
	list, err := s.ListActivities(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "delete", list[0].Action)
	assert.Equal(t, "update", list[1].Action)
}
