package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockItem is one saree design in the catalog with its quantity on hand.
type StockItem struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Images      []string        `json:"images"`
	Tags        []string        `json:"tags"`
	Description string          `json:"description,omitempty"`
	Version     int             `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ImageURL returns the primary image, or "" when the item has none.
func (s StockItem) ImageURL() string {
	if len(s.Images) == 0 {
		return ""
	}
	return s.Images[0]
}

// HasImage reports whether url is one of the item's images.
func (s StockItem) HasImage(url string) bool {
	for _, img := range s.Images {
		if img == url {
			return true
		}
	}
	return false
}

// IsLowStock reports whether quantity is below threshold.
func (s StockItem) IsLowStock(threshold int) bool {
	return s.Quantity < threshold
}

// Clone returns a copy that shares no slices with s.
func (s StockItem) Clone() StockItem {
	cp := s
	if s.Images != nil {
		cp.Images = append([]string(nil), s.Images...)
	}
	if s.Tags != nil {
		cp.Tags = append([]string(nil), s.Tags...)
	}
	return cp
}

// SaleRecord is one sale logged against a StockItem. Cost, margin, item name and
// category are snapshots taken when the sale was recorded.
type SaleRecord struct {
	ID           uuid.UUID           `json:"id"`
	ItemID       uuid.UUID           `json:"saree_id"`
	ItemName     string              `json:"saree_name"`
	CustomerName string              `json:"customer_name"`
	Quantity     int                 `json:"quantity"`
	SellingPrice decimal.Decimal     `json:"selling_price"`
	CostPrice    decimal.NullDecimal `json:"cost_price"`
	Margin       decimal.NullDecimal `json:"margin"`
	Category     string              `json:"type"`
	ImageURL     string              `json:"image_url,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// Profit is margin × quantity. Sales without a recorded margin contribute zero.
func (s SaleRecord) Profit() decimal.Decimal {
	if !s.Margin.Valid {
		return decimal.Zero
	}
	return s.Margin.Decimal.Mul(decimal.NewFromInt(int64(s.Quantity)))
}

// Revenue is quantity × selling price.
func (s SaleRecord) Revenue() decimal.Decimal {
	return s.SellingPrice.Mul(decimal.NewFromInt(int64(s.Quantity)))
}

// Purchase records stock bought in: the investment side of the books.
type Purchase struct {
	ID        uuid.UUID       `json:"id"`
	ItemID    *uuid.UUID      `json:"saree_id,omitempty"`
	ItemName  string          `json:"saree_name"`
	Quantity  int             `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	TotalCost decimal.Decimal `json:"total_cost"`
	CreatedAt time.Time       `json:"created_at"`
}

// User is a person allowed to sign in to the back office.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	GoogleID     string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Activity is one audit trail entry.
type Activity struct {
	ID         uuid.UUID  `json:"id"`
	UserID     *uuid.UUID `json:"user_id,omitempty"`
	Action     string     `json:"action"`
	EntityType string     `json:"entity_type"`
	EntityID   *uuid.UUID `json:"entity_id,omitempty"`
	Details    string     `json:"details"`
	IPAddress  string     `json:"ip_address"`
	CreatedAt  time.Time  `json:"created_at"`
}
