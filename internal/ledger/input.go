package ledger

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yuditriaji/ruhmrita-backend/internal/domain"
)

// ItemInput carries the user supplied fields of a stock item.
type ItemInput struct {
	Name        string
	Type        string
	Price       decimal.Decimal
	Quantity    int
	Images      []string
	Tags        []string
	Description string
}

// SaleInput carries the fields of a new sale.
type SaleInput struct {
	ItemID       uuid.UUID
	Quantity     int
	CustomerName string
	SellingPrice decimal.Decimal
	ImageURL     string
}

// SaleEdit carries the editable fields of a recorded sale.
type SaleEdit struct {
	CustomerName string
	Quantity     int
	SellingPrice decimal.Decimal
	ImageURL     string
}

// PurchaseInput carries a restock.
type PurchaseInput struct {
	ItemID   uuid.UUID
	Quantity int
	UnitCost decimal.Decimal
}

// ValidateItem checks in the way Add and Update will, without touching the store.
func ValidateItem(in ItemInput) error {
	_, err := in.normalize()
	return err
}

func (in ItemInput) normalize() (ItemInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Type = strings.TrimSpace(in.Type)
	in.Description = strings.TrimSpace(in.Description)

	if in.Name == "" {
		return in, domain.Invalid("name", "is required")
	}
	if in.Type == "" {
		return in, domain.Invalid("type", "is required")
	}
	if in.Price.IsNegative() {
		return in, domain.Invalid("price", "must not be negative")
	}
	if in.Quantity < 0 {
		return in, domain.Invalid("quantity", "must not be negative")
	}

	in.Images = compact(in.Images, -1)
	in.Tags = compact(in.Tags, -1)
	return in, nil
}

// compact trims, drops blanks and duplicates, and keeps at most max entries (max < 0 means no cap).
func compact(values []string, max int) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if max >= 0 && len(out) == max {
			break
		}
	}
	return out
}

func (in SaleInput) validate() error {
	if in.ItemID == uuid.Nil {
		return domain.Invalid("saree_id", "is required")
	}
	if in.Quantity < 1 {
		return domain.Invalid("quantity", "must be at least 1")
	}
	if strings.TrimSpace(in.CustomerName) == "" {
		return domain.Invalid("customer_name", "is required")
	}
	if !in.SellingPrice.IsPositive() {
		return domain.Invalid("selling_price", "must be greater than 0")
	}
	return nil
}

func (e SaleEdit) validate() error {
	if strings.TrimSpace(e.CustomerName) == "" {
		return domain.Invalid("customer_name", "is required")
	}
	if e.Quantity < 1 {
		return domain.Invalid("quantity", "must be at least 1")
	}
	if !e.SellingPrice.IsPositive() {
		return domain.Invalid("selling_price", "must be greater than 0")
	}
	return nil
}

func (in PurchaseInput) validate() error {
	if in.ItemID == uuid.Nil {
		return domain.Invalid("saree_id", "is required")
	}
	if in.Quantity < 1 {
		return domain.Invalid("quantity", "must be at least 1")
	}
	if in.UnitCost.IsNegative() {
		return domain.Invalid("unit_cost", "must not be negative")
	}
	return nil
}
