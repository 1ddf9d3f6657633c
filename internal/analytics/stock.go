package analytics

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yuditriaji/ruhmrita-backend/internal/domain"
)

const (
	DefaultLowStockThreshold    = 5
	DefaultFastSellingThreshold = 10
	DefaultWindowDays           = 30

	ReasonLowStock    = "Low Stock"
	ReasonFastSelling = "Fast Selling"
)

// LowStockSet returns the items whose quantity is below threshold. Callers pick the
// threshold; DefaultLowStockThreshold is the usual one.
func LowStockSet(items []domain.StockItem, threshold int) []domain.StockItem {
	out := make([]domain.StockItem, 0)
	for _, it := range items {
		if it.IsLowStock(threshold) {
			out = append(out, it)
		}
	}
	return out
}

// RestockOptions tunes RestockCandidates. Zero fields take the defaults.
type RestockOptions struct {
	LowStockThreshold    int
	FastSellingThreshold int
	WindowDays           int
	Now                  time.Time
}

func (o RestockOptions) withDefaults() RestockOptions {
	if o.LowStockThreshold <= 0 {
		o.LowStockThreshold = DefaultLowStockThreshold
	}
	if o.FastSellingThreshold <= 0 {
		o.FastSellingThreshold = DefaultFastSellingThreshold
	}
	if o.WindowDays <= 0 {
		o.WindowDays = DefaultWindowDays
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	return o
}

// RestockCandidate is an item that should be reordered.
type RestockCandidate struct {
	Item         domain.StockItem `json:"saree"`
	Reason       string           `json:"reason"`
	LowStock     bool             `json:"low_stock"`
	FastSelling  bool             `json:"fast_selling"`
	SoldInWindow int              `json:"sold_in_window"`
}

// SoldInWindow sums sold quantity per item for sales in (now - days, now].
func SoldInWindow(sales []domain.SaleRecord, now time.Time, days int) map[uuid.UUID]int {
	since := now.AddDate(0, 0, -days)
	out := make(map[uuid.UUID]int)
	for _, s := range sales {
		if s.CreatedAt.Before(since) || s.CreatedAt.After(now) {
			continue
		}
		out[s.ItemID] += s.Quantity
	}
	return out
}

// RestockCandidates flags items that are low on stock or sold more than the fast
// selling threshold over the trailing window. Low stock wins the reason when both apply.
func RestockCandidates(items []domain.StockItem, sales []domain.SaleRecord, opts RestockOptions) []RestockCandidate {
	opts = opts.withDefaults()
	sold := SoldInWindow(sales, opts.Now, opts.WindowDays)

	out := make([]RestockCandidate, 0)
	for _, it := range items {
		low := it.IsLowStock(opts.LowStockThreshold)
		fast := sold[it.ID] > opts.FastSellingThreshold
		if !low && !fast {
			continue
		}
		reason := ReasonFastSelling
		if low {
			reason = ReasonLowStock
		}
		out = append(out, RestockCandidate{
			Item:         it,
			Reason:       reason,
			LowStock:     low,
			FastSelling:  fast,
			SoldInWindow: sold[it.ID],
		})
	}
	return out
}

// TypeShare is the share of catalog entries of one type.
type TypeShare struct {
	Type    string `json:"type"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// TypeDistribution counts items per type in first appearance order. Percent is
// rounded to the nearest whole number and is meant for display only.
func TypeDistribution(items []domain.StockItem) []TypeShare {
	index := make(map[string]int)
	out := make([]TypeShare, 0)
	for _, it := range items {
		i, ok := index[it.Type]
		if !ok {
			i = len(out)
			index[it.Type] = i
			out = append(out, TypeShare{Type: it.Type})
		}
		out[i].Count++
	}
	total := len(items)
	for i := range out {
		out[i].Percent = int(math.Round(float64(out[i].Count) * 100 / float64(total)))
	}
	return out
}

// StockLevel is one bar of the stock levels view.
type StockLevel struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Quantity int       `json:"quantity"`
	LowStock bool      `json:"low_stock"`
}

// StockLevels lists every item with its quantity and low stock flag.
// threshold <= 0 uses DefaultLowStockThreshold.
func StockLevels(items []domain.StockItem, threshold int) []StockLevel {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	out := make([]StockLevel, 0, len(items))
	for _, it := range items {
		out = append(out, StockLevel{
			ID:       it.ID,
			Name:     it.Name,
			Type:     it.Type,
			Quantity: it.Quantity,
			LowStock: it.IsLowStock(threshold),
		})
	}
	return out
}

// ItemFilter is the catalog list filter. Zero fields do not filter.
type ItemFilter struct {
	Query             string
	Type              string
	MinPrice          *decimal.Decimal
	MaxPrice          *decimal.Decimal
	InStockOnly       bool
	LowStockOnly      bool
	LowStockThreshold int
}

// FilterItems applies f. Query matches name, type, description and tags case-insensitively.
func FilterItems(items []domain.StockItem, f ItemFilter) []domain.StockItem {
	threshold := f.LowStockThreshold
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	typ := strings.TrimSpace(f.Type)

	out := make([]domain.StockItem, 0, len(items))
	for _, it := range items {
		if typ != "" && !strings.EqualFold(it.Type, typ) {
			continue
		}
		if f.MinPrice != nil && it.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && it.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		if f.InStockOnly && it.Quantity <= 0 {
			continue
		}
		if f.LowStockOnly && !it.IsLowStock(threshold) {
			continue
		}
		if q != "" && !matches(it, q) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func matches(it domain.StockItem, q string) bool {
	if strings.Contains(strings.ToLower(it.Name), q) ||
		strings.Contains(strings.ToLower(it.Type), q) ||
		strings.Contains(strings.ToLower(it.Description), q) {
		return true
	}
	for _, tag := range it.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}
