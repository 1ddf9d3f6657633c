// Package analytics derives read-only reports from stock items, sales and purchases.
// Every function is pure: inputs are never modified.
package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yuditriaji/ruhmrita-backend/internal/domain"
)

const dateLayout = "2006-01-02"

// Range is a half open interval [From, To). A nil bound is unbounded.
type Range struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether t falls inside r.
func (r Range) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && !t.Before(*r.To) {
		return false
	}
	return true
}

// DayRange builds a Range from YYYY-MM-DD strings interpreted in loc. The to day is
// included: the bound becomes the start of the following day. Empty strings leave
// that side open.
func DayRange(from, to string, loc *time.Location) (Range, error) {
	if loc == nil {
		loc = time.UTC
	}
	var r Range
	if s := strings.TrimSpace(from); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return Range{}, domain.Invalid("from", fmt.Sprintf("expected YYYY-MM-DD, got %q", from))
		}
		r.From = &t
	}
	if s := strings.TrimSpace(to); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return Range{}, domain.Invalid("to", fmt.Sprintf("expected YYYY-MM-DD, got %q", to))
		}
		end := t.AddDate(0, 0, 1)
		r.To = &end
	}
	if r.From != nil && r.To != nil && !r.From.Before(*r.To) {
		return Range{}, domain.Invalid("to", "must not be before from")
	}
	return r, nil
}

// FilterSales keeps the sales created inside r.
func FilterSales(sales []domain.SaleRecord, r Range) []domain.SaleRecord {
	out := make([]domain.SaleRecord, 0, len(sales))
	for _, s := range sales {
		if r.Contains(s.CreatedAt) {
			out = append(out, s)
		}
	}
	return out
}

// CategoryProfit is one row of ProfitByCategory in a stable order.
type CategoryProfit struct {
	Category string          `json:"category"`
	Profit   decimal.Decimal `json:"profit"`
}

// ProfitByCategory sums margin × quantity per category.
func ProfitByCategory(sales []domain.SaleRecord) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, s := range sales {
		out[s.Category] = out[s.Category].Add(s.Profit())
	}
	return out
}

// SortedCategoryProfit orders ProfitByCategory by profit, highest first, then by name.
func SortedCategoryProfit(byCategory map[string]decimal.Decimal) []CategoryProfit {
	out := make([]CategoryProfit, 0, len(byCategory))
	for k, v := range byCategory {
		out = append(out, CategoryProfit{Category: k, Profit: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Profit.Cmp(out[j].Profit); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// TotalProfit sums margin × quantity. Sales with no recorded margin add nothing.
func TotalProfit(sales []domain.SaleRecord) decimal.Decimal {
	total := decimal.Zero
	for _, s := range sales {
		total = total.Add(s.Profit())
	}
	return total
}

// MonthlyProfit is the profit booked in one calendar month.
type MonthlyProfit struct {
	Month  string          `json:"month"`
	Profit decimal.Decimal `json:"profit"`
}

// MonthlyProfitTrend groups profit by calendar month of creation in loc and returns
// the months in chronological order, labelled like "Jan 2025".
func MonthlyProfitTrend(sales []domain.SaleRecord, loc *time.Location) []MonthlyProfit {
	if loc == nil {
		loc = time.UTC
	}
	type bucket struct {
		start  time.Time
		profit decimal.Decimal
	}
	byMonth := make(map[time.Time]*bucket)
	for _, s := range sales {
		t := s.CreatedAt.In(loc)
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
		b, ok := byMonth[start]
		if !ok {
			b = &bucket{start: start, profit: decimal.Zero}
			byMonth[start] = b
		}
		b.profit = b.profit.Add(s.Profit())
	}

	buckets := make([]*bucket, 0, len(byMonth))
	for _, b := range byMonth {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].start.Before(buckets[j].start) })

	out := make([]MonthlyProfit, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, MonthlyProfit{Month: b.start.Format("Jan 2006"), Profit: b.profit})
	}
	return out
}

// InvestmentTotal sums the total cost of purchases made inside r.
func InvestmentTotal(purchases []domain.Purchase, r Range) decimal.Decimal {
	total := decimal.Zero
	for _, p := range purchases {
		if r.Contains(p.CreatedAt) {
			total = total.Add(p.TotalCost)
		}
	}
	return total
}

// SalesTotal sums quantity × selling price of sales inside r.
func SalesTotal(sales []domain.SaleRecord, r Range) decimal.Decimal {
	total := decimal.Zero
	for _, s := range sales {
		if r.Contains(s.CreatedAt) {
			total = total.Add(s.Revenue())
		}
	}
	return total
}
