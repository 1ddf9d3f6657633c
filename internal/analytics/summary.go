package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/yuditriaji/ruhmrita-backend/internal/domain"
)

// Report bundles the dashboard figures for one range.
type Report struct {
	From             *time.Time         `json:"from,omitempty"`
	To               *time.Time         `json:"to,omitempty"`
	TotalItems       int                `json:"total_items"`
	TotalUnits       int                `json:"total_units"`
	StockValue       decimal.Decimal    `json:"stock_value"`
	LowStockCount    int                `json:"low_stock_count"`
	OutOfStockCount  int                `json:"out_of_stock_count"`
	SalesCount       int                `json:"sales_count"`
	UnitsSold        int                `json:"units_sold"`
	SalesTotal       decimal.Decimal    `json:"sales_total"`
	InvestmentTotal  decimal.Decimal    `json:"investment_total"`
	TotalProfit      decimal.Decimal    `json:"total_profit"`
	ProfitByCategory []CategoryProfit   `json:"profit_by_category"`
	MonthlyTrend     []MonthlyProfit    `json:"monthly_trend"`
	Types            []TypeShare        `json:"types"`
	Restock          []RestockCandidate `json:"restock"`
}

// SummaryOptions tunes Summary.
type SummaryOptions struct {
	Location *time.Location
	Restock  RestockOptions
}

// Summary computes the dashboard report. Stock figures use the whole catalog; sales,
// profit and investment figures use only records inside r.
func Summary(items []domain.StockItem, sales []domain.SaleRecord, purchases []domain.Purchase, r Range, opts SummaryOptions) Report {
	restock := opts.Restock.withDefaults()
	inRange := FilterSales(sales, r)

	rep := Report{
		From:             r.From,
		To:               r.To,
		TotalItems:       len(items),
		StockValue:       decimal.Zero,
		SalesCount:       len(inRange),
		SalesTotal:       SalesTotal(inRange, Range{}),
		InvestmentTotal:  InvestmentTotal(purchases, r),
		TotalProfit:      TotalProfit(inRange),
		ProfitByCategory: SortedCategoryProfit(ProfitByCategory(inRange)),
		MonthlyTrend:     MonthlyProfitTrend(inRange, opts.Location),
		Types:            TypeDistribution(items),
		Restock:          RestockCandidates(items, sales, restock),
	}
	for _, it := range items {
		rep.TotalUnits += it.Quantity
		rep.StockValue = rep.StockValue.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		switch {
		case it.Quantity <= 0:
			rep.OutOfStockCount++
			rep.LowStockCount++
		case it.IsLowStock(restock.LowStockThreshold):
			rep.LowStockCount++
		}
	}
	for _, s := range inRange {
		rep.UnitsSold += s.Quantity
	}
	return rep
}
