package reports

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yuditriaji/ruhmrita-backend/internal/analytics"
	"github.com/yuditriaji/ruhmrita-backend/internal/domain"
	"github.com/yuditriaji/ruhmrita-backend/internal/ledger"
	"github.com/yuditriaji/ruhmrita-backend/pkg/response"
)

type Handler struct {
	ledger  *ledger.Ledger
	loc     *time.Location
	restock analytics.RestockOptions
	now     func() time.Time
	log     *zap.Logger
}

// Options holds the reporting timezone and default thresholds.
type Options struct {
	Location *time.Location
	Restock  analytics.RestockOptions
}

func NewHandler(l *ledger.Ledger, log *zap.Logger, opts Options) *Handler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{ledger: l, loc: opts.Location, restock: opts.Restock, now: time.Now, log: log}
}

type ProfitReport struct {
	From       *time.Time                 `json:"from,omitempty"`
	To         *time.Time                 `json:"to,omitempty"`
	ByCategory []analytics.CategoryProfit `json:"by_category"`
	Total      decimal.Decimal            `json:"total_profit"`
}

type InvestmentReport struct {
	From            *time.Time      `json:"from,omitempty"`
	To              *time.Time      `json:"to,omitempty"`
	InvestmentTotal decimal.Decimal `json:"investment_total"`
	SalesTotal      decimal.Decimal `json:"sales_total"`
	Difference      decimal.Decimal `json:"difference"`
}

type TypesReport struct {
	Distribution []analytics.TypeShare  `json:"distribution"`
	Levels       []analytics.StockLevel `json:"levels"`
}

// Summary returns the dashboard report
func (h *Handler) Summary(c *gin.Context) {
	snap, r, opts, ok := h.load(c)
	if !ok {
		return
	}
	rep := analytics.Summary(snap.Items, snap.Sales, snap.Purchases, r, analytics.SummaryOptions{
		Location: h.loc,
		Restock:  opts,
	})
	response.OK(c, http.StatusOK, rep)
}

// Profit returns profit per category and in total
func (h *Handler) Profit(c *gin.Context) {
	snap, r, _, ok := h.load(c)
	if !ok {
		return
	}
	sales := analytics.FilterSales(snap.Sales, r)
	response.OK(c, http.StatusOK, ProfitReport{
		From:       r.From,
		To:         r.To,
		ByCategory: analytics.SortedCategoryProfit(analytics.ProfitByCategory(sales)),
		Total:      analytics.TotalProfit(sales),
	})
}

// Monthly returns the profit trend by calendar month
func (h *Handler) Monthly(c *gin.Context) {
	snap, r, _, ok := h.load(c)
	if !ok {
		return
	}
	response.OK(c, http.StatusOK, analytics.MonthlyProfitTrend(analytics.FilterSales(snap.Sales, r), h.loc))
}

// Investment compares money spent on stock to money taken in sales
func (h *Handler) Investment(c *gin.Context) {
	snap, r, _, ok := h.load(c)
	if !ok {
		return
	}
	invested := analytics.InvestmentTotal(snap.Purchases, r)
	sold := analytics.SalesTotal(snap.Sales, r)
	response.OK(c, http.StatusOK, InvestmentReport{
		From:            r.From,
		To:              r.To,
		InvestmentTotal: invested,
		SalesTotal:      sold,
		Difference:      sold.Sub(invested),
	})
}

// LowStock returns sarees under the threshold query param (default from config)
func (h *Handler) LowStock(c *gin.Context) {
	snap, _, opts, ok := h.load(c)
	if !ok {
		return
	}
	response.OK(c, http.StatusOK, analytics.LowStockSet(snap.Items, opts.LowStockThreshold))
}

// Restock returns the reorder candidates
func (h *Handler) Restock(c *gin.Context) {
	snap, _, opts, ok := h.load(c)
	if !ok {
		return
	}
	response.OK(c, http.StatusOK, analytics.RestockCandidates(snap.Items, snap.Sales, opts))
}

// Types returns the catalog split by type plus per saree stock levels
func (h *Handler) Types(c *gin.Context) {
	snap, _, opts, ok := h.load(c)
	if !ok {
		return
	}
	response.OK(c, http.StatusOK, TypesReport{
		Distribution: analytics.TypeDistribution(snap.Items),
		Levels:       analytics.StockLevels(snap.Items, opts.LowStockThreshold),
	})
}

// load parses from, to, threshold, fast_threshold and window_days and fetches the snapshot.
func (h *Handler) load(c *gin.Context) (ledger.Snapshot, analytics.Range, analytics.RestockOptions, bool) {
	opts := h.restock
	opts.Now = h.now()

	r, err := analytics.DayRange(c.Query("from"), c.Query("to"), h.loc)
	if err != nil {
		response.Error(c, h.log, err)
		return ledger.Snapshot{}, r, opts, false
	}

	for key, dst := range map[string]*int{
		"threshold":      &opts.LowStockThreshold,
		"fast_threshold": &opts.FastSellingThreshold,
		"window_days":    &opts.WindowDays,
	} {
		v := c.Query(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.Error(c, h.log, domain.Invalid(key, "must be a positive whole number"))
			return ledger.Snapshot{}, r, opts, false
		}
		*dst = n
	}
	if opts.LowStockThreshold <= 0 {
		opts.LowStockThreshold = analytics.DefaultLowStockThreshold
	}

	snap, err := h.ledger.Snapshot(c.Request.Context())
	if err != nil {
		response.Error(c, h.log, err)
		return ledger.Snapshot{}, r, opts, false
	}
	return snap, r, opts, true
}
