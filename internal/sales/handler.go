package sales

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yuditriaji/ruhmrita-backend/internal/analytics"
	"github.com/yuditriaji/ruhmrita-backend/internal/domain"
	"github.com/yuditriaji/ruhmrita-backend/internal/ledger"
	"github.com/yuditriaji/ruhmrita-backend/pkg/activitylog"
	"github.com/yuditriaji/ruhmrita-backend/pkg/response"
	"github.com/yuditriaji/ruhmrita-backend/pkg/spreadsheet"
)

type Handler struct {
	ledger   *ledger.Ledger
	activity *activitylog.Logger
	loc      *time.Location
	log      *zap.Logger
}

func NewHandler(l *ledger.Ledger, activity *activitylog.Logger, loc *time.Location, log *zap.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{ledger: l, activity: activity, loc: loc, log: log}
}

type CreateSaleRequest struct {
	SareeID      uuid.UUID       `json:"saree_id"`
	Quantity     int             `json:"quantity"`
	CustomerName string          `json:"customer_name"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	ImageURL     string          `json:"image_url"`
}

type UpdateSaleRequest struct {
	CustomerName string          `json:"customer_name"`
	Quantity     int             `json:"quantity"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	ImageURL     string          `json:"image_url"`
}

// List returns sales newest first. from and to are YYYY-MM-DD with to inclusive;
// limit defaults to 50.
func (h *Handler) List(c *gin.Context) {
	sales, ok := h.query(c)
	if !ok {
		return
	}
	response.OK(c, http.StatusOK, sales)
}

func (h *Handler) query(c *gin.Context) ([]domain.SaleRecord, bool) {
	limit := ledger.DefaultHistoryLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.Error(c, h.log, domain.Invalid("limit", "must be a positive whole number"))
			return nil, false
		}
		limit = n
	}

	r, err := analytics.DayRange(c.Query("from"), c.Query("to"), h.loc)
	if err != nil {
		response.Error(c, h.log, err)
		return nil, false
	}

	history := limit
	if r.From != nil || r.To != nil {
		history = math.MaxInt
	}
	sales, err := h.ledger.SalesHistory(c.Request.Context(), history)
	if err != nil {
		response.Error(c, h.log, err)
		return nil, false
	}

	sales = analytics.FilterSales(sales, r)
	if len(sales) > limit {
		sales = sales[:limit]
	}
	return sales, true
}

// Create records a sale and decrements stock
func (h *Handler) Create(c *gin.Context) {
	var req CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.log, domain.Invalid("body", err.Error()))
		return
	}

	sale, err := h.ledger.RecordSale(c.Request.Context(), ledger.SaleInput{
		ItemID:       req.SareeID,
		Quantity:     req.Quantity,
		CustomerName: req.CustomerName,
		SellingPrice: req.SellingPrice,
		ImageURL:     req.ImageURL,
	})
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	h.activity.LogCreate(c, "sale", sale.ID, sale)
	response.OK(c, http.StatusCreated, sale)
}

// Update edits a recorded sale. Stock is not touched.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, h.log, domain.Invalid("id", "must be a valid id"))
		return
	}

	var req UpdateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.log, domain.Invalid("body", err.Error()))
		return
	}

	sale, err := h.ledger.EditSale(c.Request.Context(), id, ledger.SaleEdit{
		CustomerName: req.CustomerName,
		Quantity:     req.Quantity,
		SellingPrice: req.SellingPrice,
		ImageURL:     req.ImageURL,
	})
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	h.activity.LogUpdate(c, "sale", id, req, sale)
	response.OK(c, http.StatusOK, sale)
}

// Delete removes a sale record. The sold quantity is not returned to stock.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, h.log, domain.Invalid("id", "must be a valid id"))
		return
	}

	if err := h.ledger.DeleteSale(c.Request.Context(), id); err != nil {
		response.Error(c, h.log, err)
		return
	}

	h.activity.LogDelete(c, "sale", id, nil)
	response.OK(c, http.StatusOK, gin.H{"id": id})
}

// Export downloads the filtered sales history as .xlsx
func (h *Handler) Export(c *gin.Context) {
	sales, ok := h.query(c)
	if !ok {
		return
	}

	rows := make([][]interface{}, 0, len(sales))
	for _, s := range sales {
		selling, _ := s.SellingPrice.Float64()
		var cost, margin interface{} = "", ""
		if s.CostPrice.Valid {
			cost, _ = s.CostPrice.Decimal.Float64()
		}
		if s.Margin.Valid {
			margin, _ = s.Margin.Decimal.Float64()
		}
		profit, _ := s.Profit().Float64()
		rows = append(rows, []interface{}{
			s.CreatedAt.In(h.loc).Format("2006-01-02 15:04"),
			s.ItemName, s.Category, s.CustomerName, s.Quantity,
			selling, cost, margin, profit,
		})
	}

	f, err := spreadsheet.Table(
		[]string{"Date", "Saree", "Type", "Customer", "Quantity", "Selling Price", "Cost Price", "Margin", "Profit"},
		rows,
	)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	spreadsheet.Write(c, f, fmt.Sprintf("sales_%s.xlsx", time.Now().In(h.loc).Format("20060102")), h.log)
}
