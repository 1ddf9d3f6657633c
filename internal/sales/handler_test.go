package sales

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuditriaji/ruhmrita-backend/internal/domain"
	"github.com/yuditriaji/ruhmrita-backend/internal/ledger"
	"github.com/yuditriaji/ruhmrita-backend/internal/store"
	"github.com/yuditriaji/ruhmrita-backend/pkg/activitylog"
)

type fixture struct {
	engine *gin.Engine
	ledger *ledger.Ledger
	now    time.Time
	item   *domain.StockItem
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{now: time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }
	mem := store.NewMemoryStore(clock)
	f.ledger = ledger.New(mem, ledger.WithClock(clock))

	item, err := f.ledger.Add(context.Background(), ledger.ItemInput{
		Name: "Red Silk", Type: "Silk", Price: decimal.NewFromInt(1000), Quantity: 5,
		Images: []string{"https://img.test/red.jpg"},
	})
	require.NoError(t, err)
	f.item = item

	h := NewHandler(f.ledger, activitylog.NewLogger(mem, nil), time.UTC, nil)
	r := gin.New()
	r.GET("/sales", h.List)
	r.POST("/sales", h.Create)
	r.GET("/sales/export", h.Export)
	r.PUT("/sales/:id", h.Update)
	r.DELETE("/sales/:id", h.Delete)
	f.engine = r
	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *fixture) sell(t *testing.T, qty int, price string) domain.SaleRecord {
	t.Helper()
	body := `{"saree_id":"` + f.item.ID.String() + `","quantity":` + itoa(qty) + `,"customer_name":"Asha","selling_price":"` + price + `"}`
	w := f.do(http.MethodPost, "/sales", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var env struct {
		Data domain.SaleRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Data
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func (f *fixture) list(t *testing.T, target string) []domain.SaleRecord {
	t.Helper()
	w := f.do(http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var env struct {
		Data []domain.SaleRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Data
}

func TestCreateSale(t *testing.T) {
	f := newFixture(t)

	sale := f.sell(t, 2, "1500")
	assert.Equal(t, "Red Silk", sale.ItemName)
	assert.Equal(t, "Silk", sale.Category)
	assert.Equal(t, "500", sale.Margin.Decimal.String())

	it, err := f.ledger.Item(context.Background(), f.item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, it.Quantity)
}

func TestCreateSaleErrors(t *testing.T) {
	f := newFixture(t)
	id := f.item.ID.String()

	w := f.do(http.MethodPost, "/sales", `{"saree_id":"`+id+`","quantity":9,"customer_name":"Asha","selling_price":1500}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"available":5`)

	w = f.do(http.MethodPost, "/sales", `{"saree_id":"`+id+`","quantity":1,"customer_name":"","selling_price":1500}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/sales", `{"saree_id":"`+id+`","quantity":1,"customer_name":"Asha","selling_price":1500,"image_url":"https://elsewhere.test/x.jpg"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"image_url"`)

	w = f.do(http.MethodPost, "/sales", `{"saree_id":"9d1c3b6e-0000-4000-8000-000000000000","quantity":1,"customer_name":"Asha","selling_price":1500}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodPost, "/sales", `{"saree_id":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListRangeAndLimit(t *testing.T) {
	f := newFixture(t)
	f.sell(t, 1, "1100")
	f.now = f.now.AddDate(0, 0, 1)
	f.sell(t, 1, "1200")
	f.now = f.now.AddDate(0, 0, 1)
	f.sell(t, 1, "1300")

	all := f.list(t, "/sales")
	require.Len(t, all, 3)
	assert.Equal(t, "1300", all[0].SellingPrice.String())

	assert.Len(t, f.list(t, "/sales?limit=2"), 2)

	ranged := f.list(t, "/sales?from=2025-03-04&to=2025-03-05")
	require.Len(t, ranged, 2)
	assert.Equal(t, "1200", ranged[0].SellingPrice.String())

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/sales?from=04-03-2025", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/sales?limit=0", "").Code)
}

func TestUpdateAndDeleteSale(t *testing.T) {
	f := newFixture(t)
	sale := f.sell(t, 2, "1500")

	w := f.do(http.MethodPut, "/sales/"+sale.ID.String(), `{"customer_name":"Meera","quantity":1,"selling_price":"1800"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var env struct {
		Data domain.SaleRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "Meera", env.Data.CustomerName)
	assert.Equal(t, "800", env.Data.Margin.Decimal.String())

	w = f.do(http.MethodDelete, "/sales/"+sale.ID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.list(t, "/sales"))

	it, err := f.ledger.Item(context.Background(), f.item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, it.Quantity)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/sales/"+sale.ID.String(), "").Code)
}

func TestExportSales(t *testing.T) {
	f := newFixture(t)
	f.sell(t, 1, "1500")

	w := f.do(http.MethodGet, "/sales/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "sales_")
}
