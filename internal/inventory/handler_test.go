package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/yuditriaji/ruhmrita-backend/internal/domain"
	"github.com/yuditriaji/ruhmrita-backend/internal/ledger"
	"github.com/yuditriaji/ruhmrita-backend/internal/store"
	"github.com/yuditriaji/ruhmrita-backend/pkg/activitylog"
)

const placeholder = "https://img.test/placeholder.jpg"

type fakeUploader struct{ n int }

func (f *fakeUploader) Upload(_ context.Context, name, _ string, body io.Reader) (string, error) {
	b, _ := io.ReadAll(body)
	if string(b) == "fail" {
		return "", errors.New("bucket unavailable")
	}
	f.n++
	return "https://img.test/" + name, nil
}

type fixture struct {
	engine   *gin.Engine
	ledger   *ledger.Ledger
	uploader *fakeUploader
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := store.NewMemoryStore(nil)
	l := ledger.New(mem)
	up := &fakeUploader{}
	acts := activitylog.NewLogger(mem, nil)

	h := NewHandler(l, up, acts, nil, Options{PlaceholderImageURL: placeholder, LowStockThreshold: 5})
	imp := NewImportHandler(l, acts, nil, placeholder)

	r := gin.New()
	r.GET("/sarees", h.List)
	r.POST("/sarees", h.Create)
	r.POST("/sarees/import", imp.ImportExcel)
	r.GET("/sarees/template", imp.DownloadTemplate)
	r.GET("/sarees/export", h.ExportInventory)
	r.GET("/sarees/:id", h.Get)
	r.PUT("/sarees/:id", h.Update)
	r.DELETE("/sarees/:id", h.Delete)

	return &fixture{engine: r, ledger: l, uploader: up}
}

func (f *fixture) do(method, target string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decodeItem(t *testing.T, w *httptest.ResponseRecorder) domain.StockItem {
	t.Helper()
	var env struct {
		Data domain.StockItem `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Data
}

func (f *fixture) create(t *testing.T, body string) domain.StockItem {
	t.Helper()
	w := f.do(http.MethodPost, "/sarees", strings.NewReader(body), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeItem(t, w)
}

func TestCreateJSON(t *testing.T) {
	f := newFixture(t)

	item := f.create(t, `{"name":"Royal Bridal Silk","type":"Silk","price":"12000","quantity":4,"tags":"Zari, Handloom","auto_tags":true}`)
	assert.Equal(t, "Royal Bridal Silk", item.Name)
	assert.Equal(t, 1, item.Version)
	assert.Equal(t, []string{placeholder}, item.Images)
	assert.Equal(t, []string{"Zari", "Handloom", "Traditional", "Wedding"}, item.Tags)
}

func TestCreateRejectsInvalid(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/sarees", strings.NewReader(`{"name":"","type":"Silk","price":100}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"name"`)

	w = f.do(http.MethodPost, "/sarees", strings.NewReader(`{"name":"x","type":"Silk","price":100,"quantity":-1}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"quantity"`)
}

func TestCreateMultipartUploadsImages(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Chiffon Evening"))
	require.NoError(t, mw.WriteField("type", "Chiffon"))
	require.NoError(t, mw.WriteField("price", "3500.50"))
	require.NoError(t, mw.WriteField("quantity", "2"))
	for _, content := range []string{"jpeg-bytes", "fail"} {
		part, err := mw.CreateFormFile("images", "photo.png")
		require.NoError(t, err)
		_, _ = part.Write([]byte(content))
	}
	require.NoError(t, mw.Close())

	w := f.do(http.MethodPost, "/sarees", &buf, map[string]string{"Content-Type": mw.FormDataContentType()})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	item := decodeItem(t, w)
	require.Len(t, item.Images, 2)
	assert.True(t, strings.HasPrefix(item.Images[0], "https://img.test/"))
	assert.True(t, strings.HasSuffix(item.Images[0], ".png"))
	assert.Equal(t, placeholder, item.Images[1])
	assert.Equal(t, "3500.5", item.Price.String())
	assert.Equal(t, 1, f.uploader.n)
}

func multipartSaree(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("images", "photo.jpg")
	require.NoError(t, err)
	_, _ = part.Write([]byte("jpeg-bytes"))
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestInvalidSareeUploadsNothing(t *testing.T) {
	f := newFixture(t)

	body, ct := multipartSaree(t, map[string]string{"name": "", "type": "Silk", "price": "100"})
	w := f.do(http.MethodPost, "/sarees", body, map[string]string{"Content-Type": ct})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"name"`)
	assert.Equal(t, 0, f.uploader.n)

	item := f.create(t, `{"name":"Red Silk","type":"Silk","price":1000,"quantity":2}`)
	body, ct = multipartSaree(t, map[string]string{"name": "Red Silk", "type": "Silk", "price": "-5"})
	w = f.do(http.MethodPut, "/sarees/"+item.ID.String(), body, map[string]string{"Content-Type": ct})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"price"`)
	assert.Equal(t, 0, f.uploader.n)
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	f.create(t, `{"name":"Red Silk","type":"Silk","price":1000,"quantity":2}`)
	f.create(t, `{"name":"Blue Cotton","type":"Cotton","price":300,"quantity":20}`)
	f.create(t, `{"name":"Green Silk","type":"Silk","price":5000,"quantity":0}`)

	names := func(target string) []string {
		w := f.do(http.MethodGet, target, nil, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var env struct {
			Data []domain.StockItem `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		var out []string
		for _, it := range env.Data {
			out = append(out, it.Name)
		}
		return out
	}

	assert.Len(t, names("/sarees"), 3)
	assert.ElementsMatch(t, []string{"Red Silk", "Green Silk"}, names("/sarees?type=Silk"))
	assert.ElementsMatch(t, []string{"Red Silk", "Blue Cotton"}, names("/sarees?in_stock=true"))
	assert.ElementsMatch(t, []string{"Red Silk", "Green Silk"}, names("/sarees?low_stock=true"))
	assert.ElementsMatch(t, []string{"Red Silk"}, names("/sarees?max_price=1000&min_price=500"))

	w := f.do(http.MethodGet, "/sarees?min_price=cheap", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateWithVersion(t *testing.T) {
	f := newFixture(t)
	item := f.create(t, `{"name":"Red Silk","type":"Silk","price":1000,"quantity":2,"image_url":"https://img.test/a.jpg","tags":["Zari"]}`)

	w := f.do(http.MethodGet, "/sarees/"+item.ID.String(), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `"1"`, w.Header().Get("ETag"))

	body := `{"name":"Red Silk Deluxe","type":"Silk","price":1200,"quantity":5}`
	w = f.do(http.MethodPut, "/sarees/"+item.ID.String(), strings.NewReader(body), map[string]string{"If-Match": `"1"`})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeItem(t, w)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, `"2"`, w.Header().Get("ETag"))
	assert.Equal(t, []string{"https://img.test/a.jpg"}, updated.Images)
	assert.Equal(t, []string{"Zari"}, updated.Tags)

	w = f.do(http.MethodPut, "/sarees/"+item.ID.String(), strings.NewReader(body), map[string]string{"If-Match": `"1"`})
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)

	w = f.do(http.MethodPut, "/sarees/"+item.ID.String(), strings.NewReader(body), map[string]string{"If-Match": "latest"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	item := f.create(t, `{"name":"Red Silk","type":"Silk","price":1000,"quantity":2}`)

	w := f.do(http.MethodDelete, "/sarees/"+item.ID.String(), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/sarees/"+item.ID.String(), nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/sarees/"+item.ID.String(), nil, nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/sarees/not-an-id", nil, nil).Code)
}

func TestExportAndTemplate(t *testing.T) {
	f := newFixture(t)
	f.create(t, `{"name":"Red Silk","type":"Silk","price":1000,"quantity":2}`)

	for _, target := range []string{"/sarees/export", "/sarees/template"} {
		w := f.do(http.MethodGet, target, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
		assert.NotZero(t, w.Body.Len())
	}

	w := f.do(http.MethodGet, "/sarees/template", nil, nil)
	book, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer book.Close()
	width, err := book.GetColWidth("Sheet1", "A")
	require.NoError(t, err)
	assert.Equal(t, 28.0, width)
	rows, err := book.GetRows("Sheet1")
	require.NoError(t, err)
	assert.Equal(t, "Name", rows[0][0])
}
