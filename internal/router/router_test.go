package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuditriaji/ruhmrita-backend/internal/auth"
	"github.com/yuditriaji/ruhmrita-backend/internal/config"
	"github.com/yuditriaji/ruhmrita-backend/internal/ledger"
	"github.com/yuditriaji/ruhmrita-backend/internal/store"
	"github.com/yuditriaji/ruhmrita-backend/pkg/realtime"
	"github.com/yuditriaji/ruhmrita-backend/pkg/storage"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0", FrontendURL: "http://localhost:3000"},
		Store:  config.StoreConfig{Driver: "memory"},
		Auth:   config.AuthConfig{JWTSecret: "router-secret"},
		Storage: config.StorageConfig{
			Driver:              "local",
			UploadDir:           t.TempDir(),
			PublicBaseURL:       "http://localhost:8080",
			PlaceholderImageURL: "https://img.test/placeholder.jpg",
		},
		Reporting: config.ReportingConfig{
			Timezone:             "UTC",
			LowStockThreshold:    5,
			FastSellingThreshold: 10,
			WindowDays:           30,
		},
	}
}

type app struct {
	server *httptest.Server
	hub    *realtime.Hub
	token  string
}

func newApp(t *testing.T) *app {
	t.Helper()
	cfg := testConfig(t)
	mem := store.NewMemoryStore(nil)
	_, err := auth.EnsureOwner(context.Background(), mem, "owner@shop.test", "s3cret-pass", nil)
	require.NoError(t, err)

	hub := realtime.NewHub(nil, nil)
	l := ledger.New(mem, ledger.WithNotifier(ledger.NotifierFunc(func(e ledger.Event) { hub.Publish(e) })))

	engine := New(Deps{
		Config:   cfg,
		Store:    mem,
		Ledger:   l,
		Uploader: storage.NewLocalUploader(cfg.Storage.UploadDir, cfg.Storage.PublicBaseURL),
		Hub:      hub,
	})
	srv := httptest.NewServer(engine)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	a := &app{server: srv, hub: hub}
	resp := a.call(t, http.MethodPost, "/api/v1/auth/login", `{"email":"owner@shop.test","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusOK, resp.status, resp.body)
	var env struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp.body), &env))
	a.token = env.Data.AccessToken
	return a
}

type result struct {
	status int
	body   string
}

func (a *app) call(t *testing.T, method, path, body string) result {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, a.server.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return result{status: resp.StatusCode, body: string(b)}
}

func dataID(t *testing.T, body string) string {
	t.Helper()
	var env struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &env))
	return env.Data.ID
}

func TestHealthAndAuthGate(t *testing.T) {
	a := newApp(t)

	resp, err := http.Get(a.server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(a.server.URL + "/api/v1/sarees")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSellFlow(t *testing.T) {
	a := newApp(t)

	created := a.call(t, http.MethodPost, "/api/v1/sarees", `{"name":"Royal Silk","type":"Silk","price":"1000","quantity":6}`)
	require.Equal(t, http.StatusCreated, created.status, created.body)
	id := dataID(t, created.body)

	sold := a.call(t, http.MethodPost, "/api/v1/sales", `{"saree_id":"`+id+`","quantity":2,"customer_name":"Asha","selling_price":"1500"}`)
	require.Equal(t, http.StatusCreated, sold.status, sold.body)

	over := a.call(t, http.MethodPost, "/api/v1/sales", `{"saree_id":"`+id+`","quantity":5,"customer_name":"Asha","selling_price":"1500"}`)
	assert.Equal(t, http.StatusConflict, over.status)

	item := a.call(t, http.MethodGet, "/api/v1/sarees/"+id, "")
	require.Equal(t, http.StatusOK, item.status)
	assert.Contains(t, item.body, `"quantity":4`)

	summary := a.call(t, http.MethodGet, "/api/v1/reports/summary", "")
	require.Equal(t, http.StatusOK, summary.status)
	var env struct {
		Data struct {
			TotalProfit     string `json:"total_profit"`
			InvestmentTotal string `json:"investment_total"`
			LowStockCount   int    `json:"low_stock_count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(summary.body), &env))
	assert.Equal(t, "1000", env.Data.TotalProfit)
	assert.Equal(t, "6000", env.Data.InvestmentTotal)
	assert.Equal(t, 1, env.Data.LowStockCount)

	acts := a.call(t, http.MethodGet, "/api/v1/activity", "")
	require.Equal(t, http.StatusOK, acts.status)
	assert.Contains(t, acts.body, `"entity_type":"sale"`)
}

func TestChangeFeed(t *testing.T) {
	a := newApp(t)

	wsURL := "ws" + strings.TrimPrefix(a.server.URL, "http") + "/api/v1/ws?token=" + a.token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// the hub registers the connection after the upgrade completes
	require.Eventually(t, func() bool { return a.hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	created := a.call(t, http.MethodPost, "/api/v1/sarees", `{"name":"Feed Silk","type":"Silk","price":"100","quantity":1}`)
	require.Equal(t, http.StatusCreated, created.status)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev ledger.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, ledger.EventItemCreated, ev.Type)
	assert.Equal(t, dataID(t, created.body), ev.EntityID.String())
}

func TestChangeFeedNeedsToken(t *testing.T) {
	a := newApp(t)

	wsURL := "ws" + strings.TrimPrefix(a.server.URL, "http") + "/api/v1/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
