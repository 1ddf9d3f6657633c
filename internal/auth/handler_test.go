package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/yuditriaji/ruhmrita-backend/internal/domain"
	"github.com/yuditriaji/ruhmrita-backend/internal/store"
	"github.com/yuditriaji/ruhmrita-backend/pkg/middleware"
)

const secret = "test-secret"

func newTestHandler(t *testing.T) (*Handler, *store.MemoryStore, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := store.NewMemoryStore(nil)
	_, err := EnsureOwner(context.Background(), mem, "owner@shop.test", "s3cret-pass", nil)
	require.NoError(t, err)

	h := NewHandler(mem, nil, Options{JWTSecret: secret, FrontendURL: "https://app.test"})
	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", h.RefreshToken)
	r.GET("/auth/google/callback", h.GoogleCallback)
	r.GET("/auth/me", middleware.AuthRequired(secret), h.GetMe)
	return h, mem, r
}

func post(r http.Handler, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeAuth(t *testing.T, w *httptest.ResponseRecorder) AuthResponse {
	t.Helper()
	var env struct {
		Data AuthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Data
}

func TestLoginRefreshAndMe(t *testing.T) {
	_, _, r := newTestHandler(t)

	w := post(r, "/auth/login", `{"email":"OWNER@shop.test","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tokens := decodeAuth(t, w)
	assert.Equal(t, int64(900), tokens.ExpiresIn)
	assert.Equal(t, "owner", tokens.User.Role)
	assert.NotContains(t, w.Body.String(), "password")

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	me := httptest.NewRecorder()
	r.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), "owner@shop.test")

	// a refresh token is not an access token and the reverse
	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.RefreshToken)
	me = httptest.NewRecorder()
	r.ServeHTTP(me, req)
	assert.Equal(t, http.StatusUnauthorized, me.Code)
	assert.Equal(t, http.StatusUnauthorized, post(r, "/auth/refresh", `{"refresh_token":"`+tokens.AccessToken+`"}`).Code)

	w = post(r, "/auth/refresh", `{"refresh_token":"`+tokens.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decodeAuth(t, w).AccessToken)
}

func TestLoginFailures(t *testing.T) {
	_, mem, r := newTestHandler(t)

	assert.Equal(t, http.StatusUnauthorized, post(r, "/auth/login", `{"email":"owner@shop.test","password":"wrong"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, post(r, "/auth/login", `{"email":"nobody@shop.test","password":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(r, "/auth/login", `{"email":"not-an-email","password":"x"}`).Code)

	u, err := mem.FindUserByEmail(context.Background(), "owner@shop.test")
	require.NoError(t, err)
	u.IsActive = false
	require.NoError(t, mem.UpdateUser(context.Background(), u))
	assert.Equal(t, http.StatusUnauthorized, post(r, "/auth/login", `{"email":"owner@shop.test","password":"s3cret-pass"}`).Code)
}

func TestEnsureOwnerIsIdempotent(t *testing.T) {
	mem := store.NewMemoryStore(nil)
	ctx := context.Background()

	first, err := EnsureOwner(ctx, mem, "owner@shop.test", "one", nil)
	require.NoError(t, err)
	second, err := EnsureOwner(ctx, mem, "owner@shop.test", "two", nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.PasswordHash, second.PasswordHash)

	none, err := EnsureOwner(ctx, mem, "", "", nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestGoogleCallbackLinksProvisionedUser(t *testing.T) {
	h, mem, r := newTestHandler(t)

	var userinfoEmail = "owner@shop.test"
	google := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch req.URL.Path {
		case "/token":
			_, _ = w.Write([]byte(`{"access_token":"google-at","token_type":"Bearer","expires_in":3600}`))
		case "/userinfo":
			assert.Equal(t, "Bearer google-at", req.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(GoogleUserInfo{ID: "g-123", Email: userinfoEmail, VerifiedEmail: true})
		default:
			http.NotFound(w, req)
		}
	}))
	defer google.Close()

	h.googleConfig = &oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{TokenURL: google.URL + "/token", AuthStyle: oauth2.AuthStyleInParams},
	}
	h.userInfoURL = google.URL + "/userinfo"

	callback := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=s1&code=c1", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "s1"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := callback()
	require.Equal(t, http.StatusTemporaryRedirect, w.Code, w.Body.String())
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/auth/callback", loc.Path)
	assert.NotEmpty(t, loc.Query().Get("access_token"))

	u, err := mem.FindUserByGoogleID(context.Background(), "g-123")
	require.NoError(t, err)
	assert.Equal(t, "owner@shop.test", u.Email)

	userinfoEmail = "stranger@shop.test"
	require.NoError(t, mem.UpdateUser(context.Background(), &domain.User{ID: u.ID, Email: u.Email, Role: u.Role, IsActive: true, PasswordHash: u.PasswordHash}))
	w = callback()
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "error=not_provisioned")
}

func TestGoogleCallbackRejectsBadState(t *testing.T) {
	h, _, r := newTestHandler(t)
	h.googleConfig = &oauth2.Config{ClientID: "id"}

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=other&code=c1", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "s1"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
