package auth

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/yuditriaji/ruhmrita-backend/internal/domain"
	"github.com/yuditriaji/ruhmrita-backend/internal/store"
	"github.com/yuditriaji/ruhmrita-backend/pkg/middleware"
	"github.com/yuditriaji/ruhmrita-backend/pkg/response"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type Handler struct {
	users        store.Users
	secret       string
	googleConfig *oauth2.Config
	userInfoURL  string
	client       *resty.Client
	frontendURL  string
	now          func() time.Time
	log          *zap.Logger
}

// Options carries the signing secret and the optional Google client.
type Options struct {
	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	FrontendURL        string
}

func NewHandler(users store.Users, log *zap.Logger, opts Options) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		users:       users,
		secret:      opts.JWTSecret,
		userInfoURL: googleUserInfoURL,
		client:      resty.New().SetTimeout(10 * time.Second),
		frontendURL: strings.TrimRight(opts.FrontendURL, "/"),
		now:         time.Now,
		log:         log,
	}
	if opts.GoogleClientID != "" && opts.GoogleClientSecret != "" {
		h.googleConfig = &oauth2.Config{
			ClientID:     opts.GoogleClientID,
			ClientSecret: opts.GoogleClientSecret,
			RedirectURL:  opts.GoogleRedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		}
	}
	return h
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
	User         domain.User `json:"user"`
}

type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Login authenticates a user with email/password
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.FindUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			response.Error(c, h.log, err)
			return
		}
		response.Fail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !user.IsActive || user.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		response.Fail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	h.issue(c, http.StatusOK, *user)
}

// RefreshToken generates new tokens from a refresh token
func (h *Handler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	claims, err := middleware.ParseToken(h.secret, req.RefreshToken, middleware.TokenRefresh)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	userID, err := uuid.Parse(claims["user_id"].(string))
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, "Invalid token claims")
		return
	}

	user, err := h.users.FindUserByID(c.Request.Context(), userID)
	if err != nil || !user.IsActive {
		response.Fail(c, http.StatusUnauthorized, "User not found")
		return
	}

	h.issue(c, http.StatusOK, *user)
}

// GetMe returns the current user's info
func (h *Handler) GetMe(c *gin.Context) {
	userID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, "Invalid token claims")
		return
	}

	user, err := h.users.FindUserByID(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	response.OK(c, http.StatusOK, user)
}

// GoogleLogin redirects to Google OAuth consent screen
func (h *Handler) GoogleLogin(c *gin.Context) {
	if h.googleConfig == nil {
		response.Fail(c, http.StatusNotFound, "Google sign-in is not enabled")
		return
	}

	state := uuid.New().String()
	c.SetCookie("oauth_state", state, 300, "/", "", false, true)

	c.Redirect(http.StatusTemporaryRedirect, h.googleConfig.AuthCodeURL(state))
}

// GoogleCallback signs in an already provisioned user. Unknown Google accounts are
// sent back to the frontend with an error instead of being registered.
func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.googleConfig == nil {
		response.Fail(c, http.StatusNotFound, "Google sign-in is not enabled")
		return
	}

	storedState, err := c.Cookie("oauth_state")
	if err != nil || c.Query("state") != storedState {
		response.Fail(c, http.StatusBadRequest, "Invalid state parameter")
		return
	}

	code := c.Query("code")
	if code == "" {
		response.Fail(c, http.StatusBadRequest, "No authorization code")
		return
	}

	ctx := c.Request.Context()
	token, err := h.googleConfig.Exchange(ctx, code)
	if err != nil {
		h.log.Warn("Google token exchange failed", zap.Error(err))
		response.Fail(c, http.StatusBadGateway, "Failed to exchange token")
		return
	}

	info, err := h.googleUserInfo(c, token.AccessToken)
	if err != nil {
		h.log.Warn("Google userinfo failed", zap.Error(err))
		response.Fail(c, http.StatusBadGateway, "Failed to get user info")
		return
	}

	user, err := h.linkGoogleUser(c, info)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/login?error=not_provisioned")
			return
		}
		response.Error(c, h.log, err)
		return
	}

	accessToken, refreshToken, _, err := generateTokens(h.secret, *user, h.now())
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	// the frontend lives on another origin, so tokens travel in the redirect query
	q := url.Values{}
	q.Set("access_token", accessToken)
	q.Set("refresh_token", refreshToken)
	c.Redirect(http.StatusTemporaryRedirect, fmt.Sprintf("%s/auth/callback?%s", h.frontendURL, q.Encode()))
}

func (h *Handler) googleUserInfo(c *gin.Context, accessToken string) (*GoogleUserInfo, error) {
	var info GoogleUserInfo
	resp, err := h.client.R().
		SetContext(c.Request.Context()).
		SetAuthToken(accessToken).
		SetResult(&info).
		Get(h.userInfoURL)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode())
	}
	if info.Email == "" {
		return nil, errors.New("userinfo has no email")
	}
	return &info, nil
}

// linkGoogleUser finds the user by Google ID, then by verified email, and links the ID.
func (h *Handler) linkGoogleUser(c *gin.Context, info *GoogleUserInfo) (*domain.User, error) {
	ctx := c.Request.Context()

	user, err := h.users.FindUserByGoogleID(ctx, info.ID)
	if err == nil {
		if !user.IsActive {
			return nil, domain.ErrNotFound
		}
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if !info.VerifiedEmail {
		return nil, domain.ErrNotFound
	}
	user, err = h.users.FindUserByEmail(ctx, info.Email)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrNotFound
	}

	user.GoogleID = info.ID
	if err := h.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (h *Handler) issue(c *gin.Context, status int, user domain.User) {
	accessToken, refreshToken, expiresIn, err := generateTokens(h.secret, user, h.now())
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	response.OK(c, status, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
		User:         user,
	})
}
