package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yuditriaji/ruhmrita-backend/internal/domain"
	"github.com/yuditriaji/ruhmrita-backend/pkg/middleware"
)

const (
	accessTTL  = 15 * time.Minute
	refreshTTL = 7 * 24 * time.Hour
)

func generateTokens(secret string, user domain.User, now time.Time) (string, string, int64, error) {
	accessClaims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"role":    user.Role,
		"typ":     middleware.TokenAccess,
		"iat":     now.Unix(),
		"exp":     now.Add(accessTTL).Unix(),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString([]byte(secret))
	if err != nil {
		return "", "", 0, err
	}

	refreshClaims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"typ":     middleware.TokenRefresh,
		"iat":     now.Unix(),
		"exp":     now.Add(refreshTTL).Unix(),
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString([]byte(secret))
	if err != nil {
		return "", "", 0, err
	}

	return accessToken, refreshToken, int64(accessTTL.Seconds()), nil
}
