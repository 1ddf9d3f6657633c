package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yuditriaji/ruhmrita-backend/internal/domain"
	"github.com/yuditriaji/ruhmrita-backend/internal/store"
)

// EnsureOwner creates the shop owner account when no user with email exists yet.
// An existing account is left untouched, including its password.
func EnsureOwner(ctx context.Context, users store.Users, email, password string, log *zap.Logger) (*domain.User, error) {
	if log == nil {
		log = zap.NewNop()
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, nil
	}

	existing, err := users.FindUserByEmail(ctx, email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("look up owner: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash owner password: %w", err)
	}

	owner := &domain.User{
		Email:        email,
		Name:         strings.Split(email, "@")[0],
		PasswordHash: string(hash),
		Role:         "owner",
		IsActive:     true,
	}
	if err := users.CreateUser(ctx, owner); err != nil {
		return nil, fmt.Errorf("create owner: %w", err)
	}

	log.Info("Owner account created", zap.String("email", email))
	return owner, nil
}
