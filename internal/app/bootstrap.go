package app

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/iliyamo/elternsprechtag/internal/model"
	"github.com/iliyamo/elternsprechtag/internal/repository"
)

// EnsureAdmin creates the admin account username unless an account of that
// name exists already. An existing account is left untouched, including its
// password.
func EnsureAdmin(ctx context.Context, users *repository.UserRepo, username, password string, cost int, logger *zap.Logger) error {
	if username == "" {
		return nil
	}
	_, err := users.GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	id, err := users.Create(ctx, nil, username, password, model.RoleAdmin, nil, cost)
	if errors.Is(err, repository.ErrUsernameExists) {
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("admin account created", zap.Int64("user_id", id), zap.String("username", username))
	return nil
}
