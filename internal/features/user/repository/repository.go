package repository

import (
	"context"

	"picker-backend/internal/features/user/models"
)

// UserRepository stores users in their mapping representation, keyed by name.
//
// Get and Delete return an error carrying ErrCodeUserNotFound for unknown
// names; Create returns ErrCodeConflict if the name is taken.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Get(ctx context.Context, name string) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
	SaveAll(ctx context.Context, users []*models.User) error
	List(ctx context.Context) ([]*models.User, error)
	Delete(ctx context.Context, name string) error
}
