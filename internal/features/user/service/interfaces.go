package service

import (
	"context"

	"picker-backend/internal/features/user/models"
)

type UserService interface {
	Register(ctx context.Context, name string) (*models.User, error)
	Get(ctx context.Context, name string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Delete(ctx context.Context, name string) error

	RecordPick(ctx context.Context, name string) (*models.User, error)
	RecordVictory(ctx context.Context, name string) (*models.User, error)
	Pick(ctx context.Context) (*models.User, error)
	StartSession(ctx context.Context) error
	Leaderboard(ctx context.Context) ([]*models.User, error)

	Import(ctx context.Context, snapshot *models.Snapshot) (int, error)
	Export(ctx context.Context) (*models.Snapshot, error)
}
