package memory

import (
	"context"
	"sort"
	"sync"

	apperrors "picker-backend/internal/common/errors"
	"picker-backend/internal/features/user/models"
	"picker-backend/internal/features/user/repository"
)

type userRepository struct {
	mu      sync.RWMutex
	records map[string]models.Record
}

// NewUserRepository returns a process-local store. Records are kept in mapping
// form so the same decode path as the Redis store is exercised.
func NewUserRepository() repository.UserRepository {
	return &userRepository{records: make(map[string]models.Record)}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[user.Name]; ok {
		return apperrors.NewConflictError("user", "name already registered").WithDetail("name", user.Name)
	}
	r.records[user.Name] = user.ToMap()
	return nil
}

func (r *userRepository) Get(ctx context.Context, name string) (*models.User, error) {
	r.mu.RLock()
	rec, ok := r.records[name]
	r.mu.RUnlock()

	if !ok {
		return nil, apperrors.NewUserNotFoundError(name)
	}
	return models.FromMap(rec)
}

func (r *userRepository) Save(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[user.Name] = user.ToMap()
	return nil
}

func (r *userRepository) SaveAll(ctx context.Context, users []*models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range users {
		r.records[u.Name] = u.ToMap()
	}
	return nil
}

func (r *userRepository) List(ctx context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*models.User, 0, len(r.records))
	for _, rec := range r.records {
		u, err := models.FromMap(rec)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (r *userRepository) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[name]; !ok {
		return apperrors.NewUserNotFoundError(name)
	}
	delete(r.records, name)
	return nil
}
