package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"picker-backend/internal/common/errors"
	"picker-backend/internal/common/logger"
	"picker-backend/internal/features/user/models"
	"picker-backend/internal/features/user/repository"
	"picker-backend/internal/utils/random"
)

type userService struct {
	repo repository.UserRepository

	// mu serialises read-modify-write cycles; a User is not safe for
	// concurrent mutation and the repository has no compare-and-set.
	mu sync.Mutex
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{
		repo: repo,
	}
}

func (s *userService) Register(ctx context.Context, name string) (*models.User, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	user := models.NewUser(name)
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Info().Str("name", name).Msg("User registered")
	return user, nil
}

// validateName trims name and rejects names that cannot be used as a
// path segment or a storage key suffix.
func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.NewValidationError(models.KeyName, "must not be empty")
	}
	if strings.ContainsAny(name, "/:") {
		return "", errors.NewValidationError(models.KeyName, "must not contain '/' or ':'")
	}
	return name, nil
}

func (s *userService) Get(ctx context.Context, name string) (*models.User, error) {
	return s.repo.Get(ctx, name)
}

func (s *userService) List(ctx context.Context) ([]*models.User, error) {
	return s.repo.List(ctx)
}

func (s *userService) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(ctx, name); err != nil {
		return err
	}
	logger.Info().Str("name", name).Msg("User deleted")
	return nil
}

func (s *userService) RecordPick(ctx context.Context, name string) (*models.User, error) {
	return s.update(ctx, name, (*models.User).IncrementTimesPicked)
}

func (s *userService) RecordVictory(ctx context.Context, name string) (*models.User, error) {
	user, err := s.update(ctx, name, (*models.User).IncrementVictories)
	if err != nil {
		return nil, err
	}
	logger.Info().Object("user", user).Msg("Victory recorded")
	return user, nil
}

func (s *userService) update(ctx context.Context, name string, mutate func(*models.User)) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.repo.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	mutate(user)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Pick selects a random user among those picked the fewest times this
// session and records the pick.
func (s *userService) Pick(ctx context.Context) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	candidates := leastPicked(users)
	if len(candidates) == 0 {
		return nil, errors.NewNoCandidatesError()
	}

	user, err := random.Choose(candidates)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to choose user")
	}

	user.IncrementTimesPicked()
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	logger.Info().
		Object("user", user).
		Int("candidates", len(candidates)).
		Msg("User picked")
	return user, nil
}

func leastPicked(users []*models.User) []*models.User {
	var out []*models.User
	for _, u := range users {
		switch {
		case len(out) == 0 || u.PickedThisInstance < out[0].PickedThisInstance:
			out = []*models.User{u}
		case u.PickedThisInstance == out[0].PickedThisInstance:
			out = append(out, u)
		}
	}
	return out
}

// StartSession zeroes every user's session pick counter.
func (s *userService) StartSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	fresh := make([]*models.User, len(users))
	for i, u := range users {
		fresh[i] = u.NewSession()
	}
	if err := s.repo.SaveAll(ctx, fresh); err != nil {
		return err
	}

	logger.Info().Int("users", len(fresh)).Msg("Session started")
	return nil
}

// Leaderboard orders users by victories, then fewer picks, then name.
func (s *userService) Leaderboard(ctx context.Context) ([]*models.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(users, func(i, j int) bool {
		a, b := users[i], users[j]
		if a.TotalVictories != b.TotalVictories {
			return a.TotalVictories > b.TotalVictories
		}
		if a.TimesPicked != b.TimesPicked {
			return a.TimesPicked < b.TimesPicked
		}
		return a.Name < b.Name
	})
	return users, nil
}

// Import decodes and checks every record before writing any, so a bad
// record leaves storage untouched. Names follow the Register rules and must
// be unique within the snapshot. Existing users with the same name are
// overwritten.
func (s *userService) Import(ctx context.Context, snapshot *models.Snapshot) (int, error) {
	users, err := snapshot.Decode()
	if err != nil {
		return 0, err
	}

	seen := make(map[string]struct{}, len(users))
	for i, u := range users {
		name, err := validateName(u.Name)
		if err != nil {
			return 0, fmt.Errorf("user %d: %w", i, err)
		}
		if _, dup := seen[name]; dup {
			return 0, fmt.Errorf("user %d: %w", i,
				errors.NewValidationError(models.KeyName, fmt.Sprintf("duplicate name %q", name)))
		}
		seen[name] = struct{}{}

		if name != u.Name {
			users[i] = models.NewUser(name,
				models.WithTimesPicked(u.TimesPicked),
				models.WithPickedThisInstance(u.PickedThisInstance),
				models.WithTotalVictories(u.TotalVictories),
			)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.SaveAll(ctx, users); err != nil {
		return 0, err
	}

	logger.Info().Int("version", snapshot.Version).Int("users", len(users)).Msg("Snapshot imported")
	return len(users), nil
}

func (s *userService) Export(ctx context.Context) (*models.Snapshot, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return models.NewSnapshot(users), nil
}
