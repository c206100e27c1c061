package service

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picker-backend/internal/common/errors"
	"picker-backend/internal/features/user/models"
	"picker-backend/internal/features/user/repository"
	"picker-backend/internal/features/user/repository/memory"
)

func newService(t *testing.T, users ...*models.User) (UserService, repository.UserRepository) {
	t.Helper()
	repo := memory.NewUserRepository()
	require.NoError(t, repo.SaveAll(context.Background(), users))
	return NewUserService(repo), repo
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	u, err := svc.Register(ctx, "  Alice ")
	require.NoError(t, err)
	assert.Equal(t, &models.User{Name: "Alice"}, u)

	_, err = svc.Register(ctx, "Alice")
	assert.True(t, errors.HasCode(err, errors.ErrCodeConflict))

	for _, bad := range []string{"", "   ", "a/b", "a:b"} {
		_, err = svc.Register(ctx, bad)
		assert.True(t, errors.HasCode(err, errors.ErrCodeValidation), bad)
	}
}

func TestRecordPickAndVictory(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t, models.NewUser("Alice"))

	_, err := svc.RecordPick(ctx, "Alice")
	require.NoError(t, err)
	u, err := svc.RecordPick(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, 2, u.TimesPicked)
	assert.Equal(t, 2, u.PickedThisInstance)

	u, err = svc.RecordVictory(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, 1, u.TotalVictories)

	stored, err := repo.Get(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice (Picked 2 times, Victories: 1)", stored.String())

	_, err = svc.RecordPick(ctx, "Nobody")
	assert.True(t, errors.HasCode(err, errors.ErrCodeUserNotFound))
	_, err = svc.RecordVictory(ctx, "Nobody")
	assert.True(t, errors.HasCode(err, errors.ErrCodeUserNotFound))
}

func TestPick_PrefersLeastPickedThisSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t,
		models.NewUser("Alice", models.WithTimesPicked(10), models.WithPickedThisInstance(2)),
		models.NewUser("Bob", models.WithTimesPicked(1), models.WithPickedThisInstance(1)),
		models.NewUser("Carol", models.WithTimesPicked(4), models.WithPickedThisInstance(1)),
	)

	first, err := svc.Pick(ctx)
	require.NoError(t, err)
	assert.Contains(t, []string{"Bob", "Carol"}, first.Name)
	assert.Equal(t, 2, first.PickedThisInstance)

	second, err := svc.Pick(ctx)
	require.NoError(t, err)
	assert.Contains(t, []string{"Bob", "Carol"}, second.Name)
	assert.NotEqual(t, first.Name, second.Name)

	// everyone now at 2 picks this session
	users, err := svc.List(ctx)
	require.NoError(t, err)
	for _, u := range users {
		assert.Equal(t, 2, u.PickedThisInstance, u.Name)
	}
}

func TestPick_EmptyRoster(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Pick(context.Background())
	assert.True(t, errors.HasCode(err, errors.ErrCodeNoCandidates))
}

func TestStartSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t,
		models.NewUser("Alice", models.WithTimesPicked(3), models.WithPickedThisInstance(3), models.WithTotalVictories(1)),
		models.NewUser("Bob", models.WithTimesPicked(1), models.WithPickedThisInstance(1)),
	)

	require.NoError(t, svc.StartSession(ctx))

	users, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []*models.User{
		{Name: "Alice", TimesPicked: 3, TotalVictories: 1},
		{Name: "Bob", TimesPicked: 1},
	}, users)
}

func TestLeaderboard(t *testing.T) {
	svc, _ := newService(t,
		models.NewUser("Alice", models.WithTimesPicked(5), models.WithTotalVictories(2)),
		models.NewUser("Bob", models.WithTimesPicked(3), models.WithTotalVictories(2)),
		models.NewUser("Carol", models.WithTimesPicked(1), models.WithTotalVictories(4)),
		models.NewUser("Dan"),
		models.NewUser("Abe"),
	)

	board, err := svc.Leaderboard(context.Background())
	require.NoError(t, err)

	var names []string
	for _, u := range board {
		names = append(names, u.Name)
	}
	assert.Equal(t, []string{"Carol", "Bob", "Alice", "Abe", "Dan"}, names)
}

func TestImportExport(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, models.NewUser("Existing", models.WithTimesPicked(9)))

	snap, err := models.DecodeSnapshot([]byte(`[{"name":"Old","times_picked":4},{"name":"Existing","times_picked":1}]`))
	require.NoError(t, err)

	n, err := svc.Import(ctx, snap)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	out, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SnapshotVersion, out.Version)
	assert.Equal(t, []models.Record{
		{"name": "Existing", "times_picked": 1, "picked_this_instance": 0, "total_victories": 0},
		{"name": "Old", "times_picked": 4, "picked_this_instance": 0, "total_victories": 0},
	}, out.Users)
}

func TestImport_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	snap := &models.Snapshot{Version: models.SnapshotVersion, Users: []models.Record{
		{"name": "Good", "times_picked": 1},
		{"name": "Bad"},
	}}

	_, err := svc.Import(ctx, snap)
	assert.True(t, stderrors.Is(err, models.ErrMissingField))

	users, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestImport_AppliesNameRules(t *testing.T) {
	tests := []struct {
		name    string
		records []models.Record
	}{
		{"empty name", []models.Record{{"name": "", "times_picked": 1}}},
		{"blank name", []models.Record{{"name": "   ", "times_picked": 1}}},
		{"slash", []models.Record{{"name": "a/b", "times_picked": 1}}},
		{"colon", []models.Record{{"name": "a:b", "times_picked": 1}}},
		{"duplicate", []models.Record{
			{"name": "Dup", "times_picked": 1},
			{"name": "Dup", "times_picked": 5},
		}},
		{"duplicate after trim", []models.Record{
			{"name": "Dup", "times_picked": 1},
			{"name": " Dup ", "times_picked": 5},
		}},
		{"bad record after good ones", []models.Record{
			{"name": "Good", "times_picked": 1},
			{"name": "a/b", "times_picked": 1},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, _ := newService(t)

			n, err := svc.Import(ctx, &models.Snapshot{Version: models.SnapshotVersion, Users: tt.records})
			assert.Zero(t, n)
			assert.True(t, errors.HasCode(err, errors.ErrCodeValidation), err)

			users, err := svc.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, users)
		})
	}
}

func TestImport_TrimsNames(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	n, err := svc.Import(ctx, &models.Snapshot{Version: models.SnapshotVersion, Users: []models.Record{
		{"name": " Alice ", "times_picked": 3, "total_victories": 1},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	u, err := svc.Get(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, &models.User{Name: "Alice", TimesPicked: 3, TotalVictories: 1}, u)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, models.NewUser("Alice"))

	require.NoError(t, svc.Delete(ctx, "Alice"))
	_, err := svc.Get(ctx, "Alice")
	assert.True(t, errors.HasCode(err, errors.ErrCodeUserNotFound))
}

func TestRecordPick_Concurrent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, models.NewUser("Alice"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.RecordPick(ctx, "Alice")
		}()
	}
	wg.Wait()

	u, err := svc.Get(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, 50, u.TimesPicked)
	assert.Equal(t, 50, u.PickedThisInstance)
}

// failingRepo returns err from every call.
type failingRepo struct{ err error }

func (f failingRepo) Create(context.Context, *models.User) error { return f.err }
func (f failingRepo) Get(context.Context, string) (*models.User, error) {
	return nil, f.err
}
func (f failingRepo) Save(context.Context, *models.User) error { return f.err }
func (f failingRepo) SaveAll(context.Context, []*models.User) error { return f.err }
func (f failingRepo) List(context.Context) ([]*models.User, error) { return nil, f.err }
func (f failingRepo) Delete(context.Context, string) error { return f.err }

func TestStorageErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	storeErr := errors.NewCacheError("hgetall", stderrors.New("connection refused"))
	svc := NewUserService(failingRepo{err: storeErr})

	_, err := svc.Pick(ctx)
	assert.Same(t, storeErr, err)
	assert.Same(t, storeErr, svc.StartSession(ctx))
	_, err = svc.Leaderboard(ctx)
	assert.Same(t, storeErr, err)
	_, err = svc.Export(ctx)
	assert.Same(t, storeErr, err)
	_, err = svc.Register(ctx, "Alice")
	assert.Same(t, storeErr, err)
}
