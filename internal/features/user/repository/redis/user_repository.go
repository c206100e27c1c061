package redis

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	apperrors "picker-backend/internal/common/errors"
	"picker-backend/internal/common/logger"
	"picker-backend/internal/features/user/models"
	"picker-backend/internal/features/user/repository"
)

// Keys:
//
//	<prefix>:user:<name>  hash with the four mapping fields
//	<prefix>:users        set of registered names
type userRepository struct {
	client redis.UniversalClient
	prefix string
}

func NewUserRepository(client redis.UniversalClient, prefix string) repository.UserRepository {
	return &userRepository{
		client: client,
		prefix: prefix,
	}
}

func (r *userRepository) userKey(name string) string {
	return fmt.Sprintf("%s:user:%s", r.prefix, name)
}

func (r *userRepository) namesKey() string {
	return r.prefix + ":users"
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	added, err := r.client.SAdd(ctx, r.namesKey(), user.Name).Result()
	if err != nil {
		return apperrors.NewCacheError("sadd", err)
	}
	if added == 0 {
		return apperrors.NewConflictError("user", "name already registered").WithDetail("name", user.Name)
	}

	if err := r.client.HSet(ctx, r.userKey(user.Name), map[string]interface{}(user.ToMap())).Err(); err != nil {
		// keep the name set consistent with the hashes
		r.client.SRem(ctx, r.namesKey(), user.Name)
		return apperrors.NewCacheError("hset", err)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, name string) (*models.User, error) {
	fields, err := r.client.HGetAll(ctx, r.userKey(name)).Result()
	if err != nil {
		return nil, apperrors.NewCacheError("hgetall", err)
	}
	if len(fields) == 0 {
		return nil, apperrors.NewUserNotFoundError(name)
	}
	return models.FromMap(models.RecordFromStrings(fields))
}

func (r *userRepository) Save(ctx context.Context, user *models.User) error {
	return r.SaveAll(ctx, []*models.User{user})
}

func (r *userRepository) SaveAll(ctx context.Context, users []*models.User) error {
	if len(users) == 0 {
		return nil
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, u := range users {
			pipe.SAdd(ctx, r.namesKey(), u.Name)
			pipe.HSet(ctx, r.userKey(u.Name), map[string]interface{}(u.ToMap()))
		}
		return nil
	})
	if err != nil {
		return apperrors.NewCacheError("save users", err)
	}
	logger.Debug().Str("prefix", r.prefix).Int("users", len(users)).Msg("Users saved")
	return nil
}

func (r *userRepository) List(ctx context.Context) ([]*models.User, error) {
	names, err := r.client.SMembers(ctx, r.namesKey()).Result()
	if err != nil {
		return nil, apperrors.NewCacheError("smembers", err)
	}
	if len(names) == 0 {
		return []*models.User{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(names))
	for i, name := range names {
		cmds[i] = pipe.HGetAll(ctx, r.userKey(name))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, apperrors.NewCacheError("list users", err)
	}

	users := make([]*models.User, 0, len(names))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			// name without a hash: left behind by an interrupted delete
			logger.Debug().Str("name", names[i]).Msg("Skipping user without hash")
			continue
		}
		u, err := models.FromMap(models.RecordFromStrings(fields))
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (r *userRepository) Delete(ctx context.Context, name string) error {
	n, err := r.client.Del(ctx, r.userKey(name)).Result()
	if err != nil {
		return apperrors.NewCacheError("del", err)
	}
	if err := r.client.SRem(ctx, r.namesKey(), name).Err(); err != nil {
		return apperrors.NewCacheError("srem", err)
	}
	if n == 0 {
		return apperrors.NewUserNotFoundError(name)
	}
	return nil
}
