package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sbilibin2017/gw-expense-tracker/internal/logger"
	"github.com/sbilibin2017/gw-expense-tracker/internal/models"
)

// UserCacheRepository caches provisioned users in Redis, keyed by external id.
type UserCacheRepository struct {
	client *redis.Client
	exp    time.Duration
}

// NewUserCacheRepository creates a cache whose entries expire after expiration.
func NewUserCacheRepository(client *redis.Client, expiration time.Duration) *UserCacheRepository {
	return &UserCacheRepository{
		client: client,
		exp:    expiration,
	}
}

func userCacheKey(externalID string) string {
	return fmt.Sprintf("user:%s", externalID)
}

// Get returns the cached user, or nil without error on a cache miss.
func (r *UserCacheRepository) Get(ctx context.Context, externalID string) (*models.UserDB, error) {
	key := userCacheKey(externalID)

	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		logger.Log.Debugw("user cache miss", "key", key)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var user models.UserDB
	if err := json.Unmarshal(val, &user); err != nil {
		return nil, fmt.Errorf("decode cached user %s: %w", key, err)
	}

	logger.Log.Debugw("user cache hit", "key", key)
	return &user, nil
}

// Set stores the user with the repository's expiration.
func (r *UserCacheRepository) Set(ctx context.Context, user *models.UserDB) error {
	key := userCacheKey(user.ExternalID)

	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	err = r.client.Set(ctx, key, data, r.exp).Err()
	logger.Log.Debugw("user cache set", "key", key, "ttl", r.exp, "error", err)

	return err
}

// Delete evicts the cached user. Deleting a missing key is not an error.
func (r *UserCacheRepository) Delete(ctx context.Context, externalID string) error {
	key := userCacheKey(externalID)

	err := r.client.Del(ctx, key).Err()
	logger.Log.Debugw("user cache delete", "key", key, "error", err)

	return err
}
