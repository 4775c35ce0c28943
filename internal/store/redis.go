// internal/store/redis.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "loan-journey/internal/common/errors"
	"loan-journey/internal/common/logger"
	"loan-journey/internal/models"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "loan_applications"

// RedisStore appends each application to a list under key and indexes it
// by id in the hash key:byid. Both writes go in one MULTI/EXEC.
type RedisStore struct {
	rdb    redis.Cmdable
	key    string
	logger logger.Logger
	now    func() time.Time
}

func NewRedisStore(rdb redis.Cmdable, key string, log logger.Logger) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{
		rdb:    rdb,
		key:    key,
		logger: log.WithFields(map[string]interface{}{"store": "redis", "key": key}),
		now:    time.Now,
	}
}

func (r *RedisStore) indexKey() string {
	return r.key + ":byid"
}

func (r *RedisStore) Persist(ctx context.Context, rec models.ApplicationRecord, status models.ApplicationStatus,
	sanction *models.SanctionRecord, rejectionReason string) (string, error) {
	app := newStoredApplication(r.now(), rec, status, sanction, rejectionReason)

	doc, err := json.Marshal(app)
	if err != nil {
		return "", fmt.Errorf("%w: marshal application: %v", apperrors.ErrStorePersistFailed, err)
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, r.key, doc)
		pipe.HSet(ctx, r.indexKey(), app.ID, doc)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrStorePersistFailed, err)
	}

	r.logger.Info("application stored", map[string]interface{}{
		"applicationId": app.ID,
		"status":        app.Status,
	})
	return app.ID, nil
}

func (r *RedisStore) ListAll(ctx context.Context) ([]models.StoredApplication, error) {
	docs, err := r.rdb.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreReadFailed, err)
	}

	apps := make([]models.StoredApplication, 0, len(docs))
	for _, doc := range docs {
		var app models.StoredApplication
		if err := json.Unmarshal([]byte(doc), &app); err != nil {
			return nil, fmt.Errorf("%w: decode: %v", apperrors.ErrStoreReadFailed, err)
		}
		apps = append(apps, app)
	}
	return apps, nil
}

func (r *RedisStore) GetByID(ctx context.Context, id string) (*models.StoredApplication, error) {
	doc, err := r.rdb.HGet(ctx, r.indexKey(), id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrApplicationNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreReadFailed, err)
	}

	var app models.StoredApplication
	if err := json.Unmarshal([]byte(doc), &app); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", apperrors.ErrStoreReadFailed, id, err)
	}
	return &app, nil
}
