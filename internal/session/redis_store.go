package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"prompt-studio/internal/viewmodel"
	"prompt-studio/shared/models"
)

var _ Store = (*RedisStore)(nil)

const (
	redisKeyPrefix  = "prompt_studio:session:"
	lockSuffix      = ":lock"
	lockTTL         = 30 * time.Second
	lockRetryDelay  = 25 * time.Millisecond
	defaultLockWait = 30 * time.Second
)

// releaseScript удаляет блокировку, только если она принадлежит вызывающему.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ErrLockTimeout - не удалось получить блокировку сессии за отведенное время.
var ErrLockTimeout = errors.New("timed out waiting for session lock")

// RedisStore хранит сессии в Redis. Операции одной сессии сериализуются
// блокировкой SET NX с истечением, поэтому UpdateFunc выполняется ровно один раз.
type RedisStore struct {
	client   *redis.Client
	ttl      time.Duration
	lockWait time.Duration
	logger   *zap.Logger
}

func NewRedisStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{
		client:   client,
		ttl:      ttl,
		lockWait: defaultLockWait,
		logger:   logger.Named("RedisSessionStore"),
	}
}

func sessionKey(id string) string {
	return redisKeyPrefix + id
}

func (s *RedisStore) Load(ctx context.Context, id string) (*viewmodel.Workspace, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrSessionNotFound
		}
		s.logger.Error("Failed to load session", zap.String("session_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to load session from redis: %w", err)
	}
	return decode(data)
}

func (s *RedisStore) Update(ctx context.Context, id string, fn UpdateFunc) error {
	log := s.logger.With(zap.String("session_id", id))
	key := sessionKey(id)
	lockKey := key + lockSuffix

	token, err := s.acquire(ctx, lockKey)
	if err != nil {
		log.Warn("Failed to acquire session lock", zap.Error(err))
		return err
	}
	defer func() {
		// Освобождаем блокировку даже при отмененном контексте запроса.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, s.client, []string{lockKey}, token).Err(); err != nil {
			log.Warn("Failed to release session lock", zap.Error(err))
		}
	}()

	ws := &viewmodel.Workspace{}
	data, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		decoded, decErr := decode(data)
		if decErr != nil {
			log.Warn("Dropping corrupted session state", zap.Error(decErr))
		} else {
			ws = decoded
		}
	case errors.Is(err, redis.Nil):
	default:
		return fmt.Errorf("failed to load session from redis: %w", err)
	}

	fnErr := fn(ws)

	encoded, err := encode(ws)
	if err != nil {
		return err
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.client.Set(saveCtx, key, encoded, s.ttl).Err(); err != nil {
		log.Error("Failed to save session", zap.Error(err))
		return fmt.Errorf("failed to save session to redis: %w", err)
	}
	return fnErr
}

func (s *RedisStore) acquire(ctx context.Context, lockKey string) (string, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(s.lockWait)
	for {
		ok, err := s.client.SetNX(ctx, lockKey, token, lockTTL).Result()
		if err != nil {
			return "", fmt.Errorf("failed to acquire session lock: %w", err)
		}
		if ok {
			return token, nil
		}
		if time.Now().After(deadline) {
			return "", ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	return nil
}
