package config

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/cenkalti/backoff/v4"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var (
	rdb    *redis.Client
	locker *redislock.Client
)

// GetRedisDB returns nil until ConnectRedisWithRetry succeeds.
func GetRedisDB() *redis.Client {
	return rdb
}

func GetRedisLock() *redislock.Client {
	return locker
}

// GetRedisObject decodes the JSON stored at key into dest. It returns false without error when
// redis is not connected or the key is missing.
func GetRedisObject(ctx context.Context, key string, dest interface{}) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	val, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

func SetRedisObject(ctx context.Context, key string, obj interface{}, exp time.Duration) error {
	if rdb == nil {
		return nil
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, data, exp).Err()
}

func RemoveRedisKey(ctx context.Context, keys ...string) error {
	if rdb == nil || len(keys) == 0 {
		return nil
	}
	return rdb.Del(ctx, keys...).Err()
}

func init() {
	godotenv.Load()
}

// RedisOptions reads REDIS_ADDRESS, REDIS_PASSWORD and REDIS_DB. ok is false without an address.
func RedisOptions() (*redis.Options, bool) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDRESS"))
	if addr == "" {
		return nil, false
	}
	return &redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       intFromEnv("REDIS_DB", 0),
		PoolSize: intFromEnv("REDIS_POOL_SIZE", 10),
	}, true
}

// ConnectRedisWithRetry sets the global client and lock client. Redis is optional: without it
// sheet grids are not cached and refreshes are not serialized across instances.
func ConnectRedisWithRetry(ctx context.Context, maxAttempts int) {
	opts, ok := RedisOptions()
	log := GetLogger().WithField("field", "redis")
	if !ok {
		log.Info("REDIS_ADDRESS not set; running without redis")
		return
	}
	log = log.WithField("addr", opts.Addr)

	attempt := 0
	connect := func() error {
		attempt++
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return err
		}
		rdb = client
		locker = redislock.New(rdb)
		return nil
	}
	notify := func(err error, wait time.Duration) {
		log.WithFields(logrus.Fields{"attempt": attempt, "retry_in": wait.String()}).Warn("failed to connect redis: " + err.Error())
	}

	if err := backoff.RetryNotify(connect, connectBackoff(ctx, maxAttempts), notify); err != nil {
		log.WithField("attempts", attempt).Error("giving up on redis: " + err.Error())
		return
	}
	log.WithField("attempt", attempt).Info("connected to redis")
}

func CloseRedis() {
	if rdb != nil {
		_ = rdb.Close()
	}
}
