package config

import (
	"Nhauzo/services/redis"

	log "github.com/sirupsen/logrus"
)

// Connect_redis connects to the Redis room store
func Connect_redis(cfg Config) (*redis.RedisClient, error) {
	log.WithField("url", cfg.RedisURL).Debug("Connecting to Redis")
	redisClient, err := redis.InitRedis(cfg.RedisURL, 0)
	if err != nil {
		log.Errorf("Error connecting to Redis: %v", err)
		return nil, err
	}
	log.Info("Redis connection established")
	return redisClient, nil
}
