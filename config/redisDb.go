package config

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/bsm/redislock"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

var (
	rdb    *redis.Client
	locker *redislock.Client
)

var ctx = context.Background()

func GetRedisDB() *redis.Client {
	return rdb
}

func GetRedisLock() *redislock.Client {
	return locker
}

func init() {
	// Load env from .env
	godotenv.Load()
	// IMPORTANT (Cloud Run):
	// Do NOT block startup in init() waiting for Redis.
	// Cloud Run requires the container to start listening on $PORT quickly.
}

// ConnectRedisWithRetry connects and sets the global Redis client + lock client.
// Call this from main() AFTER the HTTP server is listening.
func ConnectRedisWithRetry() {
	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
		log.Printf("REDIS_ADDRESS not set; defaulting to %s", redisAddr)
	}

	var attempt int
	for {
		attempt++
		rdb = redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: "",
			DB:       0, // use default DB
			PoolSize: 50,
		})
		if err := rdb.Ping(ctx).Err(); err == nil {
			locker = redislock.New(rdb)
			log.Printf("connected to redis (attempt=%d addr=%s)", attempt, redisAddr)
			return
		} else {
			sleep := time.Second * time.Duration(1<<min(attempt, 5))
			if sleep > 30*time.Second {
				sleep = 30 * time.Second
			}
			log.Printf("failed to connect redis (attempt=%d addr=%s): %v; retrying in %s", attempt, redisAddr, err, sleep)
			time.Sleep(sleep)
		}
	}
}
