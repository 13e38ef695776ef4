package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func rateLimitKey(subject, action string) string {
	return fmt.Sprintf("rate_limit:user:%s:%s", subject, action)
}

// CheckAndSetRateLimit reports whether the action is allowed and, if so,
// locks it for the given window. A nil client always allows.
func CheckAndSetRateLimit(ctx context.Context, rdb *redis.Client, subject, action string, limit time.Duration) (bool, error) {
	if rdb == nil || limit <= 0 {
		return true, nil
	}

	wasSet, err := rdb.SetNX(ctx, rateLimitKey(subject, action), "locked", limit).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	return wasSet, nil
}

func GetRateLimitTTL(ctx context.Context, rdb *redis.Client, subject, action string) (time.Duration, error) {
	if rdb == nil {
		return 0, nil
	}
	return rdb.TTL(ctx, rateLimitKey(subject, action)).Result()
}
