package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	throttleKeyPrefix = "login:throttle:"
	throttleLimit     = 10
	throttleWindow    = 5 * time.Minute
)

// LoginThrottle bounds login attempts per username+address pair using
// Redis INCR/EXPIRE. A nil throttle (Redis not configured) allows
// everything.
type LoginThrottle struct {
	client *redis.Client
}

func NewLoginThrottle(client *redis.Client) *LoginThrottle {
	if client == nil {
		return nil
	}
	return &LoginThrottle{client: client}
}

// Allow records an attempt and reports whether it is within the window
// budget. Redis failures fail open: login availability wins over
// throttling precision.
func (t *LoginThrottle) Allow(ctx context.Context, username, remoteAddr string) (bool, error) {
	if t == nil || t.client == nil {
		return true, nil
	}

	key := fmt.Sprintf("%s%s:%s", throttleKeyPrefix, username, remoteAddr)
	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return true, fmt.Errorf("throttle incr: %w", err)
	}
	if count == 1 {
		if err := t.client.Expire(ctx, key, throttleWindow).Err(); err != nil {
			return true, fmt.Errorf("throttle expire: %w", err)
		}
	}
	return count <= throttleLimit, nil
}
