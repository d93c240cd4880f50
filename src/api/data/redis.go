package data

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	statePrefix  = "oauthstate:"
	streamEvents = "vouchboard.events"
)

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

// SetOAuthState stores a login state nonce for the callback round-trip.
func SetOAuthState(ctx context.Context, rdb *redis.Client, state string) error {
	return rdb.Set(ctx, statePrefix+state, "1", 5*time.Minute).Err()
}

// TakeOAuthState consumes a state nonce; it is valid exactly once.
func TakeOAuthState(ctx context.Context, rdb *redis.Client, state string) bool {
	res, err := rdb.GetDel(ctx, statePrefix+state).Result()
	return err == nil && res != ""
}

// PublishVouchEvent appends a vouch mutation to the event stream consumed by
// the sibling Discord bot.
func PublishVouchEvent(ctx context.Context, rdb *redis.Client, payload map[string]interface{}) error {
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamEvents,
		Values: payload,
	}).Result()
	return err
}
