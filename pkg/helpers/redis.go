package helpers

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoSession is returned when a user has no live session in Redis.
var ErrNoSession = errors.New("session not found")

// NewRedisClient initializes a redis client
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// SessionKey is the Redis hash holding a user's login session.
func SessionKey(userID string) string {
	return "user:session:" + userID
}

// Session mirrors the fields kept in the session hash.
type Session struct {
	UserID string
	SID    string
	Role   string
	Name   string
	Email  string
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// SaveSession replaces the user's session hash and sets its TTL.
func SaveSession(ctx context.Context, rdb *redis.Client, s Session, ttl time.Duration) error {
	key := SessionKey(s.UserID)
	pipe := rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]any{
		"user_id":    s.UserID,
		"sid":        s.SID,
		"role":       s.Role,
		"name":       s.Name,
		"email":      s.Email,
		"created_at": nowRFC3339(),
	})
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func LoadSession(ctx context.Context, rdb *redis.Client, userID string) (Session, error) {
	data, err := rdb.HGetAll(ctx, SessionKey(userID)).Result()
	if err != nil {
		return Session{}, err
	}
	if len(data) == 0 {
		return Session{}, ErrNoSession
	}
	return Session{
		UserID: data["user_id"],
		SID:    data["sid"],
		Role:   data["role"],
		Name:   data["name"],
		Email:  data["email"],
	}, nil
}

// TouchSession updates selected fields and keeps the remaining TTL.
func TouchSession(ctx context.Context, rdb *redis.Client, userID string, fields map[string]any) error {
	key := SessionKey(userID)
	ttl, err := rdb.TTL(ctx, key).Result()
	if err != nil {
		return err
	}
	fields["updated_at"] = nowRFC3339()
	pipe := rdb.Pipeline()
	pipe.HSet(ctx, key, fields)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func DeleteSession(ctx context.Context, rdb *redis.Client, userID string) error {
	return rdb.Del(ctx, SessionKey(userID)).Err()
}
