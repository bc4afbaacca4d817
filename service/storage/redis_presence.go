package storage

import (
	"context"
	"strconv"
	"time"

	errs "HelloChat/tools/errs"

	pkgerr "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

var (
	rdb *redis.Client
	ctx = context.Background()
)

func InitRedis(c Config) error {
	rdb = redis.NewClient(&redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB})
	return rdb.Ping(ctx).Err()
}

// presence key: chat:presence:<user>
// TTL controls the online validity period; the in-memory registry is the
// authority, this mirror only serves out-of-process readers.
func presenceKey(userID int64) string {
	return "chat:presence:" + strconv.FormatInt(userID, 10)
}

// PresenceOnline marks the user online and renews the TTL.
func PresenceOnline(userID int64, ttl time.Duration) error {
	if rdb == nil {
		return errs.New("redis not initialized")
	}
	return rdb.Set(ctx, presenceKey(userID), "1", ttl).Err()
}

// PresenceOffline actively removes the user's presence key.
func PresenceOffline(userID int64) error {
	if rdb == nil {
		return errs.New("redis not initialized")
	}
	return rdb.Del(ctx, presenceKey(userID)).Err()
}

// PresenceLookup checks whether the user is marked online.
func PresenceLookup(userID int64) (bool, error) {
	if rdb == nil {
		return false, errs.New("redis not initialized")
	}
	_, err := rdb.Get(ctx, presenceKey(userID)).Result()
	if pkgerr.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Mirror adapts the package-level presence calls to the chat.Presence
// contract.
type Mirror struct {
	TTL time.Duration
}

func (m Mirror) Online(userID int64) error {
	return PresenceOnline(userID, m.TTL)
}

func (m Mirror) Offline(userID int64) error {
	return PresenceOffline(userID)
}

func (m Mirror) Lookup(userID int64) (bool, error) {
	return PresenceLookup(userID)
}
