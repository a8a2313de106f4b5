package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Easel/internal/domain"
)

func roomKey(room domain.RoomID) string { return fmt.Sprintf("room:%s:users", room) }
func userKey(user domain.UserID) string { return fmt.Sprintf("user:%s:room", user) }

// joinScript makes the existence check and the membership write one
// atomic unit. A room deleted between the two must fail the join, so
// plain EXISTS-then-MULTI is not enough.
var joinScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("SADD", KEYS[1], ARGV[1])
redis.call("SET", KEYS[2], ARGV[2])
return 1
`)

// leaveScript removes membership, drops the reverse pointer and deletes
// the room key when the member set drains, all in one step. Returns the
// room the user was in, or false.
var leaveScript = redis.NewScript(`
local room = redis.call("GET", KEYS[1])
if not room then
  return false
end
local members = "room:" .. room .. ":users"
redis.call("SREM", members, ARGV[1])
redis.call("DEL", KEYS[1])
if redis.call("SCARD", members) == 0 then
  redis.call("DEL", members)
end
return room
`)

// RedisStore implements Store against a shared Redis so multiple relay
// instances see one consistent directory.
type RedisStore struct {
	rdb     *redis.Client
	timeout time.Duration
}

func NewRedisStore(rdb *redis.Client, timeout time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, timeout: timeout}
}

func (s *RedisStore) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *RedisStore) CreateRoom(ctx context.Context, user domain.UserID) (domain.RoomID, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	room := domain.RoomID(uuid.NewString())
	pipe := s.rdb.TxPipeline()
	pipe.SAdd(ctx, roomKey(room), string(user))
	pipe.Set(ctx, userKey(user), string(room), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Error().Err(err).Str("module", "directory").Str("user", string(user)).Msg("create room")
		return "", fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return room, nil
}

func (s *RedisStore) JoinRoom(ctx context.Context, room domain.RoomID, user domain.UserID) (bool, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	keys := []string{roomKey(room), userKey(user)}
	res, err := joinScript.Run(ctx, s.rdb, keys, string(user), string(room)).Int()
	if err != nil {
		log.Error().Err(err).Str("module", "directory").Str("room", string(room)).Msg("join room")
		return false, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return res == 1, nil
}

func (s *RedisStore) LeaveRoom(ctx context.Context, user domain.UserID) error {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	err := leaveScript.Run(ctx, s.rdb, []string{userKey(user)}, string(user)).Err()
	if err != nil && err != redis.Nil {
		log.Error().Err(err).Str("module", "directory").Str("user", string(user)).Msg("leave room")
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) RoomUsers(ctx context.Context, room domain.RoomID) ([]domain.UserID, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	members, err := s.rdb.SMembers(ctx, roomKey(room)).Result()
	if err != nil {
		log.Error().Err(err).Str("module", "directory").Str("room", string(room)).Msg("room users")
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	out := make([]domain.UserID, 0, len(members))
	for _, m := range members {
		out = append(out, domain.UserID(m))
	}
	return out, nil
}
