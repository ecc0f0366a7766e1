package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"VerseClash/db"
	"VerseClash/model"

	"github.com/go-redis/redis/v8"
)

const (
	battleCacheTTL = 10 * time.Minute
	mixLockTTL     = 5 * time.Minute
)

// GetBattleKey generates the Redis key for a cached battle record.
func GetBattleKey(battleID string) string {
	return fmt.Sprintf("battle:%s", battleID)
}

// GetMixLockKey generates the Redis key for a battle's mix lock.
func GetMixLockKey(battleID string) string {
	return fmt.Sprintf("battle:%s:mixlock", battleID)
}

// cachedBattle is the cache wire form. The API model hides VocalsRef
// from JSON responses; the cache must carry it anyway, or a warm cache
// would hand the mix pipeline a record with no vocals to mix.
type cachedBattle struct {
	model.Battle
	VocalsRef string `json:"vocalsRef"`
}

func marshalBattle(battle *model.Battle) ([]byte, error) {
	return json.Marshal(cachedBattle{Battle: *battle, VocalsRef: battle.VocalsRef})
}

func unmarshalBattle(data []byte) (*model.Battle, error) {
	var wrapped cachedBattle
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	wrapped.Battle.VocalsRef = wrapped.VocalsRef
	return &wrapped.Battle, nil
}

// CacheBattle stores a battle record in Redis with a short TTL.
func CacheBattle(ctx context.Context, battle *model.Battle) error {
	if db.RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	data, err := marshalBattle(battle)
	if err != nil {
		return fmt.Errorf("failed to marshal battle: %w", err)
	}

	if err := db.RedisClient.Set(ctx, GetBattleKey(battle.ID), data, battleCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache battle %s: %w", battle.ID, err)
	}
	return nil
}

// GetCachedBattle returns the cached battle record, or nil on a miss.
func GetCachedBattle(ctx context.Context, battleID string) (*model.Battle, error) {
	if db.RedisClient == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	data, err := db.RedisClient.Get(ctx, GetBattleKey(battleID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached battle %s: %w", battleID, err)
	}

	battle, err := unmarshalBattle(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached battle %s: %w", battleID, err)
	}
	return battle, nil
}

// InvalidateBattle drops the cached record, e.g. after the mix URL lands.
func InvalidateBattle(ctx context.Context, battleID string) error {
	if db.RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	return db.RedisClient.Del(ctx, GetBattleKey(battleID)).Err()
}

// AcquireMixLock takes the per-battle advisory lock that keeps two
// concurrent mix requests for the same battle from racing. Returns
// false when another mix for this battle is already in flight.
// The lock expires on its own, so a crashed worker cannot wedge a battle.
func AcquireMixLock(ctx context.Context, battleID string) (bool, error) {
	if db.RedisClient == nil {
		return false, fmt.Errorf("Redis client not initialized")
	}

	ok, err := db.RedisClient.SetNX(ctx, GetMixLockKey(battleID), time.Now().Unix(), mixLockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire mix lock for battle %s: %w", battleID, err)
	}
	return ok, nil
}

// ReleaseMixLock releases the per-battle mix lock.
func ReleaseMixLock(ctx context.Context, battleID string) error {
	if db.RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	return db.RedisClient.Del(ctx, GetMixLockKey(battleID)).Err()
}
