package presence

import (
	"context"
	"fmt"
	"time"

	"lawchat/backend/models"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "presence:"

// DefaultTTL 是計數 key 的存活時間，必須大於連線 ping 的週期。
// 程序異常結束時沒有 Offline，殘留的計數最多維持這麼久。
const DefaultTTL = 3 * time.Minute

// incrScript 遞增計數並重設存活時間
var incrScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
redis.call("PEXPIRE", KEYS[1], ARGV[1])
return n
`)

// decrScript 遞減計數，歸零時刪除 key，避免留下負數或殘留的 0
var decrScript = redis.NewScript(`
local n = redis.call("DECR", KEYS[1])
if n <= 0 then
  redis.call("DEL", KEYS[1])
  return 0
end
return n
`)

// refreshScript 延長存活時間；key 已過期但連線仍在時補回 1
var refreshScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  redis.call("SET", KEYS[1], 1)
end
redis.call("PEXPIRE", KEYS[1], ARGV[1])
return 1
`)

// RedisTracker 把連線計數存在 Redis，多個程序共用同一份上線狀態
type RedisTracker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTracker 從 redis:// URL 建立 RedisTracker 並確認連線。ttl <= 0 時使用 DefaultTTL。
func NewRedisTracker(ctx context.Context, url string, ttl time.Duration) (*RedisTracker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping redis: %w", models.ErrTransient, err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisTracker{client: client, ttl: ttl}, nil
}

func key(ref models.ParticipantRef) string {
	return keyPrefix + ref.Key()
}

func (t *RedisTracker) Online(ctx context.Context, ref models.ParticipantRef) error {
	return t.run(ctx, incrScript, ref, t.ttl.Milliseconds())
}

func (t *RedisTracker) Offline(ctx context.Context, ref models.ParticipantRef) error {
	return t.run(ctx, decrScript, ref)
}

// Refresh 由仍然活著的連線定期呼叫，讓計數不會過期
func (t *RedisTracker) Refresh(ctx context.Context, ref models.ParticipantRef) error {
	return t.run(ctx, refreshScript, ref, t.ttl.Milliseconds())
}

func (t *RedisTracker) run(ctx context.Context, script *redis.Script, ref models.ParticipantRef, args ...any) error {
	if err := script.Run(ctx, t.client, []string{key(ref)}, args...).Err(); err != nil {
		return fmt.Errorf("%w: %w", models.ErrTransient, err)
	}
	return nil
}

func (t *RedisTracker) OnlineSet(ctx context.Context, refs []models.ParticipantRef) (map[models.ParticipantRef]bool, error) {
	out := make(map[models.ParticipantRef]bool, len(refs))
	if len(refs) == 0 {
		return out, nil
	}
	keys := make([]string, len(refs))
	for i, r := range refs {
		keys[i] = key(r)
	}
	values, err := t.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrTransient, err)
	}
	for i, r := range refs {
		out[r] = values[i] != nil
	}
	return out, nil
}

// Close 關閉 Redis 連線
func (t *RedisTracker) Close() error {
	return t.client.Close()
}
