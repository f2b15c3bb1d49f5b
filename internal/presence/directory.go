package presence

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Muelsyse030/XLetsChat/internal/pool"
)

// 在线状态目录：uid → 当前持有该用户连接的网关控制面地址。
// 登录时写入（后登录覆盖先登录），发消息时查询。下线不做清理：
// 残留条目会把推送路由到旧网关，由对端的"本地未找到"吸收，消息走同步兜底。

// 目录键统一加前缀，与同一 Redis 实例里的其他键空间隔开。
const keyPrefix = "PRESENCE:"

const acquireTimeout = 2 * time.Second

// ErrNotFound 表示目录中没有该用户的条目（离线场景，不是故障）。
var ErrNotFound = errors.New("presence: not found")

// Conn 抽象目录操作用到的 Redis 连接能力，*redis.Conn 天然满足；
// 测试用 redis.NewStatusResult 等构造假返回值即可替换。
type Conn interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// NewConnPool 用专属连接（client.Conn()）实例化通用连接池。
func NewConnPool(client *redis.Client, minSize, maxSize int) *pool.Pool[Conn] {
	return pool.New(pool.Options[Conn]{
		Name:    "redis",
		MinSize: minSize,
		MaxSize: maxSize,
		Factory: func() (Conn, error) { return client.Conn(), nil },
		Health: func(c Conn) bool {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return c.Ping(ctx).Err() == nil
		},
		Close: func(c Conn) { _ = c.Close() },
	})
}

// Directory 是基于池化 Redis 连接的在线状态目录。
type Directory struct {
	pool *pool.Pool[Conn]
}

func NewDirectory(p *pool.Pool[Conn]) *Directory {
	return &Directory{pool: p}
}

// SetPresence 记录 uid 当前所在网关，后写覆盖。
func (d *Directory) SetPresence(ctx context.Context, uid int64, gatewayAddr string) error {
	c, release, err := d.pool.Acquire(acquireTimeout)
	if err != nil {
		return err
	}
	defer release()
	return c.Set(ctx, key(uid), gatewayAddr, 0).Err()
}

// GetPresence 查询 uid 所在网关，未命中返回 ErrNotFound。
func (d *Directory) GetPresence(ctx context.Context, uid int64) (string, error) {
	c, release, err := d.pool.Acquire(acquireTimeout)
	if err != nil {
		return "", err
	}
	defer release()
	val, err := c.Get(ctx, key(uid)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// ClearPresence 删除 uid 的目录条目。
func (d *Directory) ClearPresence(ctx context.Context, uid int64) error {
	c, release, err := d.pool.Acquire(acquireTimeout)
	if err != nil {
		return err
	}
	defer release()
	return c.Del(ctx, key(uid)).Err()
}

func key(uid int64) string {
	return keyPrefix + strconv.FormatInt(uid, 10)
}
