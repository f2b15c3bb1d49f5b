package rpc

import (
	"context"
	"errors"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"sync/atomic"
	"time"

	"github.com/Muelsyse030/XLetsChat/internal/pool"
)

const (
	dialTimeout    = 2 * time.Second
	acquireTimeout = 2 * time.Second
	// defaultCallTimeout 为未携带截止时间的调用兜底，推送等关键路径自带 2s deadline。
	defaultCallTimeout = 5 * time.Second
)

// Conn 包装一条 jsonrpc 客户端连接并记录其健康状态。
// net/rpc 不暴露连接状态，出现传输错误或被放弃的在途调用后标记为 broken，
// 归还时由池销毁。
type Conn struct {
	client *rpc.Client
	broken atomic.Bool
}

func dial(addr string) (*Conn, error) {
	raw, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, err
	}
	return &Conn{client: rpc.NewClientWithCodec(jsonrpc.NewClientCodec(raw))}, nil
}

func (c *Conn) healthy() bool { return !c.broken.Load() }

func (c *Conn) close() { _ = c.client.Close() }

// call 发起一次调用并尊重 ctx 的截止时间。
// 超时放弃的连接不能再复用（响应可能晚到错位），标记 broken。
func (c *Conn) call(ctx context.Context, method string, args, reply interface{}) error {
	done := c.client.Go(method, args, reply, make(chan *rpc.Call, 1)).Done
	select {
	case <-ctx.Done():
		c.broken.Store(true)
		return ctx.Err()
	case call := <-done:
		if call.Error != nil && (errors.Is(call.Error, rpc.ErrShutdown) || isNetError(call.Error)) {
			c.broken.Store(true)
		}
		return call.Error
	}
}

func isNetError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

// ClientPool 是到单个对端地址的有界 RPC 客户端池，
// 通用连接池的第二处实例化（第一处是 Redis 连接）。
type ClientPool struct {
	addr string
	pool *pool.Pool[*Conn]
}

func NewClientPool(addr string, minSize, maxSize int) *ClientPool {
	return &ClientPool{
		addr: addr,
		pool: pool.New(pool.Options[*Conn]{
			Name:    "rpc:" + addr,
			MinSize: minSize,
			MaxSize: maxSize,
			Factory: func() (*Conn, error) { return dial(addr) },
			Health:  func(c *Conn) bool { return c.healthy() },
			Close:   func(c *Conn) { c.close() },
		}),
	}
}

// Call 借出一条连接完成一次调用。池耗尽超时会以 pool.ErrAcquireTimeout 上浮，
// 调用方可按可重试失败处理。
func (p *ClientPool) Call(ctx context.Context, method string, args, reply interface{}) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultCallTimeout)
		defer cancel()
	}
	conn, release, err := p.pool.Acquire(acquireTimeout)
	if err != nil {
		return err
	}
	defer release()
	return conn.call(ctx, method, args, reply)
}

// Close 关闭池与所有空闲连接。
func (p *ClientPool) Close() { p.pool.Close() }
