package pool

import (
	"errors"
	"log"
	"sync"
	"time"
)

// Pool 是到后端存储的有界连接池，按连接类型参数化，
// Redis 连接与控制面 RPC 客户端各实例化一份，取还逻辑只写一遍。
// 连接在借出期间归调用方独占，归还后回到空闲队列。

var (
	// ErrAcquireTimeout 表示在截止时间前没有等到可用连接，调用方可重试。
	ErrAcquireTimeout = errors.New("pool: acquire timeout")
	// ErrClosed 表示池已关闭。
	ErrClosed = errors.New("pool: closed")
)

// Options 描述池的构造参数。
type Options[C any] struct {
	Name    string // 日志里区分多个池
	MinSize int
	MaxSize int
	// Factory 创建一条新连接。
	Factory func() (C, error)
	// Health 健康检查，借出与归还时各做一次；不健康的连接直接销毁。
	Health func(C) bool
	// Close 销毁一条连接。
	Close func(C)
}

type Pool[C any] struct {
	opts Options[C]

	mu      sync.Mutex
	cond    *sync.Cond
	idle    []C
	created int
	closed  bool
}

// New 构造连接池并预热 MinSize 条连接。
// 预热失败只打日志不致命，池容量随之缩小，后续 Acquire 会按需补建。
func New[C any](opts Options[C]) *Pool[C] {
	if opts.MaxSize <= 0 {
		opts.MaxSize = 1
	}
	if opts.MinSize > opts.MaxSize {
		opts.MinSize = opts.MaxSize
	}
	p := &Pool[C]{opts: opts}
	p.cond = sync.NewCond(&p.mu)

	for i := 0; i < opts.MinSize; i++ {
		c, err := opts.Factory()
		if err != nil {
			log.Printf("连接池 %s 预热失败: %v", opts.Name, err)
			continue
		}
		p.idle = append(p.idle, c)
		p.created++
	}
	return p
}

// Acquire 借出一条连接，返回连接与归还函数。
// 顺序：空闲复用（带健康检查）→ 未达上限则新建 → 等待他人归还，超时返回 ErrAcquireTimeout。
func (p *Pool[C]) Acquire(timeout time.Duration) (C, func(), error) {
	var zero C
	deadline := time.Now().Add(timeout)
	// sync.Cond 不带超时，到点广播一次把等待者唤醒去查截止时间
	timer := time.AfterFunc(timeout, func() {
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	})
	defer timer.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		if p.closed {
			return zero, nil, ErrClosed
		}

		for len(p.idle) > 0 {
			c := p.idle[len(p.idle)-1]
			p.idle = p.idle[:len(p.idle)-1]
			if p.opts.Health != nil && !p.opts.Health(c) {
				p.destroyLocked(c)
				continue
			}
			return c, p.releaseOnce(c), nil
		}

		if p.created < p.opts.MaxSize {
			// 先占坑再建连，created 只在持锁时增减，保证不会超过 MaxSize；
			// 建连放到锁外，避免连接延迟阻塞其他调用方。
			p.created++
			p.mu.Unlock()
			c, err := p.opts.Factory()
			p.mu.Lock()
			if err == nil {
				return c, p.releaseOnce(c), nil
			}
			p.created--
			log.Printf("连接池 %s 新建连接失败: %v", p.opts.Name, err)
		}

		if !time.Now().Before(deadline) {
			return zero, nil, ErrAcquireTimeout
		}
		p.cond.Wait()
	}
}

// releaseOnce 返回幂等的归还函数，重复调用只生效一次。
func (p *Pool[C]) releaseOnce(c C) func() {
	var once sync.Once
	return func() {
		once.Do(func() { p.release(c) })
	}
}

func (p *Pool[C]) release(c C) {
	p.mu.Lock()
	if p.closed || (p.opts.Health != nil && !p.opts.Health(c)) {
		p.destroyLocked(c)
	} else {
		p.idle = append(p.idle, c)
	}
	p.mu.Unlock()
	p.cond.Signal()
}

// destroyLocked 销毁连接并释放名额，调用方需持锁。
func (p *Pool[C]) destroyLocked(c C) {
	if p.created > 0 {
		p.created--
	}
	if p.opts.Close != nil {
		p.opts.Close(c)
	}
}

// Close 关闭池并销毁所有空闲连接；借出的连接在归还时销毁。
func (p *Pool[C]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	for _, c := range idle {
		p.destroyLocked(c)
	}
	p.mu.Unlock()
	p.cond.Broadcast()
}

// Stats 返回当前空闲数与已建连接数。
func (p *Pool[C]) Stats() (idle, created int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle), p.created
}
