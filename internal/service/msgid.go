package service

import (
	"sync"
	"time"
)

// MsgIDGenerator 生成基于墙钟的消息 ID：毫秒时间戳左移 12 位拼上毫秒内序号。
// 单调性足够用作存储排序键与同步游标；跨进程不保证全局唯一，
// 主键冲突由落库时的重复键检查兜底。
type MsgIDGenerator struct {
	mu        sync.Mutex
	lastMilli int64
	counter   int64
}

func NewMsgIDGenerator() *MsgIDGenerator {
	return &MsgIDGenerator{}
}

func (g *MsgIDGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	milli := time.Now().UnixMilli()
	if milli <= g.lastMilli {
		// 同毫秒或时钟回拨：在上一个时间戳上递增序号，保持单调
		g.counter++
		if g.counter > 0xFFF {
			// 毫秒内序号用尽，借用下一毫秒
			g.lastMilli++
			g.counter = 0
		}
		milli = g.lastMilli
	} else {
		g.lastMilli = milli
		g.counter = 0
	}
	return milli<<12 | g.counter
}
