package rpc

import (
	"context"
	"sync"

	"github.com/Muelsyse030/XLetsChat/internal/protocol"
)

// PushClient 维护到各网关控制面的客户端池，按目录查出的地址推送。
// 网关实例独立伸缩，池按地址惰性创建。
type PushClient struct {
	minSize int
	maxSize int

	mu    sync.Mutex
	pools map[string]*ClientPool
}

func NewPushClient(minSize, maxSize int) *PushClient {
	return &PushClient{
		minSize: minSize,
		maxSize: maxSize,
		pools:   make(map[string]*ClientPool),
	}
}

func (p *PushClient) poolFor(addr string) *ClientPool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cp, ok := p.pools[addr]; ok {
		return cp
	}
	cp := NewClientPool(addr, p.minSize, p.maxSize)
	p.pools[addr] = cp
	return cp
}

// Push 调用目标网关的 Gateway.PushMessage，payload 为完整二进制数据包。
// 返回的错误码是业务结果（如本地未找到），error 才是传输故障。
func (p *PushClient) Push(ctx context.Context, addr string, toUID int64, payload []byte) (protocol.ErrCode, error) {
	var res protocol.PushMsgRes
	req := protocol.PushMsgReq{ToUID: toUID, Payload: payload}
	if err := p.poolFor(addr).Call(ctx, "Gateway.PushMessage", &req, &res); err != nil {
		return protocol.ErrSystem, err
	}
	return res.ErrCode, nil
}

// Close 关闭全部客户端池。
func (p *PushClient) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, cp := range p.pools {
		cp.Close()
	}
	p.pools = make(map[string]*ClientPool)
}
