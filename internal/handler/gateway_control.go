package handler

import (
	"log"

	"github.com/Muelsyse030/XLetsChat/internal/protocol"
	"github.com/Muelsyse030/XLetsChat/internal/session"
)

// Gateway 是网关控制面的 RPC 入口，逻辑层以 Gateway.PushMessage 回调推送。
type Gateway struct {
	registry *session.Registry
}

func NewGateway(registry *session.Registry) *Gateway {
	return &Gateway{registry: registry}
}

// PushMessage 把封包好的数据帧写给本地会话。
// 收件人不在本进程时返回"本地未找到"——目录条目可能已过期，
// 这是预期内的业务结果，调用方不应重试。
func (g *Gateway) PushMessage(req *protocol.PushMsgReq, res *protocol.PushMsgRes) error {
	s, ok := g.registry.Get(req.ToUID)
	if !ok {
		res.ErrCode = protocol.ErrNotFoundLocally
		res.ErrMsg = "session not on this gateway"
		return nil
	}
	if err := s.WriteFrame(req.Payload); err != nil {
		log.Printf("推送写入失败 to_uid=%d: %v", req.ToUID, err)
		res.ErrCode = protocol.ErrSystem
		res.ErrMsg = "write failed"
		return nil
	}
	res.ErrCode = protocol.ErrSuccess
	return nil
}
