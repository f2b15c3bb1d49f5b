package rpc

import (
	"context"

	"github.com/Muelsyse030/XLetsChat/internal/protocol"
)

// LogicClient 是网关侧到逻辑层的强类型调用封装。
type LogicClient struct {
	pool *ClientPool
}

func NewLogicClient(addr string, minSize, maxSize int) *LogicClient {
	return &LogicClient{pool: NewClientPool(addr, minSize, maxSize)}
}

func (c *LogicClient) Login(ctx context.Context, req *protocol.LoginReq) (*protocol.LoginRes, error) {
	var res protocol.LoginRes
	if err := c.pool.Call(ctx, "Logic.Login", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *LogicClient) SendMessage(ctx context.Context, req *protocol.SendMsgReq) (*protocol.SendMsgRes, error) {
	var res protocol.SendMsgRes
	if err := c.pool.Call(ctx, "Logic.SendMessage", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *LogicClient) SyncMessages(ctx context.Context, req *protocol.SyncReq) (*protocol.SyncRes, error) {
	var res protocol.SyncRes
	if err := c.pool.Call(ctx, "Logic.SyncMessages", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *LogicClient) GetUploadURL(ctx context.Context, req *protocol.UploadURLReq) (*protocol.UploadURLRes, error) {
	var res protocol.UploadURLRes
	if err := c.pool.Call(ctx, "Logic.GetUploadURL", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *LogicClient) SendGroupMessage(ctx context.Context, req *protocol.GroupSendReq) (*protocol.GroupSendRes, error) {
	var res protocol.GroupSendRes
	if err := c.pool.Call(ctx, "Logic.SendGroupMessage", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *LogicClient) SyncGroupMessages(ctx context.Context, req *protocol.GroupSyncReq) (*protocol.GroupSyncRes, error) {
	var res protocol.GroupSyncRes
	if err := c.pool.Call(ctx, "Logic.SyncGroupMessages", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *LogicClient) Close() { c.pool.Close() }
