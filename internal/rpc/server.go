package rpc

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
)

// Server 承载两个进程之间的控制面调用：
// 网关调逻辑层（Logic.*），逻辑层回调网关做推送（Gateway.*）。
// 业务结果放在响应体的错误码里，方法级 error 只表示传输/编解码故障。
type Server struct {
	listener  net.Listener
	rpcServer *rpc.Server
	done      chan struct{}
}

// NewServer 把 handler 以 name 为服务名注册到一个新的 RPC server。
func NewServer(name string, handler interface{}) (*Server, error) {
	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName(name, handler); err != nil {
		return nil, fmt.Errorf("register rpc handler: %w", err)
	}
	return &Server{
		rpcServer: rpcServer,
		done:      make(chan struct{}),
	}, nil
}

// Start 在 addr 上接受连接并阻塞服务，每条连接一个 goroutine。
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				close(s.done)
				return nil
			}
			log.Printf("RPC accept error: %v", err)
			continue
		}
		go s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(conn))
	}
}

// Shutdown 停止接受新连接，等待 accept 循环退出。
func (s *Server) Shutdown(ctx context.Context) error {
	if s.listener == nil {
		return nil
	}
	if err := s.listener.Close(); err != nil {
		return err
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
