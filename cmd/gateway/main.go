package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Muelsyse030/XLetsChat/internal/handler"
	"github.com/Muelsyse030/XLetsChat/internal/rpc"
	"github.com/Muelsyse030/XLetsChat/internal/session"
)

// 网关进程：持有客户端长连接，业务全部转发给逻辑层。
// 监听地址通过环境变量覆盖：
//
//	LC_GATEWAY_WS_ADDR      WebSocket 入口，默认 :7000
//	LC_GATEWAY_RPC_ADDR     控制面 RPC 监听，默认 :7100
//	LC_GATEWAY_CONTROL_ADDR 对外公布的控制面地址（写入在线目录），
//	                        多机部署必须设置为本机可达地址，默认 127.0.0.1:7100
//	LC_LOGIC_RPC_ADDR       逻辑层 RPC 地址，默认 127.0.0.1:7200

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	wsAddr := envOr("LC_GATEWAY_WS_ADDR", ":7000")
	rpcAddr := envOr("LC_GATEWAY_RPC_ADDR", ":7100")
	controlAddr := envOr("LC_GATEWAY_CONTROL_ADDR", "127.0.0.1:7100")
	logicAddr := envOr("LC_LOGIC_RPC_ADDR", "127.0.0.1:7200")

	registry := session.NewRegistry()
	logicClient := rpc.NewLogicClient(logicAddr, 2, 8)
	defer logicClient.Close()

	wsHandler := handler.NewWebSocketHandler(registry, logicClient, controlAddr)

	// 控制面 RPC：逻辑层回调推送
	rpcServer, err := rpc.NewServer("Gateway", handler.NewGateway(registry))
	if err != nil {
		log.Fatalf("注册 RPC 服务失败: %v", err)
	}
	go func() {
		log.Printf("网关控制面启动，监听 %s（公布地址 %s）", rpcAddr, controlAddr)
		if err := rpcServer.Start(rpcAddr); err != nil {
			log.Fatalf("RPC 服务启动失败: %v", err)
		}
	}()

	// WebSocket 入口，引入基础日志与 panic 恢复
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.GET("/ws", wsHandler.HandleWebSocket)

	httpServer := &http.Server{Addr: wsAddr, Handler: router}
	go func() {
		log.Printf("网关 WebSocket 启动，监听 %s", wsAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 监听系统信号，优雅退出
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("WebSocket 服务关闭异常: %v", err)
	}
	if err := rpcServer.Shutdown(ctx); err != nil {
		log.Printf("RPC 服务关闭异常: %v", err)
	}
	log.Println("网关已关闭")
}
