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
	"github.com/Muelsyse030/XLetsChat/internal/infra"
	"github.com/Muelsyse030/XLetsChat/internal/model"
	"github.com/Muelsyse030/XLetsChat/internal/presence"
	"github.com/Muelsyse030/XLetsChat/internal/repository"
	"github.com/Muelsyse030/XLetsChat/internal/rpc"
	"github.com/Muelsyse030/XLetsChat/internal/service"
)

// 逻辑层进程：承载业务编排、控制面 RPC 与 REST API。
// 监听地址通过环境变量覆盖：
//
//	LC_LOGIC_RPC_ADDR 控制面 RPC，默认 :7200
//	LC_LOGIC_API_ADDR REST API，默认 :8080

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	rpcAddr := envOr("LC_LOGIC_RPC_ADDR", ":7200")
	apiAddr := envOr("LC_LOGIC_API_ADDR", ":8080")

	// 构建依赖
	db, err := infra.NewDB()
	if err != nil {
		log.Fatalf("连接数据库失败: %v", err)
	}
	if err := db.AutoMigrate(model.All()...); err != nil {
		log.Fatalf("表结构迁移失败: %v", err)
	}

	redisClient := infra.NewRedisClient()
	if err := infra.PingRedis(context.Background(), redisClient); err != nil {
		log.Fatalf("Redis 未就绪，在线目录不可用: %v", err)
	}
	dir := presence.NewDirectory(presence.NewConnPool(redisClient, 2, 8))

	userRepo := repository.NewUserRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	groupRepo := repository.NewGroupRepository(db)

	pushClient := rpc.NewPushClient(1, 4)
	defer pushClient.Close()
	deliverer := service.NewDeliverer(dir, pushClient)

	authSvc := service.NewAuthService(userRepo)
	msgSvc := service.NewMessageService(msgRepo, friendRepo, deliverer)
	friendSvc := service.NewFriendService(friendRepo)
	syncSvc := service.NewSyncService(msgRepo)
	groupSvc := service.NewGroupService(groupRepo, msgRepo)
	uploadSvc := service.NewUploadService()

	// RabbitMQ 可选：不可用时发送链路退化为进程内直推
	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	defer cancelConsumer()
	mqCfg := infra.LoadRabbitMQConfig()
	if mqConn, err := infra.NewRabbitMQ(mqCfg); err != nil {
		log.Printf("RabbitMQ 不可用，投递改为直推: %v", err)
	} else {
		defer mqConn.Close()
		ch, err := mqConn.Channel()
		if err != nil {
			log.Fatalf("打开 RabbitMQ channel 失败: %v", err)
		}
		if err := infra.PrepareRabbitTopology(ch, mqCfg); err != nil {
			log.Fatalf("声明 RabbitMQ 拓扑失败: %v", err)
		}
		msgSvc.WithProducer(service.NewDeliveryProducer(ch, mqCfg.Exchange, mqCfg.RoutingKey))
		consumer := service.NewDeliveryConsumer(ch, mqCfg.Queue, deliverer)
		if err := consumer.Start(consumerCtx); err != nil {
			log.Fatalf("启动投递消费者失败: %v", err)
		}
		log.Printf("投递队列已就绪 exchange=%s queue=%s", mqCfg.Exchange, mqCfg.Queue)
	}

	// 控制面 RPC
	logicRPC := handler.NewLogic(authSvc, msgSvc, friendSvc, syncSvc, groupSvc, uploadSvc, dir)
	rpcServer, err := rpc.NewServer("Logic", logicRPC)
	if err != nil {
		log.Fatalf("注册 RPC 服务失败: %v", err)
	}
	go func() {
		log.Printf("逻辑层 RPC 启动，监听 %s", rpcAddr)
		if err := rpcServer.Start(rpcAddr); err != nil {
			log.Fatalf("RPC 服务启动失败: %v", err)
		}
	}()

	// REST API，引入基础日志与 panic 恢复
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	handler.NewAPIHandler(authSvc, friendSvc, uploadSvc).Register(router)

	httpServer := &http.Server{Addr: apiAddr, Handler: router}
	go func() {
		log.Printf("REST API 启动，监听 %s", apiAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("API 服务启动失败: %v", err)
		}
	}()

	// 监听系统信号，优雅退出
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	cancelConsumer()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("API 服务关闭异常: %v", err)
	}
	if err := rpcServer.Shutdown(ctx); err != nil {
		log.Printf("RPC 服务关闭异常: %v", err)
	}
	log.Println("逻辑层已关闭")
}
