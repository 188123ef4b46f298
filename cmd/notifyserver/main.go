package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	redisDriver "github.com/redis/go-redis/v9"

	"gym-buddy/internal/config"
	"gym-buddy/internal/handlers/notifyserver"
	appKafka "gym-buddy/internal/kafka"
	kafkaHandlers "gym-buddy/internal/kafka/handlers"
	appRedis "gym-buddy/internal/redis"
	"gym-buddy/internal/websocket"
)

func main() {
	// 1. 加载配置
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}
	log.Println("推送服务器配置加载成功。")

	// 2. Redis 令牌黑名单 (握手时校验已登出的令牌)
	redisClient := redisDriver.NewClient(&redisDriver.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("无法连接到 Redis: %v", err)
	}
	defer redisClient.Close()
	tokenBlacklist := appRedis.NewRedisTokenBlacklist(redisClient)

	// 3. 初始化 WebSocket Hub
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := websocket.NewHub()
	go hub.Run(ctx)
	log.Println("WebSocket Hub 已启动。")

	// 4. Kafka 消费者: 资料事件 -> Hub
	var consumers sync.WaitGroup
	if cfg.Kafka.Enabled {
		consumer, err := appKafka.NewConfluentKafkaConsumer(cfg.Kafka)
		if err != nil {
			log.Fatalf("无法创建 Kafka 消费者: %v", err)
		}
		defer consumer.Close()

		logic := kafkaHandlers.NewProfileEventConsumerLogic(hub)
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			log.Printf("Kafka 消费者 goroutine 启动，监听 topic: %s", cfg.Kafka.ProfileEventsTopic)
			if err := consumer.Consume(ctx, []string{cfg.Kafka.ProfileEventsTopic}, cfg.Kafka.ConsumerGroup, logic.HandleProfileEvent); err != nil {
				log.Printf("Kafka 消费者错误: %v", err)
			}
			log.Println("Kafka 消费者 goroutine 已停止。")
		}()
	} else {
		log.Println("警告: Kafka 已禁用，推送服务器不会收到任何事件。")
	}

	// 5. 配置 HTTP 路由
	wsHandler := notifyserver.NewWebSocketHandler(hub, tokenBlacklist, cfg)
	mux := http.NewServeMux()
	mux.HandleFunc(cfg.NotifyServer.WebSocketPath, wsHandler.ServeWS)
	mux.Handle("/metrics", promhttp.Handler())

	serverAddr := fmt.Sprintf("%s:%s", cfg.NotifyServer.Host, cfg.NotifyServer.Port)
	httpServer := &http.Server{Addr: serverAddr, Handler: mux}

	go func() {
		log.Printf("推送服务器启动于 %s, WebSocket 路径: %s", serverAddr, cfg.NotifyServer.WebSocketPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("推送服务器启动失败: %v", err)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("推送服务器准备关闭...")

	cancel()
	log.Println("正在等待 Kafka 消费者停止...")
	consumers.Wait()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		log.Printf("推送服务器关闭失败: %v", err)
	}
	log.Println("推送服务器已优雅关闭。")
}
