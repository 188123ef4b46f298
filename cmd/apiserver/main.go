package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redisDriver "github.com/redis/go-redis/v9"

	"gym-buddy/internal/config"
	apiHandlers "gym-buddy/internal/handlers/apiserver"
	appKafka "gym-buddy/internal/kafka"
	"gym-buddy/internal/middleware"
	appRedis "gym-buddy/internal/redis"
	"gym-buddy/internal/services"
	"gym-buddy/internal/storage"
	profileMongo "gym-buddy/internal/storage/mongo"
)

func main() {
	// 1. 加载配置
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}
	log.Println("API 服务器配置加载成功。")

	// 2. 初始化数据库连接 (账号，以及 sql 模式下的资料)
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("无法初始化数据库: %v", err)
	}
	log.Printf("API 服务器数据库连接成功 (%s)。", cfg.Database.Type)

	useMongo := cfg.ProfileStore.Type == "mongo"
	if err := storage.AutoMigrateTables(db, !useMongo); err != nil {
		log.Fatalf("数据库表迁移失败: %v", err)
	}

	// 3. 资料文档存储
	var profileRepo storage.ProfileRepository
	switch cfg.ProfileStore.Type {
	case "mongo":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		m, err := profileMongo.New(ctx, cfg.ProfileStore.MongoURI)
		cancel()
		if err != nil {
			log.Fatalf("无法连接 MongoDB: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := m.Close(ctx); err != nil {
				log.Printf("关闭 MongoDB 连接失败: %v", err)
			}
		}()
		profileRepo = m
		log.Println("资料存储: MongoDB")
	case "sql", "":
		profileRepo = storage.NewGormProfileRepository(db)
		log.Println("资料存储: 关系数据库")
	default:
		log.Fatalf("不支持的资料存储类型: %s", cfg.ProfileStore.Type)
	}

	// 4. 初始化 Redis Client 与令牌黑名单
	redisClient := redisDriver.NewClient(&redisDriver.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("无法连接到 Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("成功连接到 Redis")
	tokenBlacklist := appRedis.NewRedisTokenBlacklist(redisClient)

	// 5. 初始化 Kafka Producer
	var producer appKafka.MessageProducer
	if cfg.Kafka.Enabled {
		producer, err = appKafka.NewConfluentKafkaProducer(cfg.Kafka)
		if err != nil {
			log.Fatalf("无法创建 Kafka 生产者: %v", err)
		}
		log.Printf("Kafka 生产者初始化成功，事件 topic: %s", cfg.Kafka.ProfileEventsTopic)
	} else {
		producer = appKafka.NewNopProducer()
		log.Println("Kafka 已禁用，资料事件不会被推送。")
	}
	defer producer.Close()
	publisher := appKafka.NewEventPublisher(producer, cfg.Kafka.ProfileEventsTopic)

	// 6. 初始化 Services 和 Handlers
	authService := services.NewAuthService(storage.NewGormAccountRepository(db), tokenBlacklist, cfg.Auth)
	profileService := services.NewProfileService(profileRepo, publisher)
	buddyService := services.NewBuddyService(profileRepo, publisher)

	// 7. 设置 HTTP 路由
	r := mux.NewRouter()
	apiHandlers.RegisterRoutes(r, apiHandlers.Handlers{
		Auth:    apiHandlers.NewAuthHandler(authService),
		Profile: apiHandlers.NewProfileHandler(profileService),
		Buddy:   apiHandlers.NewBuddyHandler(buddyService),
	}, middleware.AuthMiddleware(cfg.Auth.JWTSecretKey, tokenBlacklist))

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	// 8. CORS 与访问日志
	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.APIServer.CORS.AllowedOrigins),
		handlers.AllowedMethods(cfg.APIServer.CORS.AllowedMethods),
		handlers.AllowedHeaders(cfg.APIServer.CORS.AllowedHeaders),
		handlers.ExposedHeaders(cfg.APIServer.CORS.ExposedHeaders),
		handlers.MaxAge(cfg.APIServer.CORS.MaxAge),
	}
	if cfg.APIServer.CORS.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}
	handler := handlers.CombinedLoggingHandler(os.Stdout, handlers.CORS(corsOptions...)(r))

	// 9. 启动 HTTP 服务器并实现优雅关闭
	serverAddr := fmt.Sprintf("%s:%s", cfg.APIServer.Host, cfg.APIServer.Port)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  cfg.APIServer.ReadTimeout,
		WriteTimeout: cfg.APIServer.WriteTimeout,
		IdleTimeout:  time.Second * 60,
	}

	go func() {
		log.Printf("API 服务器启动于 %s", serverAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("API 服务器启动失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("收到关闭信号，正在关闭 API 服务器...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Printf("API 服务器强制关闭: %v", err)
	}
	log.Println("API 服务器已成功关闭")
}
