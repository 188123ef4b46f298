package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gym-buddy/internal/client"
	"gym-buddy/internal/config"
	"gym-buddy/internal/navigation"
	"gym-buddy/internal/screens"
	"gym-buddy/internal/session"
)

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}

	// 日志写到文件，避免打断交互界面
	if path := os.Getenv("GYMBUDDY_LOG"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("无法打开日志文件: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := client.New(cfg.Client)
	identity := client.NewIdentity(api)
	profiles := client.NewProfiles(api)
	buddies := client.NewBuddies(api)

	// 可选: 用已有令牌恢复会话
	if token := os.Getenv("GYMBUDDY_TOKEN"); token != "" {
		if _, err := identity.Restore(ctx, token); err != nil {
			log.Printf("恢复会话失败: %v", err)
		}
	}

	store := session.NewStore(identity, profiles)
	router := navigation.NewRouter()
	unbind := router.Bind(store)
	defer unbind()

	store.Start(ctx)
	defer store.Close()

	shell := screens.NewShell(store, router, profiles, buddies, os.Stdin, os.Stdout)
	if cfg.Client.NotifyURL != "" {
		go shell.FollowEvents(ctx, client.NewNotifications(api))
	}

	if err := shell.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("客户端退出: %v", err)
		os.Exit(1)
	}
}
