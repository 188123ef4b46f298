package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"gym-buddy/internal/config"
	"gym-buddy/internal/models"
	"gym-buddy/internal/services"
	"gym-buddy/internal/storage"
	profileMongo "gym-buddy/internal/storage/mongo"
)

func usage() {
	fmt.Println("使用方法:")
	fmt.Println("  ./admin list-profiles              - 列出所有资料文档")
	fmt.Println("  ./admin show-profile <accountID>   - 显示一份资料及其好友关系")
	fmt.Println("  ./admin audit-relationships        - 检查好友关系是否两侧一致")
}

func main() {
	// 简单命令行参数解析
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}

	repo, closeRepo := openProfiles(cfg)
	defer closeRepo()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 执行指定的命令
	switch os.Args[1] {
	case "list-profiles":
		listProfiles(ctx, repo)

	case "show-profile":
		if len(os.Args) < 3 {
			log.Fatalf("需要指定账号ID")
		}
		showProfile(ctx, repo, os.Args[2])

	case "audit-relationships":
		if n := auditRelationships(ctx, repo); n > 0 {
			closeRepo()
			os.Exit(2)
		}

	default:
		usage()
		log.Fatalf("未知命令: %s", os.Args[1])
	}
}

// openProfiles opens the configured profile store. Postgres goes through
// lib/pq so the tool can run next to a server holding the pgx pool.
func openProfiles(cfg config.Config) (storage.ProfileRepository, func()) {
	if cfg.ProfileStore.Type == "mongo" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		m, err := profileMongo.New(ctx, cfg.ProfileStore.MongoURI)
		if err != nil {
			log.Fatalf("无法连接 MongoDB: %v", err)
		}
		return m, func() { _ = m.Close(context.Background()) }
	}

	if cfg.Database.Type == "sqlite" {
		db, err := storage.InitDB(cfg.Database)
		if err != nil {
			log.Fatalf("无法初始化数据库: %v", err)
		}
		return storage.NewGormProfileRepository(db), func() {}
	}

	sqlDB, err := sql.Open("postgres", storage.PostgresDSN(cfg.Database))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqlDB,
	}), &gorm.Config{
		Logger: storage.NewGormLogger(cfg.Database.LogLevel),
	})
	if err != nil {
		sqlDB.Close()
		log.Fatalf("Failed to create GORM instance: %v", err)
	}
	return storage.NewGormProfileRepository(db), func() { sqlDB.Close() }
}

func listProfiles(ctx context.Context, repo storage.ProfileRepository) {
	profiles, err := repo.List(ctx)
	if err != nil {
		log.Fatalf("获取资料列表失败: %v", err)
	}

	fmt.Printf("共 %d 份资料:\n", len(profiles))
	fmt.Println("--------------------------------------")
	for i, p := range profiles {
		status := "已完成"
		if !p.IsComplete() {
			status = "未完成"
		}
		fmt.Printf("#%d ID: %s, 名字: %s, 邮箱: %s, 水平: %s, 好友: %d, 状态: %s\n",
			i+1, p.ID, p.Name, p.Email, p.FitnessLevel, len(p.Buddies), status)
	}
}

func showProfile(ctx context.Context, repo storage.ProfileRepository, id string) {
	p, err := repo.Get(ctx, id)
	if errors.Is(err, models.ErrProfileNotFound) {
		log.Fatalf("账号 %s 没有资料文档", id)
	}
	if err != nil {
		log.Fatalf("获取资料失败: %v", err)
	}

	fmt.Printf("资料 %s 信息:\n", id)
	fmt.Println("--------------------------------------")
	fmt.Printf("名字: %s\n", p.Name)
	fmt.Printf("邮箱: %s\n", p.Email)
	fmt.Printf("水平: %s\n", p.FitnessLevel)
	fmt.Printf("训练类型: %s\n", strings.Join(p.WorkoutTypes, ", "))
	fmt.Printf("简介: %s\n", p.Bio)
	fmt.Printf("头像: %s\n", p.Avatar().Asset)
	fmt.Printf("创建时间: %s\n", p.CreatedAt.Format("2006-01-02 15:04:05"))
	printSet("好友", p.Buddies)
	printSet("已发送请求", p.SentRequests)
	printSet("收到的请求", p.ReceivedRequests)
}

func printSet(label string, ids []string) {
	fmt.Printf("%s (%d):\n", label, len(ids))
	for _, id := range ids {
		fmt.Printf("  - %s\n", id)
	}
}

func auditRelationships(ctx context.Context, repo storage.ProfileRepository) int {
	profiles, err := repo.List(ctx)
	if err != nil {
		log.Fatalf("获取资料列表失败: %v", err)
	}

	problems := services.AuditRelationships(profiles)
	fmt.Printf("检查了 %d 份资料，发现 %d 处不一致\n", len(profiles), len(problems))
	for _, p := range problems {
		fmt.Println("  " + p.String())
	}
	return len(problems)
}
