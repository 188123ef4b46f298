package storage

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gym-buddy/internal/config"
	"gym-buddy/internal/models"
)

// InitDB initializes the database connection using the provided configuration.
// Supported types are "postgres" and "sqlite" (pure Go, used for local runs and tests).
func InitDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Type {
	case "postgres":
		dialector = postgres.Open(PostgresDSN(cfg))
	case "sqlite":
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite path is empty")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
		dialector = sqlite.Open(fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", cfg.SQLitePath))
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         NewGormLogger(cfg.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Type == "sqlite" {
		// sqlite 只允许一个写连接，避免 "database is locked"
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// PostgresDSN builds a key/value DSN understood by both pgx and lib/pq.
func PostgresDSN(cfg config.DatabaseConfig) string {
	var dsnParts []string
	dsnParts = append(dsnParts, fmt.Sprintf("host=%s", cfg.Host))
	dsnParts = append(dsnParts, fmt.Sprintf("port=%d", cfg.Port))
	dsnParts = append(dsnParts, fmt.Sprintf("user=%s", cfg.User))
	dsnParts = append(dsnParts, fmt.Sprintf("dbname=%s", cfg.DBName))
	if cfg.Password != "" {
		dsnParts = append(dsnParts, fmt.Sprintf("password=%s", cfg.Password))
	}
	dsnParts = append(dsnParts, fmt.Sprintf("sslmode=%s", cfg.SSLMode))
	return strings.Join(dsnParts, " ")
}

// NewGormLogger builds the GORM logger writing through the standard log package.
func NewGormLogger(level string) logger.Interface {
	logLevel := logger.Warn
	switch strings.ToLower(level) {
	case "silent":
		logLevel = logger.Silent
	case "error":
		logLevel = logger.Error
	case "info":
		logLevel = logger.Info
	}

	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
}

// AutoMigrateTables runs GORM's auto-migration feature for all defined models.
// withProfiles is false when profiles live in MongoDB.
func AutoMigrateTables(db *gorm.DB, withProfiles bool) error {
	log.Println("开始数据库表结构迁移...")
	tables := []interface{}{&models.Account{}}
	if withProfiles {
		tables = append(tables, &models.Profile{})
	}
	if err := db.AutoMigrate(tables...); err != nil {
		log.Printf("数据库迁移失败: %v", err)
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	log.Println("数据库迁移完成。")
	return nil
}
