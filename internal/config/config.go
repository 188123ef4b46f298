package config

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// APIServerConfig 保存 API 服务器特有的配置。
type APIServerConfig struct {
	Host         string        `mapstructure:"HOST"`
	Port         string        `mapstructure:"PORT"`
	ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
	CORS         CORSConfig    `mapstructure:"CORS"`
}

// CORSConfig holds configuration for CORS.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"ALLOWED_ORIGINS"`
	AllowedMethods   []string `mapstructure:"ALLOWED_METHODS"`
	AllowedHeaders   []string `mapstructure:"ALLOWED_HEADERS"`
	ExposedHeaders   []string `mapstructure:"EXPOSED_HEADERS"`
	AllowCredentials bool     `mapstructure:"ALLOW_CREDENTIALS"`
	MaxAge           int      `mapstructure:"MAX_AGE"`
}

// NotifyServerConfig holds configuration for the push notification server.
type NotifyServerConfig struct {
	Host          string `mapstructure:"HOST"`
	Port          string `mapstructure:"PORT"`
	WebSocketPath string `mapstructure:"WEBSOCKET_PATH"`
}

// ClientConfig 是终端客户端 (cmd/gymbuddy) 使用的配置。
type ClientConfig struct {
	APIBaseURL     string        `mapstructure:"API_BASE_URL"`
	NotifyURL      string        `mapstructure:"NOTIFY_URL"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
}

// RedisConfig holds configuration for Redis.
type RedisConfig struct {
	Addr     string `mapstructure:"ADDR"`
	Password string `mapstructure:"PASSWORD"`
	DB       int    `mapstructure:"DB"`
}

// Config holds all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	AppName      string             `mapstructure:"APP_NAME"`
	AppVersion   string             `mapstructure:"APP_VERSION"`
	LogLevel     string             `mapstructure:"LOG_LEVEL"`
	APIServer    APIServerConfig    `mapstructure:"API_SERVER"`
	NotifyServer NotifyServerConfig `mapstructure:"NOTIFY_SERVER"`
	Client       ClientConfig       `mapstructure:"CLIENT"`
	Kafka        KafkaConfig        `mapstructure:"KAFKA"`
	Database     DatabaseConfig     `mapstructure:"DATABASE"`
	ProfileStore ProfileStoreConfig `mapstructure:"PROFILE_STORE"`
	Auth         AuthConfig         `mapstructure:"AUTH"`
	WebSocket    WebSocketConfig    `mapstructure:"WEBSOCKET"`
	Redis        RedisConfig        `mapstructure:"REDIS"`
}

// KafkaConfig holds configuration for Kafka.
type KafkaConfig struct {
	Enabled            bool     `mapstructure:"ENABLED"`
	Brokers            []string `mapstructure:"BROKERS"`
	ClientID           string   `mapstructure:"CLIENT_ID"`
	ProfileEventsTopic string   `mapstructure:"PROFILE_EVENTS_TOPIC"` // 资料与好友关系变更事件
	ConsumerGroup      string   `mapstructure:"CONSUMER_GROUP"`
	Protocol           string   `mapstructure:"PROTOCOL"`
}

// DatabaseConfig holds configuration for the relational database (accounts, and profiles unless Mongo is used).
type DatabaseConfig struct {
	Type       string `mapstructure:"TYPE"` // "postgres" or "sqlite"
	Host       string `mapstructure:"HOST"`
	Port       int    `mapstructure:"PORT"`
	User       string `mapstructure:"USER"`
	Password   string `mapstructure:"PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	SSLMode    string `mapstructure:"SSL_MODE"`
	SQLitePath string `mapstructure:"SQLITE_PATH"`
	LogLevel   string `mapstructure:"LOG_LEVEL"` // silent, error, warn, info
}

// ProfileStoreConfig selects the backend of the profile document store.
type ProfileStoreConfig struct {
	Type     string `mapstructure:"TYPE"` // "sql" (same database as accounts) or "mongo"
	MongoURI string `mapstructure:"MONGO_URI"`
}

// AuthConfig holds configuration for authentication (e.g., JWT).
type AuthConfig struct {
	JWTSecretKey      string        `mapstructure:"JWT_SECRET_KEY"`
	JWTExpiry         time.Duration `mapstructure:"JWT_EXPIRY"`
	MinPasswordLength int           `mapstructure:"MIN_PASSWORD_LENGTH"`
}

// WebSocketConfig holds configuration for WebSocket connections.
type WebSocketConfig struct {
	WriteWaitSeconds    int `mapstructure:"WRITE_WAIT_SECONDS"`
	PongWaitSeconds     int `mapstructure:"PONG_WAIT_SECONDS"`
	PingPeriodSeconds   int `mapstructure:"PING_PERIOD_SECONDS"`
	MaxMessageSizeBytes int `mapstructure:"MAX_MESSAGE_SIZE_BYTES"`
}

// LoadConfig reads configuration from file or environment variables.
// A .env file in the working directory, if present, is loaded into the environment first.
func LoadConfig(path string) (config Config, err error) {
	if envErr := godotenv.Load(); envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		log.Printf("警告: 读取 .env 文件失败: %v", envErr)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.AutomaticEnv()
	// For nested structs, viper uses underscore: API_SERVER_PORT overrides API_SERVER.PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		// 没有配置文件时使用默认值
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "Gym-Buddy")
	v.SetDefault("APP_VERSION", "0.1.0")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("API_SERVER.HOST", "0.0.0.0")
	v.SetDefault("API_SERVER.PORT", "8081")
	v.SetDefault("API_SERVER.READ_TIMEOUT", 30*time.Second)
	v.SetDefault("API_SERVER.WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("API_SERVER.CORS.ALLOWED_ORIGINS", []string{"http://localhost:19006"})
	v.SetDefault("API_SERVER.CORS.ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"})
	v.SetDefault("API_SERVER.CORS.ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type"})
	v.SetDefault("API_SERVER.CORS.EXPOSED_HEADERS", []string{"Content-Length"})
	v.SetDefault("API_SERVER.CORS.ALLOW_CREDENTIALS", true)
	v.SetDefault("API_SERVER.CORS.MAX_AGE", 300)

	v.SetDefault("NOTIFY_SERVER.HOST", "0.0.0.0")
	v.SetDefault("NOTIFY_SERVER.PORT", "8082")
	v.SetDefault("NOTIFY_SERVER.WEBSOCKET_PATH", "/ws/events")

	v.SetDefault("CLIENT.API_BASE_URL", "http://localhost:8081")
	v.SetDefault("CLIENT.NOTIFY_URL", "ws://localhost:8082/ws/events")
	v.SetDefault("CLIENT.REQUEST_TIMEOUT", 15*time.Second)

	v.SetDefault("KAFKA.ENABLED", true)
	v.SetDefault("KAFKA.BROKERS", []string{"localhost:9092"})
	v.SetDefault("KAFKA.CLIENT_ID", "gym-buddy")
	v.SetDefault("KAFKA.PROFILE_EVENTS_TOPIC", "gym-buddy-profile-events")
	v.SetDefault("KAFKA.CONSUMER_GROUP", "gym-buddy-notify-server")
	v.SetDefault("KAFKA.PROTOCOL", "plaintext")

	v.SetDefault("DATABASE.TYPE", "postgres")
	v.SetDefault("DATABASE.HOST", "localhost")
	v.SetDefault("DATABASE.PORT", 5432)
	v.SetDefault("DATABASE.USER", "postgres")
	v.SetDefault("DATABASE.PASSWORD", "password")
	v.SetDefault("DATABASE.DB_NAME", "gym_buddy_db")
	v.SetDefault("DATABASE.SSL_MODE", "disable")
	v.SetDefault("DATABASE.SQLITE_PATH", "./data/gym-buddy.db")
	v.SetDefault("DATABASE.LOG_LEVEL", "warn")

	v.SetDefault("PROFILE_STORE.TYPE", "sql")
	v.SetDefault("PROFILE_STORE.MONGO_URI", "mongodb://localhost:27017/gym_buddy")

	v.SetDefault("AUTH.JWT_SECRET_KEY", "a_very_secret_key_that_should_be_changed")
	v.SetDefault("AUTH.JWT_EXPIRY", 24*time.Hour)
	v.SetDefault("AUTH.MIN_PASSWORD_LENGTH", 6)

	v.SetDefault("REDIS.ADDR", "localhost:6379")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)

	v.SetDefault("WEBSOCKET.WRITE_WAIT_SECONDS", 10)
	v.SetDefault("WEBSOCKET.PONG_WAIT_SECONDS", 60)
	v.SetDefault("WEBSOCKET.PING_PERIOD_SECONDS", 54) // (60 * 9) / 10
	v.SetDefault("WEBSOCKET.MAX_MESSAGE_SIZE_BYTES", 512)
}
