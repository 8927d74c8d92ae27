package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Transcription TranscriptionConfig
	Download      DownloadConfig
	Resolver      ResolverConfig
	Feed          FeedConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type TranscriptionConfig struct {
	APIKey  string
	BaseURL string // OpenAI-compatible endpoint, default: Groq
	Model   string
}

type DownloadConfig struct {
	BinPath     string // yt-dlp binary
	MaxDuration time.Duration
	MaxFileSize int64 // bytes; 0 disables the size check
	CookieFile  string
	Timeout     time.Duration
}

type ResolverConfig struct {
	Timeout    time.Duration
	MaxHops    int
	FollowMeta bool
}

type FeedConfig struct {
	Source   string // feed URL or local file path
	Interval time.Duration
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxDurationMin, err := getEnvInt("DOWNLOAD_MAX_DURATION_MINUTES", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid DOWNLOAD_MAX_DURATION_MINUTES: %w", err)
	}

	maxSizeMB, err := getEnvInt("DOWNLOAD_MAX_FILE_SIZE_MB", 100)
	if err != nil {
		return nil, fmt.Errorf("invalid DOWNLOAD_MAX_FILE_SIZE_MB: %w", err)
	}

	downloadTimeoutSec, err := getEnvInt("DOWNLOAD_TIMEOUT_SECONDS", 300)
	if err != nil {
		return nil, fmt.Errorf("invalid DOWNLOAD_TIMEOUT_SECONDS: %w", err)
	}

	resolveTimeoutSec, err := getEnvInt("RESOLVE_TIMEOUT_SECONDS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid RESOLVE_TIMEOUT_SECONDS: %w", err)
	}

	maxHops, err := getEnvInt("RESOLVE_MAX_HOPS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid RESOLVE_MAX_HOPS: %w", err)
	}

	feedIntervalMin, err := getEnvInt("FEED_INTERVAL_MINUTES", 15)
	if err != nil {
		return nil, fmt.Errorf("invalid FEED_INTERVAL_MINUTES: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Transcription: TranscriptionConfig{
			APIKey:  getEnv("GROQ_API_KEY", ""),
			BaseURL: getEnv("TRANSCRIPTION_BASE_URL", "https://api.groq.com/openai/v1"),
			Model:   getEnv("TRANSCRIPTION_MODEL", "whisper-large-v3"),
		},
		Download: DownloadConfig{
			BinPath:     getEnv("YTDLP_PATH", "yt-dlp"),
			MaxDuration: time.Duration(maxDurationMin) * time.Minute,
			MaxFileSize: int64(maxSizeMB) * 1024 * 1024,
			CookieFile:  getEnv("YTDLP_COOKIE_FILE", ""),
			Timeout:     time.Duration(downloadTimeoutSec) * time.Second,
		},
		Resolver: ResolverConfig{
			Timeout:    time.Duration(resolveTimeoutSec) * time.Second,
			MaxHops:    maxHops,
			FollowMeta: getEnvBool("RESOLVE_FOLLOW_META", true),
		},
		Feed: FeedConfig{
			Source:   getEnv("FEED_SOURCE", ""),
			Interval: time.Duration(feedIntervalMin) * time.Minute,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
