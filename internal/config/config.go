// internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Engine   EngineConfig
	Storage  StorageConfig
	Drive    DriveConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

type AppConfig struct {
	ExportDir string
	SeedFile  string
}

type CacheConfig struct {
	Enabled           bool
	RedisURL          string
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	RedisDB           int
	RankingTTLSeconds int
}

// EngineConfig tunes scoring, dispatch priority and the background workers.
type EngineConfig struct {
	Sentinel          float64
	Precision         int
	PivotLow          float64
	PivotHigh         float64
	PivotTarget       float64
	BaseScore         int
	TierBonus         map[int]int
	ExpiryThreshold   float64
	ExpiryBonus       int
	AuditBatchSize    int
	ReconcileInterval time.Duration
	BlockedLots       []string
}

// StorageConfig points at an S3-compatible bucket for report exports.
type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Prefix    string
}

type DriveConfig struct {
	CredentialsFile string
	FolderID        string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults(viper.GetViper())

		// Read from environment variables
		viper.AutomaticEnv()

		instance = fromViper(viper.GetViper())
		ensureDir(instance.App.ExportDir)
	})

	return instance
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "pirs")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_SQLITE_PATH", "./data/pirs.db")

	v.SetDefault("APP_EXPORT_DIR", "./data/reports")
	v.SetDefault("APP_SEED_FILE", "./data/catalog.yaml")

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_RANKING_TTL_SECONDS", 60)

	v.SetDefault("ENGINE_SENTINEL", 999.0)
	v.SetDefault("ENGINE_PRECISION", 2)
	v.SetDefault("ENGINE_PIVOT_LOW", 10.0)
	v.SetDefault("ENGINE_PIVOT_HIGH", 15.0)
	v.SetDefault("ENGINE_PIVOT_TARGET", 12.0)
	v.SetDefault("ENGINE_BASE_SCORE", 10)
	v.SetDefault("ENGINE_TIER1_BONUS", 60)
	v.SetDefault("ENGINE_TIER2_BONUS", 110)
	v.SetDefault("ENGINE_TIER3_BONUS", 160)
	v.SetDefault("ENGINE_EXPIRY_THRESHOLD_DAYS", 7.0)
	v.SetDefault("ENGINE_EXPIRY_BONUS", 500)
	v.SetDefault("ENGINE_AUDIT_BATCH_SIZE", 5)
	v.SetDefault("ENGINE_RECONCILE_INTERVAL", "30s")
	v.SetDefault("ENGINE_BLOCKED_LOTS", []string{})

	v.SetDefault("STORAGE_ENABLED", false)
	v.SetDefault("STORAGE_ENDPOINT", "localhost:9000")
	v.SetDefault("STORAGE_BUCKET", "pirs-reports")
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_USE_SSL", false)
	v.SetDefault("STORAGE_PREFIX", "reports")

	v.SetDefault("DRIVE_CREDENTIALS_FILE", "")
	v.SetDefault("DRIVE_FOLDER_ID", "")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Driver:     v.GetString("DB_DRIVER"),
			Host:       v.GetString("DB_HOST"),
			Port:       v.GetString("DB_PORT"),
			User:       v.GetString("DB_USER"),
			Password:   v.GetString("DB_PASSWORD"),
			DBName:     v.GetString("DB_NAME"),
			SSLMode:    v.GetString("DB_SSLMODE"),
			SQLitePath: v.GetString("DB_SQLITE_PATH"),
		},
		App: AppConfig{
			ExportDir: v.GetString("APP_EXPORT_DIR"),
			SeedFile:  v.GetString("APP_SEED_FILE"),
		},
		Cache: CacheConfig{
			Enabled:           v.GetBool("CACHE_ENABLED"),
			RedisURL:          v.GetString("REDIS_URL"),
			RedisHost:         v.GetString("REDIS_HOST"),
			RedisPort:         v.GetString("REDIS_PORT"),
			RedisPassword:     v.GetString("REDIS_PASSWORD"),
			RedisDB:           v.GetInt("REDIS_DB"),
			RankingTTLSeconds: v.GetInt("CACHE_RANKING_TTL_SECONDS"),
		},
		Engine: EngineConfig{
			Sentinel:    v.GetFloat64("ENGINE_SENTINEL"),
			Precision:   v.GetInt("ENGINE_PRECISION"),
			PivotLow:    v.GetFloat64("ENGINE_PIVOT_LOW"),
			PivotHigh:   v.GetFloat64("ENGINE_PIVOT_HIGH"),
			PivotTarget: v.GetFloat64("ENGINE_PIVOT_TARGET"),
			BaseScore:   v.GetInt("ENGINE_BASE_SCORE"),
			TierBonus: map[int]int{
				1: v.GetInt("ENGINE_TIER1_BONUS"),
				2: v.GetInt("ENGINE_TIER2_BONUS"),
				3: v.GetInt("ENGINE_TIER3_BONUS"),
			},
			ExpiryThreshold:   v.GetFloat64("ENGINE_EXPIRY_THRESHOLD_DAYS"),
			ExpiryBonus:       v.GetInt("ENGINE_EXPIRY_BONUS"),
			AuditBatchSize:    v.GetInt("ENGINE_AUDIT_BATCH_SIZE"),
			ReconcileInterval: v.GetDuration("ENGINE_RECONCILE_INTERVAL"),
			BlockedLots:       v.GetStringSlice("ENGINE_BLOCKED_LOTS"),
		},
		Storage: StorageConfig{
			Enabled:   v.GetBool("STORAGE_ENABLED"),
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			Region:    v.GetString("STORAGE_REGION"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
			Prefix:    v.GetString("STORAGE_PREFIX"),
		},
		Drive: DriveConfig{
			CredentialsFile: v.GetString("DRIVE_CREDENTIALS_FILE"),
			FolderID:        v.GetString("DRIVE_FOLDER_ID"),
		},
	}
}

func ensureDir(dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
