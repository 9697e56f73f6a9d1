package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	SIEM      SIEMConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	URL            string
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type SIEMConfig struct {
	BaseURL        string
	APIKey         string
	VerifySSL      bool
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
	RateLimit      float64
}

type SchedulerConfig struct {
	WorkerCount     int
	SourceSyncEvery time.Duration
	SlaSnapshotAt   time.Duration
	OutboxDrainAt   time.Duration
	SlaWindowDays   int
}

func Load() (*Config, error) {
	// .env is optional, real deployments set the environment directly.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.SetEnvPrefix("SOCLINK")
	viper.AutomaticEnv()

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.migrationspath", "migrations")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("auth.accesstokenttl", "15m")
	viper.SetDefault("auth.refreshtokenttl", "168h")
	viper.SetDefault("siem.verifyssl", true)
	viper.SetDefault("siem.requesttimeout", "30s")
	viper.SetDefault("siem.connecttimeout", "10s")
	viper.SetDefault("siem.ratelimit", 10.0)
	viper.SetDefault("scheduler.workercount", 5)
	viper.SetDefault("scheduler.sourcesyncevery", "5m")
	viper.SetDefault("scheduler.slasnapshotat", "1h")
	viper.SetDefault("scheduler.outboxdrainat", "1m")
	viper.SetDefault("scheduler.slawindowdays", 30)

	var cfg Config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if url := os.Getenv("SIEM_BASE_URL"); url != "" {
		cfg.SIEM.BaseURL = url
	}
	if key := os.Getenv("SIEM_API_KEY"); key != "" {
		cfg.SIEM.APIKey = key
	}

	return &cfg, nil
}
