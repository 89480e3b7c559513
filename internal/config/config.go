package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const defaultConfigPath = "config/local.yaml"

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"local"`
	Storage    Storage    `yaml:"storage"`
	RedisAddr  string     `yaml:"redis_addr" env:"REDIS_ADDR"`
	Auth       Auth       `yaml:"auth"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Attendance Attendance `yaml:"attendance"`
}

type Storage struct {
	Driver  string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
	DSN     string `yaml:"dsn" env:"STORAGE_DSN"`
	Migrate bool   `yaml:"migrate" env:"STORAGE_MIGRATE" env-default:"true"`
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

type Attendance struct {
	MaxPageSize     int           `yaml:"max_page_size" env-default:"500"`
	FinalizeLockTTL time.Duration `yaml:"finalize_lock_ttl" env-default:"30s"`
}

// MustLoad reads the config file named by CONFIG_PATH. A .env file, if present,
// is loaded first so it can set CONFIG_PATH and secrets.
func MustLoad() *Config {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	return MustLoadPath(configPath)
}

func MustLoadPath(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	return cfg
}

func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, &os.PathError{Op: "stat", Path: configPath, Err: os.ErrNotExist}
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}

	if cfg.Storage.Driver == "postgres" && cfg.Storage.DSN == "" {
		return nil, errMissingDSN
	}

	return &cfg, nil
}
