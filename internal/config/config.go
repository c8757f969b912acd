package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ReorderTransaction = "transaction"
	ReorderIndependent = "independent"
)

type ServerConfig struct {
	Address string `yaml:"address"`
}

type DBConfig struct {
	DSN                string        `yaml:"dsn"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	SlowQueryThreshold time.Duration `yaml:"slow_query_threshold"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type PriorityConfig struct {
	ReorderStrategy string `yaml:"reorder_strategy"`
}

type RectificationConfig struct {
	TaskTitle  string        `yaml:"task_title"`
	TaskWindow time.Duration `yaml:"task_window"`
}

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	DB            DBConfig            `yaml:"db"`
	JWT           JWTConfig           `yaml:"jwt"`
	Log           LogConfig           `yaml:"log"`
	Priority      PriorityConfig      `yaml:"priority"`
	Rectification RectificationConfig `yaml:"rectification"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{Address: "0.0.0.0:8080"},
		DB: DBConfig{
			MaxOpenConns:       10,
			SlowQueryThreshold: 100 * time.Millisecond,
		},
		Log:      LogConfig{Level: "info"},
		Priority: PriorityConfig{ReorderStrategy: ReorderTransaction},
		Rectification: RectificationConfig{
			TaskTitle:  "Rectification Work",
			TaskWindow: 7 * 24 * time.Hour,
		},
	}
}

// Load читает yaml поверх значений по умолчанию и применяет переменные окружения.
// Отсутствующий файл не ошибка.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to decode %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	OverrideFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OverrideFromEnv переменные окружения имеют наивысший приоритет
func OverrideFromEnv(cfg *Config) {
	if addr := os.Getenv("SERVER_ADDRESS"); addr != "" {
		cfg.Server.Address = addr
	}
	if dsn := os.Getenv("POSTGRES_CONN"); dsn != "" {
		cfg.DB.DSN = dsn
	}
	if n := os.Getenv("DB_MAX_OPEN_CONNS"); n != "" {
		if v, err := strconv.Atoi(n); err == nil {
			cfg.DB.MaxOpenConns = v
		}
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if strategy := os.Getenv("PRIORITY_REORDER_STRATEGY"); strategy != "" {
		cfg.Priority.ReorderStrategy = strategy
	}
}

func (c *Config) Validate() error {
	if c.DB.DSN == "" {
		return errors.New("db.dsn is not set (POSTGRES_CONN)")
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is not set (JWT_SECRET)")
	}
	switch c.Priority.ReorderStrategy {
	case ReorderTransaction, ReorderIndependent:
	default:
		return fmt.Errorf("unknown priority.reorder_strategy %q", c.Priority.ReorderStrategy)
	}
	if c.Rectification.TaskWindow <= 0 {
		return errors.New("rectification.task_window must be positive")
	}
	if c.Rectification.TaskTitle == "" {
		return errors.New("rectification.task_title must not be empty")
	}
	return nil
}
