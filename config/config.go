package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	SessionBackendPostgres = "postgres"
	SessionBackendRedis    = "redis"

	MQBackendNone     = "none"
	MQBackendRabbitMQ = "rabbitmq"
	MQBackendPubSub   = "pubsub"
)

type Config struct {
	ServerPort   int            `yaml:"server_port"`
	ClientOrigin string         `yaml:"client_origin"`
	StoreDriver  string         `yaml:"store_driver"`
	Database     DatabaseConfig `yaml:"database"`
	Session      SessionConfig  `yaml:"session"`
	Redis        RedisConfig    `yaml:"redis"`
	NewsAPI      NewsAPIConfig  `yaml:"news_api"`
	MQ           MQConfig       `yaml:"mq"`
	Log          LogConfig      `yaml:"log"`
}

type DatabaseConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	DBName        string `yaml:"dbname"`
	UseSSL        bool   `yaml:"use_ssl"`
	MigrationsDir string `yaml:"migrations_dir"`
}

type SessionConfig struct {
	Name       string        `yaml:"name"`
	Secret     string        `yaml:"secret"`
	TTL        time.Duration `yaml:"ttl"`
	Backend    string        `yaml:"backend"`
	TrustProxy bool          `yaml:"trust_proxy"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type NewsAPIConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

type MQConfig struct {
	Backend  string         `yaml:"backend"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	PubSub   PubSubConfig   `yaml:"pubsub"`
}

type RabbitMQConfig struct {
	URL             string `yaml:"url"`
	QueueDurable    bool   `yaml:"queue_durable"`
	QueueAutoDelete bool   `yaml:"queue_auto_delete"`
}

type PubSubConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig builds the configuration from defaults, an optional YAML file and
// the environment, in increasing order of precedence.
func LoadConfig(path string) (Config, error) {
	if os.Getenv("ENV") == "dev" {
		_ = godotenv.Load()
	}

	cfg := defaults()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		ServerPort:   8080,
		ClientOrigin: "http://localhost:5173",
		StoreDriver:  StoreDriverPostgres,
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          5432,
			User:          "newshub",
			Password:      "password",
			DBName:        "newshub_db",
			MigrationsDir: "internal/db/migrations",
		},
		Session: SessionConfig{
			Name:    "sid",
			TTL:     7 * 24 * time.Hour,
			Backend: SessionBackendPostgres,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		NewsAPI: NewsAPIConfig{
			BaseURL: "https://newsapi.org",
			Timeout: 10 * time.Second,
		},
		MQ: MQConfig{
			Backend: MQBackendNone,
			RabbitMQ: RabbitMQConfig{
				QueueDurable: true,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func (c *Config) applyEnv() {
	c.ServerPort = getEnvInt("SERVER_PORT", c.ServerPort)
	c.ClientOrigin = getEnv("CLIENT_ORIGIN", c.ClientOrigin)
	c.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", c.StoreDriver))

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvInt("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.DBName = getEnv("DB_NAME", c.Database.DBName)
	c.Database.UseSSL = getEnvBool("DB_SSL", c.Database.UseSSL)
	c.Database.MigrationsDir = getEnv("MIGRATIONS_DIR", c.Database.MigrationsDir)

	c.Session.Name = getEnv("SESSION_NAME", c.Session.Name)
	c.Session.Secret = getEnv("SESSION_SECRET", c.Session.Secret)
	if days := getEnvInt("SESSION_TTL_DAYS", 0); days > 0 {
		c.Session.TTL = time.Duration(days) * 24 * time.Hour
	}
	c.Session.Backend = strings.ToLower(getEnv("SESSION_BACKEND", c.Session.Backend))
	c.Session.TrustProxy = getEnvBool("TRUST_PROXY", c.Session.TrustProxy)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)

	c.NewsAPI.BaseURL = getEnv("NEWS_API_BASE", c.NewsAPI.BaseURL)
	c.NewsAPI.APIKey = getEnv("NEWS_API_KEY", c.NewsAPI.APIKey)
	c.NewsAPI.Timeout = getEnvDuration("NEWS_API_TIMEOUT", c.NewsAPI.Timeout)

	c.MQ.Backend = strings.ToLower(getEnv("MQ_BACKEND", c.MQ.Backend))
	c.MQ.RabbitMQ.URL = getEnv("RABBITMQ_URL", c.MQ.RabbitMQ.URL)
	c.MQ.RabbitMQ.QueueDurable = getEnvBool("RABBITMQ_QUEUE_DURABLE", c.MQ.RabbitMQ.QueueDurable)
	c.MQ.PubSub.ProjectID = getEnv("PUBSUB_PROJECT_ID", c.MQ.PubSub.ProjectID)
	c.MQ.PubSub.CredentialsFile = getEnv("PUBSUB_CREDENTIALS_FILE", c.MQ.PubSub.CredentialsFile)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// Validate reports configuration errors that would prevent the server from starting.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Session.Secret) == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session ttl must be positive"))
	}
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.StoreDriver))
	}
	switch c.Session.Backend {
	case SessionBackendPostgres, SessionBackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown session backend %q", c.Session.Backend))
	}
	switch c.MQ.Backend {
	case MQBackendNone, MQBackendRabbitMQ, MQBackendPubSub:
	default:
		errs = append(errs, fmt.Errorf("unknown mq backend %q", c.MQ.Backend))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.Atoi(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := time.ParseDuration(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}
