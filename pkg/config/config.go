package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Log         struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
		// Collector ships aggregated error logs to Kafka.
		Collector struct {
			Enabled        bool          `yaml:"enabled"`
			Topic          string        `yaml:"topic"`
			Interval       time.Duration `yaml:"interval"`
			CountThreshold int           `yaml:"count_threshold"`
		} `yaml:"collector"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		SlowThreshold   time.Duration `yaml:"slow_threshold"`
		// RateLimit is a per-client token bucket on the predict and train routes.
		RateLimit struct {
			Capacity     float64 `yaml:"capacity"`
			RefillPerSec float64 `yaml:"refill_per_sec"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Data struct {
		PriceFile     string `yaml:"price_file"`
		SentimentFile string `yaml:"sentiment_file"`
	} `yaml:"data"`
	Artifacts struct {
		Dir        string `yaml:"dir"`
		ModelFile  string `yaml:"model_file"`
		ScalerFile string `yaml:"scaler_file"`
		ReportFile string `yaml:"report_file"`
	} `yaml:"artifacts"`
	Model struct {
		Estimator  string  `yaml:"estimator"` // forest | linear
		Trees      int     `yaml:"trees"`
		MaxDepth   int     `yaml:"max_depth"`
		MinSplit   int     `yaml:"min_split"`
		Seed       int64   `yaml:"seed"`
		TrainRatio float64 `yaml:"train_ratio"`
		Ridge      float64 `yaml:"ridge"`
	} `yaml:"model"`
	Forecast struct {
		DefaultDays int `yaml:"default_days"`
		MaxDays     int `yaml:"max_days"`
	} `yaml:"forecast"`
	News struct {
		BaseURL  string        `yaml:"base_url"`
		Token    string        `yaml:"token"`
		Currency string        `yaml:"currency"`
		Limit    int           `yaml:"limit"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"news"`
	LLM struct {
		BaseURL     string        `yaml:"base_url"`
		APIKey      string        `yaml:"api_key"`
		Model       string        `yaml:"model"`
		Temperature float64       `yaml:"temperature"`
		MaxTokens   int           `yaml:"max_tokens"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"llm"`
	Cache struct {
		Backend string        `yaml:"backend"` // memory | redis
		NewsTTL time.Duration `yaml:"news_ttl"`
		LockTTL time.Duration `yaml:"lock_ttl"`
		// In-process store, also the L1 in front of Redis.
		MaxEntries      int           `yaml:"max_entries"`
		CleanupInterval time.Duration `yaml:"cleanup_interval"`
		Redis           struct {
			Host         string        `yaml:"host"`
			Port         int           `yaml:"port"`
			Password     string        `yaml:"password"`
			DB           int           `yaml:"db"`
			Prefix       string        `yaml:"prefix"`
			PoolSize     int           `yaml:"pool_size"`
			MinIdleConns int           `yaml:"min_idle_conns"`
			PoolTimeout  time.Duration `yaml:"pool_timeout"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Recorder struct {
		Backend string `yaml:"backend"` // none | sqlite | postgres | clickhouse
		DSN     string `yaml:"dsn"`     // sqlite path or postgres URL
	} `yaml:"recorder"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled       bool     `yaml:"enabled"`
		Brokers       []string `yaml:"brokers"`
		ForecastTopic string   `yaml:"forecast_topic"`
		TrainingTopic string   `yaml:"training_topic"`
		RequiredAcks  int      `yaml:"required_acks"`
		Compression   string   `yaml:"compression"`
		Producer      struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Schedule struct {
		RetrainCron string `yaml:"retrain_cron"`
	} `yaml:"schedule"`
}

// Load reads and parses a YAML configuration file, filling unset values with defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, applies defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PRICE_FILE"); v != "" {
		c.Data.PriceFile = v
	}
	if v := os.Getenv("SENTIMENT_FILE"); v != "" {
		c.Data.SentimentFile = v
	}
	if v := os.Getenv("CRYPTOPANIC_API_TOKEN"); v != "" {
		c.News.Token = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	} else if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	} else if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("RECORDER_DSN"); v != "" {
		c.Recorder.DSN = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}
}

// Default returns a configuration usable for local runs without any file.
func Default() *Config {
	c := &Config{Environment: "local"}
	c.Log.Level = "info"
	c.Log.Format = "console"
	c.Log.Output = "stdout"
	c.Log.Collector.Topic = "pricecast.logs"
	c.Log.Collector.Interval = 30 * time.Second
	c.Log.Collector.CountThreshold = 100

	c.Server.Port = 3000
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 30 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Server.SlowThreshold = 2 * time.Second
	c.Server.RateLimit.Capacity = 10
	c.Server.RateLimit.RefillPerSec = 0.5
	c.Metrics.Enabled = true
	c.Metrics.Path = "/metrics"

	c.Data.PriceFile = "data/reversed_bitcoin_data.csv"
	c.Data.SentimentFile = "data/sentiment_scores.csv"

	c.Artifacts.Dir = "models"
	c.Artifacts.ModelFile = "crypto_model.json"
	c.Artifacts.ScalerFile = "price_scaler.json"
	c.Artifacts.ReportFile = "prediction_results.json"

	c.Model.Estimator = "forest"
	c.Model.Trees = 100
	c.Model.MaxDepth = 10
	c.Model.MinSplit = 2
	c.Model.Seed = 42
	c.Model.TrainRatio = 0.8
	c.Model.Ridge = 1e-6

	c.Forecast.DefaultDays = 7
	c.Forecast.MaxDays = 30

	c.News.BaseURL = "https://cryptopanic.com/api/v1"
	c.News.Currency = "BTC"
	c.News.Limit = 10
	c.News.Timeout = 10 * time.Second

	c.LLM.BaseURL = "https://api.deepseek.com"
	c.LLM.Model = "deepseek-chat"
	c.LLM.Temperature = 0.1
	c.LLM.MaxTokens = 10
	c.LLM.Timeout = 30 * time.Second

	c.Cache.Backend = "memory"
	c.Cache.NewsTTL = 10 * time.Minute
	c.Cache.LockTTL = 30 * time.Minute
	c.Cache.MaxEntries = 1000
	c.Cache.CleanupInterval = 5 * time.Minute
	c.Cache.Redis.Host = "localhost"
	c.Cache.Redis.Port = 6379
	c.Cache.Redis.Prefix = "pricecast"
	c.Cache.Redis.PoolSize = 10
	c.Cache.Redis.MinIdleConns = 2
	c.Cache.Redis.PoolTimeout = 30 * time.Second

	c.Recorder.Backend = "none"

	c.ClickHouse.Port = 9000
	c.ClickHouse.Database = "pricecast"
	c.ClickHouse.DialTimeout = 5 * time.Second
	c.ClickHouse.ReadTimeout = 10 * time.Second
	c.ClickHouse.WriteTimeout = 10 * time.Second

	c.Kafka.ForecastTopic = "pricecast.forecasts"
	c.Kafka.TrainingTopic = "pricecast.training"
	c.Kafka.RequiredAcks = -1
	c.Kafka.Compression = "gzip"
	c.Kafka.Producer.MaxAttempts = 3
	c.Kafka.Producer.Linger = time.Second
	c.Kafka.Producer.BatchBytes = 1048576
	c.Kafka.Producer.BatchSize = 100
	c.Kafka.Producer.WriteTimeout = 10 * time.Second
	c.Kafka.Producer.ReadTimeout = 10 * time.Second

	c.Schedule.RetrainCron = ""
	return c
}

// ModelPath returns the full path of the persisted estimator.
func (c *Config) ModelPath() string { return filepath.Join(c.Artifacts.Dir, c.Artifacts.ModelFile) }

// ScalerPath returns the full path of the persisted scaler.
func (c *Config) ScalerPath() string { return filepath.Join(c.Artifacts.Dir, c.Artifacts.ScalerFile) }

// ReportPath returns the full path of the evaluation report.
func (c *Config) ReportPath() string { return filepath.Join(c.Artifacts.Dir, c.Artifacts.ReportFile) }

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Data.PriceFile == "" || c.Data.SentimentFile == "" {
		return fmt.Errorf("data.price_file and data.sentiment_file are required")
	}
	if c.Artifacts.Dir == "" {
		return fmt.Errorf("artifacts.dir is required")
	}
	switch c.Model.Estimator {
	case "forest", "linear":
	default:
		return fmt.Errorf("model.estimator must be 'forest' or 'linear', got '%s'", c.Model.Estimator)
	}
	if c.Model.TrainRatio <= 0 || c.Model.TrainRatio >= 1 {
		return fmt.Errorf("model.train_ratio must be in (0,1), got %v", c.Model.TrainRatio)
	}
	if c.Forecast.DefaultDays < 1 || c.Forecast.MaxDays < c.Forecast.DefaultDays {
		return fmt.Errorf("forecast.default_days must be >= 1 and <= forecast.max_days")
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("cache.backend must be 'memory' or 'redis', got '%s'", c.Cache.Backend)
	}
	if c.Cache.MaxEntries < 1 || c.Cache.CleanupInterval <= 0 {
		return fmt.Errorf("cache.max_entries and cache.cleanup_interval must be positive")
	}
	switch c.Recorder.Backend {
	case "none", "clickhouse":
	case "sqlite", "postgres":
		if c.Recorder.DSN == "" {
			return fmt.Errorf("recorder.dsn is required for backend '%s'", c.Recorder.Backend)
		}
	default:
		return fmt.Errorf("recorder.backend must be one of none|sqlite|postgres|clickhouse, got '%s'", c.Recorder.Backend)
	}
	if c.Recorder.Backend == "clickhouse" && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required for the clickhouse recorder")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Log.Collector.Enabled && !c.Kafka.Enabled {
		return fmt.Errorf("log.collector requires kafka.enabled")
	}
	return nil
}
