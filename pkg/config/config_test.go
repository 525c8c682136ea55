package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\nmodel:\n  estimator: linear\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Model.Estimator != "linear" {
		t.Fatalf("estimator = %q", c.Model.Estimator)
	}
	if c.Model.Trees != 100 || c.Model.MaxDepth != 10 || c.Model.Seed != 42 {
		t.Fatalf("forest defaults lost: %+v", c.Model)
	}
	if c.Forecast.DefaultDays != 7 || c.Forecast.MaxDays != 30 {
		t.Fatalf("forecast defaults = %+v", c.Forecast)
	}
	if c.Cache.NewsTTL != 10*time.Minute {
		t.Fatalf("news ttl = %v", c.Cache.NewsTTL)
	}
	if c.Cache.MaxEntries != 1000 || c.Cache.Redis.PoolSize != 10 || c.Cache.Redis.PoolTimeout != 30*time.Second {
		t.Fatalf("cache pool defaults = %+v", c.Cache)
	}
	if got := c.ModelPath(); got != filepath.Join("models", "crypto_model.json") {
		t.Fatalf("model path = %s", got)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"bad estimator", "model:\n  estimator: xgboost\n", "model.estimator"},
		{"bad ratio", "model:\n  train_ratio: 1.5\n", "train_ratio"},
		{"sqlite without dsn", "recorder:\n  backend: sqlite\n", "recorder.dsn"},
		{"clickhouse without host", "recorder:\n  backend: clickhouse\n", "clickhouse.host"},
		{"kafka without brokers", "kafka:\n  enabled: true\n", "kafka.brokers"},
		{"collector without kafka", "log:\n  collector:\n    enabled: true\n", "log.collector"},
		{"bad cache", "cache:\n  backend: memcached\n", "cache.backend"},
		{"horizon", "forecast:\n  default_days: 40\n", "forecast.default_days"},
		{"cache cleanup", "cache:\n  cleanup_interval: -1s\n", "cache.cleanup_interval"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestLoadWithEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("environment: test\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("PRICE_FILE", "/data/prices.csv")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Data.PriceFile != "/data/prices.csv" {
		t.Fatalf("price file = %s", c.Data.PriceFile)
	}
	if c.LLM.APIKey != "sk-test" {
		t.Fatalf("api key fallback = %q", c.LLM.APIKey)
	}
	if len(c.Kafka.Brokers) != 2 || c.Kafka.Brokers[1] != "b:9092" {
		t.Fatalf("brokers = %v", c.Kafka.Brokers)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
