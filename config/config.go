package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	ShopBox  ShopBoxConfig  `yaml:"shopbox"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	OutboundTopicName string `yaml:"outbound_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type ShopBoxConfig struct {
	HTTPAddr   string `yaml:"http_addr"`
	AppBaseURL string `yaml:"app_base_url"`

	AdminEmail        string `yaml:"admin_email"`
	AdminName         string `yaml:"admin_name"`
	AdminPassword     string `yaml:"admin_password"`
	SessionSecret     string `yaml:"session_secret"`
	SessionTTLSeconds int    `yaml:"session_ttl_seconds"`

	OrdersCacheTTLSeconds int `yaml:"orders_cache_ttl_seconds"`

	PixelID         string `yaml:"pixel_id"`
	CAPIBaseURL     string `yaml:"capi_base_url"`
	CAPIAccessToken string `yaml:"capi_access_token"`

	PushServerURL string `yaml:"push_server_url"`
	PushTopic     string `yaml:"push_topic"`

	WorkerHTTPAddr     string `yaml:"worker_http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`

	WorkerConcurrency            int `yaml:"worker_concurrency"`
	WorkerMaxAttempts            int `yaml:"worker_max_attempts"`
	WorkerBackoffSeconds         int `yaml:"worker_backoff_seconds"`
	WorkerRateLimitPushPerMinute int `yaml:"worker_rate_limit_push_per_minute"`
	WorkerRateLimitCAPIPerMinute int `yaml:"worker_rate_limit_capi_per_minute"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	config.applyEnvOverrides()
	return &config, nil
}

// Secrets may be injected via env instead of the config file; env wins.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SHOPBOX_ADMIN_PASSWORD"); v != "" {
		c.ShopBox.AdminPassword = v
	}
	if v := os.Getenv("SHOPBOX_SESSION_SECRET"); v != "" {
		c.ShopBox.SessionSecret = v
	}
	if v := os.Getenv("SHOPBOX_CAPI_ACCESS_TOKEN"); v != "" {
		c.ShopBox.CAPIAccessToken = v
	}
}
