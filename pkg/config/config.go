package config

import (
	"os"
	"strconv"
	"time"
)

// ServerConfig console 服务器配置
type ServerConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

// APIConfig 上游 REST API 配置
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MQConfig 消息队列配置
type MQConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

// SessionConfig console 会话配置
type SessionConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	CookieName string        `yaml:"cookie_name"`
}

// PollConfig 轮询配置
type PollConfig struct {
	Interval      time.Duration `yaml:"interval"`
	TickTimeout   time.Duration `yaml:"tick_timeout"`
	ActivityScope string        `yaml:"activity_scope"` // all / project:<id> / task:<id>
	DedupTTL      time.Duration `yaml:"dedup_ttl"`      // 已广播标记的保留时间
}

// BreakerConfig 上游熔断配置
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	SuccessThreshold int           `yaml:"success_threshold"`
	Timeout          time.Duration `yaml:"timeout"`
}

// OtelConfig OpenTelemetry 配置
type OtelConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// OverrideAPIFromEnv 从环境变量覆盖上游 API 配置
func OverrideAPIFromEnv(cfg *APIConfig) {
	if url := os.Getenv("API_BASE_URL"); url != "" {
		cfg.BaseURL = url
	}
	if timeout := os.Getenv("API_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.Timeout = d
		}
	}
}

// OverrideMQFromEnv 从环境变量覆盖MQ配置
func OverrideMQFromEnv(cfg *MQConfig) {
	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.URL = url
	}
}

// OverrideRedisFromEnv 从环境变量覆盖Redis配置
func OverrideRedisFromEnv(cfg *RedisConfig) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			cfg.DB = n
		}
	}
}

// OverrideServerFromEnv 从环境变量覆盖服务器配置
func OverrideServerFromEnv(cfg *ServerConfig) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
}

// OverridePollFromEnv 从环境变量覆盖轮询配置
func OverridePollFromEnv(cfg *PollConfig) {
	if interval := os.Getenv("POLL_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			cfg.Interval = d
		}
	}
	if scope := os.Getenv("POLL_ACTIVITY_SCOPE"); scope != "" {
		cfg.ActivityScope = scope
	}
}

// OverrideOtelFromEnv 从环境变量覆盖 OpenTelemetry 配置
func OverrideOtelFromEnv(cfg *OtelConfig) {
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		cfg.Endpoint = endpoint
		cfg.Enabled = true
	}
	if ratio := os.Getenv("OTEL_SAMPLE_RATIO"); ratio != "" {
		if r, err := strconv.ParseFloat(ratio, 64); err == nil {
			cfg.SampleRatio = r
		}
	}
}
