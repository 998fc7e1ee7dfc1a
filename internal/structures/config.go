package structures

import (
	"net/http"
	"time"
)

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
}

type Route struct {
	Url     string
	Handler http.Handler
}

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Persistence struct {
	Driver   string `yaml:"driver" validate:"required|in:file,sqlite"`
	FilePath string `yaml:"filePath" validate:"required|unixPath"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type LeetCodeConfig struct {
	BaseURL   string        `yaml:"baseURL" validate:"required|fullUrl"`
	Session   string        `yaml:"session"`
	CsrfToken string        `yaml:"csrfToken"`
	Username  string        `yaml:"username"`
	PageSize  int           `yaml:"pageSize" validate:"required|min:1|max:10000"`
	Timeout   time.Duration `yaml:"timeout" validate:"required|min:1"`
	UserAgent string        `yaml:"userAgent"`
}

type BreakerConfig struct {
	MaxRequests      uint32        `yaml:"maxRequests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold float64       `yaml:"failureThreshold"`
	MinRequests      uint32        `yaml:"minRequests"`
}

type SyncConfig struct {
	NavigationDelay time.Duration `yaml:"navigationDelay" validate:"required|min:1"`
	ProbeInterval   time.Duration `yaml:"probeInterval"`
	SyncOnStart     bool          `yaml:"syncOnStart"`
}

// BandConfig holds the inclusive upper bounds, in days, of the first three
// freshness bands. Anything older than ReviewSoonDays is stale.
type BandConfig struct {
	FreshDays      int `yaml:"freshDays" validate:"required|min:1"`
	GoodDays       int `yaml:"goodDays" validate:"required|min:1"`
	ReviewSoonDays int `yaml:"reviewSoonDays" validate:"required|min:1"`
}

// CacheConfig sizes the response cache. Size is in megabytes.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	WebServer   Server         `yaml:"webServer"`
	Persistence Persistence    `yaml:"persistence"`
	Logger      LoggerConfig   `yaml:"logger"`
	LeetCode    LeetCodeConfig `yaml:"leetcode"`
	Breaker     BreakerConfig  `yaml:"breaker"`
	Sync        SyncConfig     `yaml:"sync"`
	Bands       BandConfig     `yaml:"bands"`
	Cache       CacheConfig    `yaml:"cache"`
	Metrics     MetricsConfig  `yaml:"metrics"`
}
