package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Qzone     QzoneConfig
	Cookies   CookiesConfig
	Database  DatabaseConfig
	Server    ServerConfig
	Archiver  ArchiverConfig
	Logging   LoggingConfig
	Telemetry TelemetryConfig
}

// QzoneConfig holds the upstream service endpoints and transport limits
type QzoneConfig struct {
	ListURL           string
	DetailURL         string
	LikesURL          string
	PicturesURL       string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	PageSize          int
}

// CookiesConfig says where the session cookies come from. The first
// non-empty source wins, in field order.
type CookiesConfig struct {
	Header     string
	CurlFile   string
	CookieFile string
}

// DatabaseConfig holds archive database configuration
type DatabaseConfig struct {
	URL     string
	Enabled bool
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int
	Host string
}

// ArchiverConfig holds archive run configuration
type ArchiverConfig struct {
	TargetUIN string
	Pages     int
	Hydrate   string // "none", "unloaded" or "all"
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string
	Format       string // "json" or "text"
	ScalyrFormat bool   // Enable Scalyr-compatible JSON format
}

// TelemetryConfig holds observability configuration
type TelemetryConfig struct {
	Enabled           bool
	JaegerURL         string
	PrometheusEnabled bool
	ServiceName       string
}

// Hydration modes
const (
	HydrateNone     = "none"
	HydrateUnloaded = "unloaded"
	HydrateAll      = "all"
)

const envPrefix = "QZA"

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	setDefaults()

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.qzarchive")
	viper.AddConfigPath("/etc/qzarchive")

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found; this is OK if we have env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Qzone: QzoneConfig{
			ListURL:           getString("list_url", defaultListURL),
			DetailURL:         getString("detail_url", defaultDetailURL),
			LikesURL:          getString("likes_url", defaultLikesURL),
			PicturesURL:       getString("pictures_url", defaultPicturesURL),
			UserAgent:         getString("user_agent", defaultUserAgent),
			Timeout:           getDuration("timeout", 30*time.Second),
			RequestsPerSecond: getFloat("requests_per_second", 2),
			PageSize:          getInt("page_size", 20),
		},
		Cookies: CookiesConfig{
			Header:     getString("cookie", ""),
			CurlFile:   getString("curl_file", ""),
			CookieFile: getString("cookie_file", ""),
		},
		Database: DatabaseConfig{
			URL:     getString("database_url", ""),
			Enabled: getString("database_url", "") != "",
		},
		Server: ServerConfig{
			Port: getInt("http_server_port", 8080),
			Host: getString("http_server_host", "0.0.0.0"),
		},
		Archiver: ArchiverConfig{
			TargetUIN: getString("target_uin", ""),
			Pages:     getInt("pages", 1),
			Hydrate:   strings.ToLower(getString("hydrate", HydrateUnloaded)),
		},
		Logging: LoggingConfig{
			Level:        getString("log_level", "INFO"),
			Format:       getString("log_format", "json"),
			ScalyrFormat: getBool("log_scalyr_format", false),
		},
		Telemetry: TelemetryConfig{
			Enabled:           getBool("telemetry_enabled", false),
			JaegerURL:         getString("jaeger_url", ""),
			PrometheusEnabled: getBool("prometheus_enabled", true),
			ServiceName:       getString("service_name", "qzarchive"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

const (
	defaultListURL     = "https://h5.qzone.qq.com/proxy/domain/taotao.qq.com/cgi-bin/emotion_cgi_msglist_v6"
	defaultDetailURL   = "https://h5.qzone.qq.com/proxy/domain/taotao.qq.com/cgi-bin/emotion_cgi_msgdetail_v6"
	defaultLikesURL    = "https://users.qzone.qq.com/cgi-bin/likes/get_like_list_app"
	defaultPicturesURL = "https://h5.qzone.qq.com/proxy/domain/taotao.qq.com/cgi-bin/emotion_cgi_get_pics_v6"
	defaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; WOW64; rv:49.0) Gecko/20100101 Firefox/49.0"
)

func setDefaults() {
	viper.SetDefault("list_url", defaultListURL)
	viper.SetDefault("detail_url", defaultDetailURL)
	viper.SetDefault("likes_url", defaultLikesURL)
	viper.SetDefault("pictures_url", defaultPicturesURL)
	viper.SetDefault("user_agent", defaultUserAgent)
	viper.SetDefault("timeout", "30s")
	viper.SetDefault("requests_per_second", 2)
	viper.SetDefault("page_size", 20)
	viper.SetDefault("http_server_port", 8080)
	viper.SetDefault("http_server_host", "0.0.0.0")
	viper.SetDefault("pages", 1)
	viper.SetDefault("hydrate", HydrateUnloaded)
	viper.SetDefault("log_level", "INFO")
	viper.SetDefault("log_format", "json")
	viper.SetDefault("log_scalyr_format", false)
	viper.SetDefault("telemetry_enabled", false)
	viper.SetDefault("prometheus_enabled", true)
	viper.SetDefault("service_name", "qzarchive")
}

func getString(key, defaultValue string) string {
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	// Also check environment variable directly
	if val := os.Getenv(envPrefix + "_" + toEnvKey(key)); val != "" {
		return val
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	if val := os.Getenv(envPrefix + "_" + toEnvKey(key)); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if viper.IsSet(key) {
		return viper.GetFloat64(key)
	}
	if val := os.Getenv(envPrefix + "_" + toEnvKey(key)); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	if val := os.Getenv(envPrefix + "_" + toEnvKey(key)); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if viper.IsSet(key) {
		return viper.GetDuration(key)
	}
	if val := os.Getenv(envPrefix + "_" + toEnvKey(key)); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultValue
}

// toEnvKey converts a config key such as "log_level" to LOG_LEVEL
func toEnvKey(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// Validate validates the configuration
func (c *Config) Validate() error {
	for name, u := range map[string]string{
		"list_url":     c.Qzone.ListURL,
		"detail_url":   c.Qzone.DetailURL,
		"likes_url":    c.Qzone.LikesURL,
		"pictures_url": c.Qzone.PicturesURL,
	} {
		if u == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	if c.Qzone.PageSize <= 0 || c.Qzone.PageSize > 100 {
		return fmt.Errorf("page_size must be between 1 and 100")
	}
	if c.Qzone.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative")
	}
	if c.Qzone.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Archiver.Pages <= 0 || c.Archiver.Pages > 1000 {
		return fmt.Errorf("pages must be between 1 and 1000")
	}
	switch c.Archiver.Hydrate {
	case HydrateNone, HydrateUnloaded, HydrateAll:
	default:
		return fmt.Errorf("hydrate must be one of none, unloaded, all")
	}
	return nil
}
