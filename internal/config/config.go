package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type UpstreamConfig struct {
	// BaseURL of the backend REST API. Empty falls back to the hardcoded
	// dev or prod default depending on Environment.
	BaseURL       string
	PublicTimeout time.Duration
}

type RedisConfig struct {
	// Addr empty means sessions live in process memory.
	Addr     string
	Password string
	DB       int
}

type SessionConfig struct {
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
}

type OAuthConfig struct {
	GoogleClientID   string
	RecaptchaSiteKey string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Upstream         UpstreamConfig
	Redis            RedisConfig
	Session          SessionConfig
	OAuth            OAuthConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("EVERMEDIA")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("upstream.baseurl", "")
	v.SetDefault("upstream.publictimeout", "8s")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("oauth.googleclientid", "")
	v.SetDefault("oauth.recaptchasitekey", "")

	v.SetDefault("session.ttl", "720h") // 30 days
	v.SetDefault("session.cookiename", "gw_sid")
	v.SetDefault("session.cookiesecure", false)
}
