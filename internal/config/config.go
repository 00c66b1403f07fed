package config

import "time"

type Config interface {
	EnvConfig
	CorsConfig
	ServerConfig
	ClientConfig
	AnalyticsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	IsDev() bool
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

// ServerConfig configures the development backend.
type ServerConfig interface {
	GetTokenSecret() string
	GetTokenExpiry() time.Duration
	GetOTPTTL() time.Duration
	GetOTPRatePerMinute() int
	GetSeedDemoData() bool
}

// ClientConfig configures the storefront client.
type ClientConfig interface {
	GetAPIBaseURL() string
	GetStorefrontOrigin() string
	GetSessionStore() string
	GetSessionFile() string
	GetRedisAddr() string
	GetSessionKey() string
	GetRequestTimeout() time.Duration
}

type AnalyticsConfig interface {
	GetPixelBaseURL() string
	GetPixelAPIVersion() string
}

type mainConfig struct {
	EnvVars
	Cors
	Server
	Client
	Analytics
}

func New() Config {
	return mainConfig{}
}
