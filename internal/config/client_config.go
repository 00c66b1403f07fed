package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	apiBaseURLEnvVar       = "API_BASE_URL"
	storefrontOriginEnvVar = "STOREFRONT_ORIGIN"
	sessionStoreEnvVar     = "SESSION_STORE"
	sessionFileEnvVar      = "SESSION_FILE"
	redisAddrEnvVar        = "REDIS_ADDR"
	sessionKeyEnvVar       = "SESSION_KEY"
	requestTimeoutEnvVar   = "REQUEST_TIMEOUT"

	SessionStoreFile   = "file"
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"
)

type Client struct{}

var _ ClientConfig = Client{}

func (Client) GetAPIBaseURL() string {
	return strings.TrimRight(GetEnv(apiBaseURLEnvVar, "http://localhost:8080/api/v1"), "/")
}

// GetStorefrontOrigin is the host the storefront is served from, e.g.
// shopname.platform.tld.
func (Client) GetStorefrontOrigin() string {
	return GetEnv(storefrontOriginEnvVar, "")
}

func (Client) GetSessionStore() string {
	switch store := strings.ToLower(GetEnv(sessionStoreEnvVar, SessionStoreFile)); store {
	case SessionStoreRedis, SessionStoreMemory:
		return store
	default:
		return SessionStoreFile
	}
}

func (Client) GetSessionFile() string {
	if f := os.Getenv(sessionFileEnvVar); f != "" {
		return f
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "storefront", "session.json")
}

func (Client) GetRedisAddr() string {
	return GetEnv(redisAddrEnvVar, "localhost:6379")
}

func (Client) GetSessionKey() string {
	return GetEnv(sessionKeyEnvVar, "storefront:session")
}

func (Client) GetRequestTimeout() time.Duration {
	return GetEnvDuration(requestTimeoutEnvVar, 15*time.Second)
}
