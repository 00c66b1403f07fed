package config

import "time"

const (
	tokenSecretEnvVar   = "TOKEN_SECRET"
	tokenExpiryEnvVar   = "TOKEN_EXPIRY"
	otpTTLEnvVar        = "OTP_TTL"
	otpRateEnvVar       = "OTP_RATE_PER_MINUTE"
	seedDemoDataEnvVar  = "SEED_DEMO_DATA"
	devTokenSecret      = "dev-only-storefront-secret"
	defaultTokenExpiry  = 24 * time.Hour
	defaultOTPTTL       = 5 * time.Minute
	defaultOTPPerMinute = 3
)

type Server struct{}

var _ ServerConfig = Server{}

// GetTokenSecret returns the HMAC secret for access tokens. Outside DEV there is
// no default.
func (Server) GetTokenSecret() string {
	if (EnvVars{}).IsDev() {
		return GetEnv(tokenSecretEnvVar, devTokenSecret)
	}
	return GetEnv(tokenSecretEnvVar, "")
}

func (Server) GetTokenExpiry() time.Duration {
	return GetEnvDuration(tokenExpiryEnvVar, defaultTokenExpiry)
}

func (Server) GetOTPTTL() time.Duration {
	return GetEnvDuration(otpTTLEnvVar, defaultOTPTTL)
}

func (Server) GetOTPRatePerMinute() int {
	return GetEnvInt(otpRateEnvVar, defaultOTPPerMinute)
}

func (Server) GetSeedDemoData() bool {
	return GetEnvBool(seedDemoDataEnvVar, (EnvVars{}).IsDev())
}
