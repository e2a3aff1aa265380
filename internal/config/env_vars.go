package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-chat-portal/internal/utils"
)

const (
	portEnvVar            = "PORT"
	appNameEnvVar         = "APP_NAME"
	envEnvVar             = "ENV"
	logLevelEnvVar        = "LOG_LEVEL"
	apiURLEnvVar          = "API_URL"
	publicAPIURLEnvVar    = "NEXT_PUBLIC_API_URL"
	authSecretEnvVar      = "AUTH_SECRET"
	sessionMaxAgeEnvVar   = "SESSION_MAX_AGE"
	sessionUpdateEnvVar   = "SESSION_UPDATE_AGE"
	exchangeTimeoutEnvVar = "EXCHANGE_TIMEOUT"
	loginRateLimitEnvVar  = "LOGIN_RATE_LIMIT"
	profileCacheEnvVar    = "PROFILE_CACHE_TTL"
	allowedOriginsEnvVar  = "ALLOWED_ORIGINS"
)

// EnvNames lists every environment variable FromEnv consults, in the order
// they are documented.
var EnvNames = []string{
	portEnvVar, appNameEnvVar, envEnvVar, logLevelEnvVar,
	apiURLEnvVar, publicAPIURLEnvVar, authSecretEnvVar,
	sessionMaxAgeEnvVar, sessionUpdateEnvVar, exchangeTimeoutEnvVar,
	loginRateLimitEnvVar, profileCacheEnvVar, allowedOriginsEnvVar,
}

// FromEnv overlays environment variables on top of base.
func FromEnv(base Settings) Settings {
	s := base
	s.Port = GetEnv(portEnvVar, s.Port)
	s.AppName = GetEnv(appNameEnvVar, s.AppName)
	s.Env = GetEnv(envEnvVar, s.Env)
	s.LogLevel = GetEnv(logLevelEnvVar, s.LogLevel)
	s.APIURL = utils.FirstNonEmpty(os.Getenv(apiURLEnvVar), os.Getenv(publicAPIURLEnvVar), s.APIURL)
	s.AuthSecret = GetEnv(authSecretEnvVar, s.AuthSecret)
	s.SessionMaxAge = getEnvDuration(sessionMaxAgeEnvVar, s.SessionMaxAge)
	s.SessionUpdateAge = getEnvDuration(sessionUpdateEnvVar, s.SessionUpdateAge)
	s.ExchangeTimeout = getEnvDuration(exchangeTimeoutEnvVar, s.ExchangeTimeout)
	s.LoginRateLimit = getEnvInt(loginRateLimitEnvVar, s.LoginRateLimit)
	s.ProfileCacheTTL = getEnvDuration(profileCacheEnvVar, s.ProfileCacheTTL)
	if origins := GetEnv(allowedOriginsEnvVar, ""); origins != "" {
		s.AllowedOrigins = splitList(origins)
	}
	return s
}

func (s Settings) GetAddr() string {
	port := strings.TrimSpace(s.Port)
	if strings.Contains(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

func (s Settings) GetAppName() string {
	return s.AppName
}

func (s Settings) GetEnv() string {
	if s.Env == "" {
		return "DEV"
	}
	return s.Env
}

func (s Settings) GetLogLevel() string {
	return s.LogLevel
}

// GetAPIURL returns the external backend base URL without a trailing slash.
func (s Settings) GetAPIURL() string {
	return s.APIURL
}

// GetExchangeTimeout bounds each backend call. Zero means no timeout.
func (s Settings) GetExchangeTimeout() time.Duration {
	return s.ExchangeTimeout
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(envVar string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(envVar)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(envVar string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(envVar)); err == nil {
		return d
	}
	return defaultValue
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
