package config

import (
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/flagx"
	"github.com/joho/godotenv"
)

// Environment variables read by parseEnv.
const (
	EnvAddr           = "PORTFOLIO_ADDR"
	EnvDatabaseDSN    = "PORTFOLIO_DATABASE_DSN"
	EnvSecretKey      = "PORTFOLIO_SECRET_KEY"
	EnvSessionMaxAge  = "PORTFOLIO_SESSION_MAX_AGE"
	EnvCookieSecure   = "PORTFOLIO_COOKIE_SECURE"
	EnvS3User         = "PORTFOLIO_S3_USER"
	EnvS3Password     = "PORTFOLIO_S3_PASSWORD"
	EnvS3Bucket       = "PORTFOLIO_S3_BUCKET"
	EnvS3Region       = "PORTFOLIO_S3_REGION"
	EnvS3Endpoint     = "PORTFOLIO_S3_ENDPOINT"
	EnvS3PublicURL    = "PORTFOLIO_S3_PUBLIC_URL"
	EnvLogBackend     = "PORTFOLIO_LOG_BACKEND"
	EnvLogLevel       = "PORTFOLIO_LOG_LEVEL"
	defaultDotenvFile = ".env"
)

// loadDotenv is a seam for godotenv.Load.
var loadDotenv = godotenv.Load

// parseEnv loads a dotenv file (the -env flag, or ./.env if present) into
// the process environment without overriding variables that are already
// set, then copies the PORTFOLIO_* variables into config.
//
// A missing default .env is not an error; a missing explicit -env file or
// a malformed duration/boolean value panics, like the other loaders.
func parseEnv(config *Config) {
	if path := flagx.EnvFileFlags(); path != "" {
		if err := loadDotenv(path); err != nil {
			panic(err)
		}
	} else if _, err := os.Stat(defaultDotenvFile); err == nil {
		if err := loadDotenv(defaultDotenvFile); err != nil {
			panic(err)
		}
	}

	setString(&config.EndpointAddrHTTP, EnvAddr)
	setString(&config.DatabaseDSN, EnvDatabaseDSN)
	setString(&config.SecretKey, EnvSecretKey)
	setString(&config.S3RootUser, EnvS3User)
	setString(&config.S3RootPassword, EnvS3Password)
	setString(&config.S3Bucket, EnvS3Bucket)
	setString(&config.S3Region, EnvS3Region)
	setString(&config.S3BaseEndpoint, EnvS3Endpoint)
	setString(&config.S3PublicURL, EnvS3PublicURL)
	setString(&config.LogBackend, EnvLogBackend)
	setString(&config.LogLevel, EnvLogLevel)

	if v, ok := os.LookupEnv(EnvSessionMaxAge); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		config.SessionMaxAge = d
	}

	if v, ok := os.LookupEnv(EnvCookieSecure); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		config.CookieSecure = b
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}
