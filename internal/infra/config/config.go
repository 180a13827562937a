package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddress string
	Environment string
	LogLevel    string

	DatabaseURL string

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	Issuer             string

	PasswordPepper  string
	ArgonMemoryKiB  uint32
	ArgonIterations uint32

	CookieDomain     string
	AllowedOrigins   []string
	AllowCredentials bool

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	S3Endpoint      string
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string
}

var keys = []string{
	"HTTP_ADDRESS", "ENVIRONMENT", "LOG_LEVEL",
	"DATABASE_URL",
	"ACCESS_TOKEN_SECRET", "REFRESH_TOKEN_SECRET",
	"ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "JWT_ISSUER",
	"PASSWORD_PEPPER", "ARGON_MEMORY_KIB", "ARGON_ITERATIONS",
	"COOKIE_DOMAIN", "ALLOWED_ORIGINS", "ALLOW_CREDENTIALS",
	"REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB",
	"S3_ENDPOINT", "S3_REGION", "S3_BUCKET",
	"S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_PUBLIC_BASE_URL",
}

func Load() (*Config, error) {
	viper.AutomaticEnv()
	for _, k := range keys {
		if err := viper.BindEnv(k); err != nil {
			return nil, err
		}
	}

	viper.SetDefault("HTTP_ADDRESS", ":8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "debug")
	viper.SetDefault("ACCESS_TOKEN_TTL", "1h")
	viper.SetDefault("REFRESH_TOKEN_TTL", "168h")
	viper.SetDefault("JWT_ISSUER", "user-service")
	viper.SetDefault("ARGON_MEMORY_KIB", 64*1024)
	viper.SetDefault("ARGON_ITERATIONS", 2)
	viper.SetDefault("ALLOW_CREDENTIALS", true)
	viper.SetDefault("S3_REGION", "us-east-1")

	for _, k := range []string{
		"DATABASE_URL",
		"ACCESS_TOKEN_SECRET", "REFRESH_TOKEN_SECRET",
		"S3_BUCKET", "S3_ACCESS_KEY", "S3_SECRET_KEY",
	} {
		if viper.GetString(k) == "" {
			return nil, fmt.Errorf("required environment variable %s is not set", k)
		}
	}

	cfg := &Config{
		HTTPAddress: viper.GetString("HTTP_ADDRESS"),
		Environment: viper.GetString("ENVIRONMENT"),
		LogLevel:    viper.GetString("LOG_LEVEL"),

		DatabaseURL: viper.GetString("DATABASE_URL"),

		AccessTokenSecret:  viper.GetString("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: viper.GetString("REFRESH_TOKEN_SECRET"),
		AccessTokenTTL:     viper.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL:    viper.GetDuration("REFRESH_TOKEN_TTL"),
		Issuer:             viper.GetString("JWT_ISSUER"),

		PasswordPepper:  viper.GetString("PASSWORD_PEPPER"),
		ArgonMemoryKiB:  viper.GetUint32("ARGON_MEMORY_KIB"),
		ArgonIterations: viper.GetUint32("ARGON_ITERATIONS"),

		CookieDomain:     viper.GetString("COOKIE_DOMAIN"),
		AllowedOrigins:   viper.GetStringSlice("ALLOWED_ORIGINS"),
		AllowCredentials: viper.GetBool("ALLOW_CREDENTIALS"),

		RedisAddress:  viper.GetString("REDIS_ADDRESS"),
		RedisPassword: viper.GetString("REDIS_PASSWORD"),
		RedisDB:       viper.GetInt("REDIS_DB"),

		S3Endpoint:      viper.GetString("S3_ENDPOINT"),
		S3Region:        viper.GetString("S3_REGION"),
		S3Bucket:        viper.GetString("S3_BUCKET"),
		S3AccessKey:     viper.GetString("S3_ACCESS_KEY"),
		S3SecretKey:     viper.GetString("S3_SECRET_KEY"),
		S3PublicBaseURL: viper.GetString("S3_PUBLIC_BASE_URL"),
	}

	// Compromise of one secret must not allow forging the other token type.
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= cfg.AccessTokenTTL {
		return nil, fmt.Errorf("refresh token TTL must exceed access token TTL")
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool { return c.Environment == "development" }
