package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Alipay   AlipayConfig
	Payment  PaymentConfig
	Email    EmailConfig
	Storage  StorageConfig
	Frontend FrontendConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	URL string
}

type JWTConfig struct {
	Secret string
}

// AlipayConfig holds the gateway credentials. An empty AppID means the
// gateway is unconfigured; payment creation then falls back to mock mode
// when PaymentConfig.AllowMock permits it.
type AlipayConfig struct {
	AppID      string
	PrivateKey string
	PublicKey  string
	Sandbox    bool
}

func (c AlipayConfig) Configured() bool {
	return c.AppID != "" && c.PrivateKey != ""
}

type PaymentConfig struct {
	AllowMock bool
}

type EmailConfig struct {
	ResendAPIKey string
	From         string
}

type StorageConfig struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

type FrontendConfig struct {
	URL string
}

func Load() *Config {
	godotenv.Load() // .env is optional

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "change-me-in-production"),
		},
		Alipay: AlipayConfig{
			AppID:      getEnv("ALIPAY_APP_ID", ""),
			PrivateKey: getEnv("ALIPAY_PRIVATE_KEY", ""),
			PublicKey:  getEnv("ALIPAY_PUBLIC_KEY", ""),
			Sandbox:    getEnvBool("ALIPAY_SANDBOX", false),
		},
		Payment: PaymentConfig{
			AllowMock: getEnvBool("PAYMENT_ALLOW_MOCK", true),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			From:         getEnv("EMAIL_FROM", "SocksFlow <noreply@socksflow.app>"),
		},
		Storage: StorageConfig{
			Bucket:    getEnv("S3_BUCKET", "socksflow-uploads"),
			Region:    getEnv("S3_REGION", "eu-central-1"),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
		},
		Frontend: FrontendConfig{
			URL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
