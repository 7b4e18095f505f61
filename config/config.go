package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"go.uber.org/zap"
)

// Config is parsed once at startup and handed to every component.
type Config struct {
	Port   string `env:"PORT" envDefault:"5000"`
	AppEnv string `env:"APP_ENV" envDefault:"production"`

	MongoURI string `env:"MONGO_URI,required,notEmpty"`
	MongoDB  string `env:"MONGO_DB" envDefault:"citycare"`

	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"168h"`
	OTPTTL    time.Duration `env:"OTP_TTL" envDefault:"10m"`

	MailConfig

	UploadDir      string `env:"UPLOAD_DIR" envDefault:"uploads"`
	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioBucket    string `env:"MINIO_BUCKET" envDefault:"citycare-uploads"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
	MinioPublicURL string `env:"MINIO_PUBLIC_URL"`

	CORSOrigins       []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	StatusTransitions string   `env:"STATUS_TRANSITIONS"`
	MaxUploadMB       int64    `env:"MAX_UPLOAD_MB" envDefault:"10"`
}

// MailConfig is the part of Config the mail relay needs.
type MailConfig struct {
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"CityCare"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	MailQueueKey  string `env:"MAIL_QUEUE_KEY" envDefault:"citycare:mail"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadMailConfig() (*MailConfig, error) {
	var cfg MailConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Development() bool { return c.AppEnv == "development" }

// NewLogger builds a development logger for APP_ENV=development, production otherwise.
func NewLogger(appEnv string) (*zap.Logger, error) {
	if appEnv == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
