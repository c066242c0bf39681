package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env      string
	LogLevel string

	DB        DBConfig
	Server    ServerConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Stripe    StripeConfig
	Google    GoogleConfig
	SMTP      SMTPConfig
	Business  BusinessConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	GRPCAddr string
	HTTPAddr string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CodeTTL  time.Duration
	// Сколько кодов подтверждения можно запросить на один email в минуту.
	CodesPerMinute float64
	CodesBurst     int
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	// Оператор, создаваемый при старте, если его ещё нет.
	BootstrapEmail        string
	BootstrapPasswordHash string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	// AcceptAll: принимать любые платёжные ссылки без проверки. Только для разработки.
	AcceptAll bool
}

type GoogleConfig struct {
	CredentialsFile string
	CalendarID      string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// BusinessConfig — реквизиты для счетов и общие параметры бизнеса.
type BusinessConfig struct {
	TimeZone       string
	Currency       string
	CompanyName    string
	CompanyAddress string
	CompanyEmail   string
}

type SchedulerConfig struct {
	PurgeSpec string
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load читает конфигурацию из config.yaml (если есть) и переменных окружения.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	dbCfg, err := loadDBConfig(v)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:      v.GetString("ENV"),
		LogLevel: v.GetString("LOG_LEVEL"),
		DB:       dbCfg,
		Server: ServerConfig{
			GRPCAddr: v.GetString("GRPC_ADDR"),
			HTTPAddr: v.GetString("HTTP_ADDR"),
		},
		Redis: RedisConfig{
			Addr:           v.GetString("REDIS_ADDR"),
			Password:       v.GetString("REDIS_PASSWORD"),
			DB:             v.GetInt("REDIS_DB"),
			CodeTTL:        v.GetDuration("IDENTITY_CODE_TTL"),
			CodesPerMinute: v.GetFloat64("IDENTITY_CODES_PER_MINUTE"),
			CodesBurst:     v.GetInt("IDENTITY_CODES_BURST"),
		},
		Auth: AuthConfig{
			JWTSecret:             v.GetString("JWT_SECRET"),
			TokenTTL:              v.GetDuration("JWT_TTL"),
			BootstrapEmail:        v.GetString("ADMIN_EMAIL"),
			BootstrapPasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
		},
		Stripe: StripeConfig{
			SecretKey:     v.GetString("STRIPE_SECRET_KEY"),
			WebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
			AcceptAll:     v.GetBool("PAYMENT_ACCEPT_ALL"),
		},
		Google: GoogleConfig{
			CredentialsFile: v.GetString("GOOGLE_CREDENTIALS_FILE"),
			CalendarID:      v.GetString("GOOGLE_CALENDAR_ID"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		Business: BusinessConfig{
			TimeZone:       v.GetString("BUSINESS_TIMEZONE"),
			Currency:       v.GetString("BUSINESS_CURRENCY"),
			CompanyName:    v.GetString("BUSINESS_NAME"),
			CompanyAddress: v.GetString("BUSINESS_ADDRESS"),
			CompanyEmail:   v.GetString("BUSINESS_EMAIL"),
		},
		Scheduler: SchedulerConfig{
			PurgeSpec: v.GetString("PURGE_SPEC"),
		},
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("invalid auth config: JWT_SECRET must not be empty")
	}
	if _, err := time.LoadLocation(cfg.Business.TimeZone); err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_TIMEZONE %q: %w", cfg.Business.TimeZone, err)
	}
	if err := cfg.validatePayments(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validatePayments: без ключа Stripe платёж не проверяется, это допустимо только явно и не в production.
func (c *Config) validatePayments() error {
	switch {
	case c.Stripe.SecretKey != "" && c.Stripe.AcceptAll:
		return fmt.Errorf("invalid payment config: STRIPE_SECRET_KEY and PAYMENT_ACCEPT_ALL are mutually exclusive")
	case c.Stripe.SecretKey != "":
		return nil
	case !c.Stripe.AcceptAll:
		return fmt.Errorf("invalid payment config: set STRIPE_SECRET_KEY or PAYMENT_ACCEPT_ALL=true for development")
	case c.IsProduction():
		return fmt.Errorf("invalid payment config: PAYMENT_ACCEPT_ALL is not allowed in production")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	setDBDefaults(v)

	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("GRPC_ADDR", ":50051")
	v.SetDefault("HTTP_ADDR", ":8080")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("IDENTITY_CODE_TTL", 10*time.Minute)
	v.SetDefault("IDENTITY_CODES_PER_MINUTE", 1.0)
	v.SetDefault("IDENTITY_CODES_BURST", 3)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", 12*time.Hour)
	v.SetDefault("PAYMENT_ACCEPT_ALL", false)

	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("GOOGLE_CALENDAR_ID", "primary")

	v.SetDefault("BUSINESS_TIMEZONE", "Asia/Tokyo")
	v.SetDefault("BUSINESS_CURRENCY", "JPY")
	v.SetDefault("BUSINESS_NAME", "Session Booking")

	v.SetDefault("PURGE_SPEC", "@hourly")
}
