package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Security SecurityConfig
	Log      LogConfig
	CORS     CORSConfig
	Payment  PaymentConfig
}

type AppConfig struct {
	Name    string `validate:"required"`
	Version string `validate:"required"`
	Env     string `validate:"oneof=development production test"`
}

func (c AppConfig) IsProduction() bool {
	return c.Env == EnvProduction
}

func (c AppConfig) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

type ServerConfig struct {
	Host              string
	Port              int           `validate:"min=1,max=65535"`
	ShutdownTimeout   time.Duration `validate:"gt=0"`
	RateLimitRequests int           `validate:"min=1"`
	RateLimitWindow   time.Duration `validate:"gt=0"`
	// TrustProxy honours X-Forwarded-For and X-Real-IP for the client address.
	TrustProxy        bool
}

type DatabaseConfig struct {
	URI                    string `validate:"required"`
	Name                   string `validate:"required"`
	MaxPoolSize            uint64 `validate:"min=1"`
	ServerSelectionTimeout time.Duration
	SocketTimeout          time.Duration
}

type SecurityConfig struct {
	JWTSecret    string        `validate:"min=32"`
	JWTExpiresIn time.Duration `validate:"gt=0"`
}

type LogConfig struct {
	Level  string `validate:"oneof=fatal error warn info debug trace"`
	Pretty bool
}

type CORSConfig struct {
	Origins []string
}

type PaymentConfig struct {
	GatewayDelay      time.Duration
	ChargeSuccessRate float64 `validate:"min=0,max=1"`
	RefundSuccessRate float64 `validate:"min=0,max=1"`
}

// Load reads the process environment (plus an optional .env file) into a
// validated Config. Callers are expected to exit when it returns an error.
func Load() (*Config, error) {
	// A missing .env file is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_NAME", "storefront")
	v.SetDefault("APP_VERSION", "1.0.0")
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 3000)
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", "15m")
	v.SetDefault("TRUST_PROXY", false)
	v.SetDefault("MONGO_MAX_POOL_SIZE", 10)
	v.SetDefault("MONGO_SERVER_SELECTION_TIMEOUT", "5s")
	v.SetDefault("MONGO_SOCKET_TIMEOUT", "45s")
	v.SetDefault("JWT_EXPIRES_IN", "7d")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("CORS_ORIGIN", "http://localhost:3000")
	v.SetDefault("PAYMENT_GATEWAY_DELAY", "1s")
	v.SetDefault("PAYMENT_SUCCESS_RATE", 0.95)
	v.SetDefault("REFUND_SUCCESS_RATE", 0.98)

	var errs []error
	duration := func(key string) time.Duration {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}

	jwtExpiresIn, err := ParseExpiry(v.GetString("JWT_EXPIRES_IN"))
	if err != nil {
		errs = append(errs, fmt.Errorf("JWT_EXPIRES_IN: %w", err))
	}

	cfg := &Config{
		App: AppConfig{
			Name:    v.GetString("APP_NAME"),
			Version: v.GetString("APP_VERSION"),
			Env:     v.GetString("APP_ENV"),
		},
		Server: ServerConfig{
			Host:              v.GetString("HOST"),
			Port:              v.GetInt("PORT"),
			ShutdownTimeout:   duration("SHUTDOWN_TIMEOUT"),
			RateLimitRequests: v.GetInt("RATE_LIMIT_REQUESTS"),
			RateLimitWindow:   duration("RATE_LIMIT_WINDOW"),
			TrustProxy:        v.GetBool("TRUST_PROXY"),
		},
		Database: DatabaseConfig{
			URI:                    v.GetString("MONGO_URI"),
			Name:                   v.GetString("MONGO_DB_NAME"),
			MaxPoolSize:            v.GetUint64("MONGO_MAX_POOL_SIZE"),
			ServerSelectionTimeout: duration("MONGO_SERVER_SELECTION_TIMEOUT"),
			SocketTimeout:          duration("MONGO_SOCKET_TIMEOUT"),
		},
		Security: SecurityConfig{
			JWTSecret:    v.GetString("JWT_SECRET"),
			JWTExpiresIn: jwtExpiresIn,
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Pretty: v.GetBool("LOG_PRETTY"),
		},
		CORS: CORSConfig{
			Origins: splitList(v.GetString("CORS_ORIGIN")),
		},
		Payment: PaymentConfig{
			GatewayDelay:      duration("PAYMENT_GATEWAY_DELAY"),
			ChargeSuccessRate: v.GetFloat64("PAYMENT_SUCCESS_RATE"),
			RefundSuccessRate: v.GetFloat64("REFUND_SUCCESS_RATE"),
		},
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validating configuration: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// ParseExpiry accepts Go durations ("12h"), a day suffix ("7d") or a bare
// number of seconds ("3600").
func ParseExpiry(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("empty expiry")
	}

	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}

	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.ParseFloat(days, 64)
		if err != nil {
			return 0, fmt.Errorf("parsing days %q: %w", raw, err)
		}
		return time.Duration(n * float64(24*time.Hour)), nil
	}

	return time.ParseDuration(raw)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
