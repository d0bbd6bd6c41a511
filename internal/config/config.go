package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for our application
type Config struct {
	Port                      string
	Origin                    string
	Environment               string
	LogLevel                  string
	ClientURL                 string
	AppURL                    string
	JWTSecret                 string
	JWTRefreshSecret          string
	JWTExpirationMinutes      int
	JWTRefreshExpirationHours int
	DefaultAppointmentFee     float64
	ReadTimeout               time.Duration
	WriteTimeout              time.Duration
	Database                  DatabaseConfig
	Redis                     RedisConfig
	Bkash                     BkashConfig
	Media                     MediaConfig
	Mailer                    MailerConfig
	Twilio                    TwilioConfig
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// RedisConfig holds the Redis connection used for the gateway token cache
// and the payment callback lock. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// BkashConfig holds the bKash tokenized checkout credentials.
type BkashConfig struct {
	BaseURL     string
	AppKey      string
	AppSecret   string
	Username    string
	Password    string
	CallbackURL string
	Timeout     time.Duration
}

// MediaConfig selects where uploaded doctor documents are stored.
type MediaConfig struct {
	Driver    string
	LocalPath string
	PublicURL string
	S3Bucket  string
	S3Prefix  string
	S3Region  string
}

// MailerConfig holds SMTP settings for receipt e-mails
type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// TwilioConfig holds SMS settings for doctor notifications
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	dbConfig := DatabaseConfig{
		Driver:   strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		Host:     getEnv("DB_HOST", "localhost"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "telehealth"),
		DSN:      getEnv("DB_DSN", ""),
	}

	switch dbConfig.Driver {
	case "mysql":
		dbConfig.Port = getEnv("DB_PORT", "3306")
		if dbConfig.DSN == "" {
			dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
				dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)
		}
	case "postgres":
		dbConfig.Port = getEnv("DB_PORT", "5432")
		if dbConfig.DSN == "" {
			dbConfig.DSN = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
				dbConfig.Host, dbConfig.Username, dbConfig.Password, dbConfig.Name, dbConfig.Port)
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", dbConfig.Driver)
	}

	jwtExpMinutes, err := strconv.Atoi(getEnv("JWT_EXPIRATION_MINUTES", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_MINUTES: %w", err)
	}

	jwtRefreshExpHours, err := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168")) // 7 days
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_EXPIRATION_HOURS: %w", err)
	}

	defaultFee, err := strconv.ParseFloat(getEnv("DEFAULT_APPOINTMENT_FEE", "500"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_APPOINTMENT_FEE: %w", err)
	}
	if defaultFee < 0 {
		return nil, fmt.Errorf("invalid DEFAULT_APPOINTMENT_FEE: must not be negative")
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	bkashTimeout, err := strconv.Atoi(getEnv("BKASH_TIMEOUT_SECONDS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid BKASH_TIMEOUT_SECONDS: %w", err)
	}

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	readTimeout, err := strconv.Atoi(getEnv("HTTP_READ_TIMEOUT_SECONDS", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_READ_TIMEOUT_SECONDS: %w", err)
	}
	writeTimeout, err := strconv.Atoi(getEnv("HTTP_WRITE_TIMEOUT_SECONDS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_WRITE_TIMEOUT_SECONDS: %w", err)
	}

	port := getEnv("PORT", "8000")
	appURL := getEnv("APP_URL", "http://localhost:"+port)

	mediaConfig := MediaConfig{
		Driver:    strings.ToLower(getEnv("MEDIA_DRIVER", "local")),
		LocalPath: getEnv("MEDIA_LOCAL_PATH", "./uploads"),
		PublicURL: getEnv("MEDIA_PUBLIC_URL", appURL+"/uploads"),
		S3Bucket:  getEnv("S3_BUCKET", ""),
		S3Prefix:  getEnv("S3_PREFIX", "doctors"),
		S3Region:  getEnv("AWS_REGION", "ap-southeast-1"),
	}
	if mediaConfig.Driver == "s3" && mediaConfig.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required when MEDIA_DRIVER=s3")
	}

	cfg := &Config{
		Port:                      port,
		Origin:                    getEnv("CORS_ORIGIN", "http://localhost:5173"),
		Environment:               getEnv("APP_ENV", "development"),
		LogLevel:                  getEnv("LOG_LEVEL", "info"),
		ClientURL:                 strings.TrimRight(getEnv("CLIENT_URL", "http://localhost:5173"), "/"),
		AppURL:                    appURL,
		JWTSecret:                 getEnv("JWT_SECRET", "default_jwt_secret"),
		JWTRefreshSecret:          getEnv("JWT_REFRESH_SECRET", "default_refresh_secret"),
		JWTExpirationMinutes:      jwtExpMinutes,
		JWTRefreshExpirationHours: jwtRefreshExpHours,
		DefaultAppointmentFee:     defaultFee,
		ReadTimeout:               time.Duration(readTimeout) * time.Second,
		WriteTimeout:              time.Duration(writeTimeout) * time.Second,
		Database:                  dbConfig,
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Bkash: BkashConfig{
			BaseURL:     strings.TrimRight(getEnv("BKASH_BASE_URL", "https://tokenized.sandbox.bka.sh/v1.2.0-beta"), "/"),
			AppKey:      getEnv("BKASH_APP_KEY", ""),
			AppSecret:   getEnv("BKASH_APP_SECRET", ""),
			Username:    getEnv("BKASH_USERNAME", ""),
			Password:    getEnv("BKASH_PASSWORD", ""),
			CallbackURL: getEnv("BKASH_CALLBACK_URL", appURL+"/api/v1/payment/bkash/callback"),
			Timeout:     time.Duration(bkashTimeout) * time.Second,
		},
		Media: mediaConfig,
		Mailer: MailerConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     smtpPort,
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("MAIL_FROM", ""),
		},
		Twilio: TwilioConfig{
			AccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
			FromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
		},
	}

	if cfg.IsProduction() && (cfg.JWTSecret == "default_jwt_secret" || cfg.JWTRefreshSecret == "default_refresh_secret") {
		return nil, fmt.Errorf("JWT_SECRET and JWT_REFRESH_SECRET must be set in production")
	}

	return cfg, nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
