package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Env struct {
	AppAddr string `mapstructure:"APP_ADDR"`
	AppEnv  string `mapstructure:"APP_ENV"`
	GinMode string `mapstructure:"GIN_MODE"`

	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBName     string `mapstructure:"DB_NAME"`

	JWTSecret   string `mapstructure:"JWT_SECRET"`
	JWTTTLHours int    `mapstructure:"JWT_TTL_HOURS"`

	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	ReservationHoldMinutes int    `mapstructure:"RESERVATION_HOLD_MINUTES"`
	SweepIntervalSeconds   int    `mapstructure:"SWEEP_INTERVAL_SECONDS"`
	TimeZone               string `mapstructure:"TIME_ZONE"`

	RazorpayKeyID     string `mapstructure:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string `mapstructure:"RAZORPAY_KEY_SECRET"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`

	AWSRegion string `mapstructure:"AWS_REGION"`
	S3Bucket  string `mapstructure:"S3_BUCKET"`

	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RateLimitPerMinute int    `mapstructure:"RATE_LIMIT_PER_MINUTE"`
}

// LoadEnv reads config.yaml (optional) and environment variables into Env.
func LoadEnv() Env {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	v.SetDefault("APP_ADDR", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("GIN_MODE", "")
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_HOST", "127.0.0.1:3306")
	v.SetDefault("DB_NAME", "bus_booking")
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("JWT_TTL_HOURS", 24)
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RESERVATION_HOLD_MINUTES", 10)
	v.SetDefault("SWEEP_INTERVAL_SECONDS", 60)
	v.SetDefault("TIME_ZONE", "Asia/Kolkata")
	v.SetDefault("RAZORPAY_KEY_ID", "")
	v.SetDefault("RAZORPAY_KEY_SECRET", "")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("MAIL_FROM", "no-reply@busbooking.local")
	v.SetDefault("AWS_REGION", "ap-south-1")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 300)

	if err := v.ReadInConfig(); err != nil {
		log.Println("no config file found, using environment variables only")
	}

	var env Env
	if err := v.Unmarshal(&env); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	env.AppAddr = strings.TrimSpace(env.AppAddr)
	env.GinMode = strings.TrimSpace(env.GinMode)
	return env
}

func (e Env) IsProduction() bool {
	return strings.EqualFold(e.AppEnv, "production")
}

func (e Env) ReservationHold() time.Duration {
	if e.ReservationHoldMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(e.ReservationHoldMinutes) * time.Minute
}

func (e Env) TokenTTL() time.Duration {
	if e.JWTTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(e.JWTTTLHours) * time.Hour
}

func (e Env) SweepInterval() time.Duration {
	if e.SweepIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(e.SweepIntervalSeconds) * time.Second
}

// Location falls back to time.Local when TIME_ZONE cannot be loaded.
func (e Env) Location() *time.Location {
	if loc, err := time.LoadLocation(e.TimeZone); err == nil {
		return loc
	}
	return time.Local
}

func (e Env) AllowedOrigins() []string {
	out := []string{}
	for _, o := range strings.Split(e.CORSAllowedOrigins, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}
