// Package config loads application settings from a dotenv file and the
// process environment, environment taking precedence.
package config

import (
	"log"
	"os"
	"time"

	"github.com/gookit/color"
	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config carries every runtime setting of the application.
type Config struct {
	Addr        string
	Environment string
	BaseURL     string
	Secret      []byte
	EnableHTTPS bool

	SessionName    string
	SessionTimeout time.Duration

	LockoutThreshold int
	LockoutWindow    time.Duration
	ResetTokenTTL    time.Duration
	PasswordAlgo     string

	DBDriver   string
	DBDSN      string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	SendGridAPIKey string
	MailSenderName string
	MailSenderAddr string

	ViewsDir string
}

// Load reads the optional dotenv file at envPath, overlays the process
// environment, and resolves the settings with development defaults. It
// refuses to run in production without an explicit secret.
func Load(envPath string) *Config {
	k := koanf.New(".")

	if _, err := os.Stat(envPath); err == nil {
		if err := k.Load(file.Provider(envPath), dotenv.Parser()); err != nil {
			color.Red.Println("Error loading " + envPath + ": " + err.Error())
			os.Exit(1)
		}
	}
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		color.Red.Println("Error loading environment variables: " + err.Error())
		os.Exit(1)
	}

	environment := getString(k, "ENVIRONMENT", "development")

	secret := k.String("APP_SECRET")
	if secret == "" {
		if environment == "production" {
			log.Fatal("APP_SECRET must be set in production")
		}
		log.Println("Warning: using default APP_SECRET for development")
		secret = "ca1493f9b638c47219bb82db9843a086"
	}

	return &Config{
		Addr:        getString(k, "LISTEN_ADDR", ":8080"),
		Environment: environment,
		BaseURL:     getString(k, "BASE_URL", "http://localhost:8080"),
		Secret:      []byte(secret),
		EnableHTTPS: getString(k, "ENABLE_HTTPS", "false") == "true",

		SessionName:    getString(k, "SESSION_NAME", "session_token"),
		SessionTimeout: getDuration(k, "SESSION_TIMEOUT", 24*time.Hour),

		LockoutThreshold: getInt(k, "LOCKOUT_THRESHOLD", 3),
		LockoutWindow:    getDuration(k, "LOCKOUT_WINDOW", 5*time.Minute),
		ResetTokenTTL:    getDuration(k, "RESET_TOKEN_TTL", 30*time.Minute),
		PasswordAlgo:     getString(k, "PASSWORD_ALGO", "bcrypt"),

		DBDriver:   getString(k, "DB_DRIVER", "sqlite"),
		DBDSN:      getString(k, "DB_DSN", "diffusio.db"),
		DBHost:     getString(k, "DB_HOST", "localhost"),
		DBPort:     getInt(k, "DB_PORT", 5432),
		DBUser:     getString(k, "DB_USER", "postgres"),
		DBPassword: getString(k, "DB_PASSWORD", "postgres"),
		DBName:     getString(k, "DB_NAME", "diffusio"),

		SendGridAPIKey: k.String("SENDGRID_API_KEY"),
		MailSenderName: getString(k, "MAIL_SENDER_NAME", "Diffusio"),
		MailSenderAddr: getString(k, "MAIL_SENDER_ADDR", "noreply@demo.com"),

		ViewsDir: getString(k, "VIEWS_DIR", "./views"),
	}
}

func getString(k *koanf.Koanf, key, def string) string {
	if v := k.String(key); v != "" {
		return v
	}
	return def
}

func getInt(k *koanf.Koanf, key string, def int) int {
	if v := k.Int(key); v != 0 {
		return v
	}
	return def
}

func getDuration(k *koanf.Koanf, key string, def time.Duration) time.Duration {
	raw := k.String(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid %s %q, defaulting to %s", key, raw, def)
		return def
	}
	return d
}
