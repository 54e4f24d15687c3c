// Package config loads the application configuration from environment
// variables once at startup. The resulting Config value is immutable and
// passed by reference into the request pipeline constructor; no package in
// this repository reads ambient environment state after Load returns.
package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// App holds process-level settings.
type App struct {
	Port        string `env:"PORT" envDefault:"3000"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	ErrorPath   string `env:"APP_ERROR_PATH" envDefault:"/500"`
}

// Addr returns the listen address for the HTTP server.
func (a App) Addr() string {
	return ":" + a.Port
}

// IsProduction reports whether the app runs with production settings.
func (a App) IsProduction() bool {
	return a.Environment == "production"
}

// Mongo holds MongoDB connection settings. The URI is assembled from
// credentials and always requests retryable writes, majority write concern
// and verified TLS.
type Mongo struct {
	User           string        `env:"MONGO_USER,required"`
	Password       string        `env:"MONGO_PASSWORD,required"`
	Host           string        `env:"MONGO_HOST,required"`
	Database       string        `env:"MONGO_DEFAULT_DATABASE,required"`
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT" envDefault:"10s"`
	RetryAttempts  int           `env:"MONGO_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"MONGO_RETRY_INTERVAL" envDefault:"5s"`
}

// URI builds the connection string with retryable writes, majority write
// concern and TLS enabled. Certificate validation stays on: there is no
// configuration knob to allow invalid certificates.
func (m Mongo) URI() string {
	return fmt.Sprintf("mongodb+srv://%s:%s@%s/%s?retryWrites=true&w=majority&tls=true",
		m.User, m.Password, m.Host, m.Database)
}

// Session holds session store and cookie settings.
type Session struct {
	Collection    string        `env:"SESSION_COLLECTION" envDefault:"sessions"`
	CookieName    string        `env:"SESSION_COOKIE_NAME" envDefault:"sid"`
	TTL           time.Duration `env:"SESSION_TTL" envDefault:"336h"` // two weeks
	TouchInterval time.Duration `env:"SESSION_TOUCH_INTERVAL" envDefault:"5m"`
	CookieSecure  bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	// RedisURL, when set, switches the session store from MongoDB to Redis.
	RedisURL string `env:"SESSION_REDIS_URL" envDefault:""`
}

// Upload holds file upload settings.
type Upload struct {
	Field   string `env:"UPLOAD_FIELD" envDefault:"image"`
	Dir     string `env:"UPLOAD_DIR" envDefault:"images"`
	MaxSize int64  `env:"UPLOAD_MAX_SIZE" envDefault:"10485760"` // 10MB
	// S3Bucket, when set together with S3Region, switches upload storage
	// from local disk to S3.
	S3Bucket      string `env:"UPLOAD_S3_BUCKET" envDefault:""`
	S3Region      string `env:"UPLOAD_S3_REGION" envDefault:""`
	S3AccessKeyID string `env:"UPLOAD_S3_ACCESS_KEY_ID" envDefault:""`
	S3SecretKey   string `env:"UPLOAD_S3_SECRET_KEY" envDefault:""`
}

// CSRF holds anti-forgery settings.
type CSRF struct {
	Key    string `env:"CSRF_KEY,required"`
	Secure bool   `env:"CSRF_SECURE" envDefault:"false"`
	// TrustedOrigins lists additional origins whose state-changing
	// requests the guard accepts, for deployments serving forms across
	// subdomains.
	TrustedOrigins []string `env:"CSRF_TRUSTED_ORIGINS"`
}

// Static holds static asset mounts.
type Static struct {
	PublicDir   string `env:"STATIC_PUBLIC_DIR" envDefault:"public"`
	ImagesDir   string `env:"STATIC_IMAGES_DIR" envDefault:"images"`
	ImagesMount string `env:"STATIC_IMAGES_MOUNT" envDefault:"/images"`
}

// Security holds the content security policy origins.
type Security struct {
	ScriptOrigin string `env:"CSP_SCRIPT_ORIGIN" envDefault:"https://js.stripe.com/v3/"`
	FrameOrigin  string `env:"CSP_FRAME_ORIGIN" envDefault:"https://js.stripe.com/"`
}

// Log holds logging settings.
type Log struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	Format     string `env:"LOG_FORMAT" envDefault:"text"`
	AccessPath string `env:"ACCESS_LOG_PATH" envDefault:"access.log"`
}

// Config aggregates all application configuration.
type Config struct {
	App      App
	Mongo    Mongo
	Session  Session
	Upload   Upload
	CSRF     CSRF
	Static   Static
	Security Security
	Log      Log
}

var loadEnvOnce sync.Once

// Load parses the full application configuration from environment
// variables. A .env file in the working directory is loaded once if
// present; missing .env files are not an error.
func Load() (Config, error) {
	loadEnvOnce.Do(func() {
		_ = godotenv.Load()
	})

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// MustLoad parses the configuration and panics on failure. Useful at
// process startup where a missing required variable is fatal anyway.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
