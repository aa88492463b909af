package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Billing       BillingConfig
	Notify        NotifyConfig
	Storage       StorageConfig
	Maps          MapsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VETLAB_APP_ENV" required:"true"`
	Port         string `envconfig:"VETLAB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VETLAB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VETLAB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VETLAB_DB_DSN"`
	Driver string `envconfig:"VETLAB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VETLAB_DB_HOST"`
	LegacyPort     int    `envconfig:"VETLAB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VETLAB_DB_USER"`
	LegacyPassword string `envconfig:"VETLAB_DB_PASSWORD"`
	LegacyName     string `envconfig:"VETLAB_DB_NAME"`
	LegacySSLMode  string `envconfig:"VETLAB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VETLAB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VETLAB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VETLAB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VETLAB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VETLAB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VETLAB_REDIS_ADDR"`
	Password     string        `envconfig:"VETLAB_REDIS_PASSWORD"`
	DB           int           `envconfig:"VETLAB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VETLAB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VETLAB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VETLAB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VETLAB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VETLAB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"VETLAB_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"VETLAB_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"VETLAB_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"VETLAB_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"VETLAB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"VETLAB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"VETLAB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"VETLAB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"VETLAB_ARGON_KEY_LEN" default:"32"`

	MaxLoginAttempts int `envconfig:"VETLAB_MAX_LOGIN_ATTEMPTS" default:"5"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"VETLAB_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginPhoneLimit    int           `envconfig:"VETLAB_AUTH_RATE_LIMIT_LOGIN_PHONE_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"VETLAB_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"VETLAB_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterPhoneLimit int           `envconfig:"VETLAB_AUTH_RATE_LIMIT_REGISTER_PHONE_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"VETLAB_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VETLAB_AUTO_MIGRATE" default:"false"`
}

// BillingConfig controls how calendar buckets are computed for billing views.
// Bookings are stored in UTC; display and day/month boundaries use this zone.
type BillingConfig struct {
	Timezone string `envconfig:"VETLAB_BILLING_TIMEZONE" default:"Asia/Kolkata"`
}

// Location resolves the configured billing timezone, falling back to the fixed
// IST offset when the zone database is unavailable.
func (b BillingConfig) Location() *time.Location {
	if loc, err := time.LoadLocation(b.Timezone); err == nil {
		return loc
	}
	return time.FixedZone("IST", 5*3600+30*60)
}

type NotifyConfig struct {
	AccountSID     string `envconfig:"VETLAB_TWILIO_ACCOUNT_SID"`
	AuthToken      string `envconfig:"VETLAB_TWILIO_AUTH_TOKEN"`
	WhatsAppNumber string `envconfig:"VETLAB_TWILIO_WHATSAPP_NUMBER"`
	OpsNumber      string `envconfig:"VETLAB_OPS_WHATSAPP_NUMBER"`
	BaseURL        string `envconfig:"VETLAB_TWILIO_BASE_URL" default:"https://api.twilio.com"`
}

// Enabled reports whether enough credentials are present to dispatch messages.
func (n NotifyConfig) Enabled() bool {
	return n.AccountSID != "" && n.AuthToken != "" && n.WhatsAppNumber != ""
}

type StorageConfig struct {
	ProjectURL      string        `envconfig:"VETLAB_STORAGE_URL"`
	ServiceKey      string        `envconfig:"VETLAB_STORAGE_SERVICE_KEY"`
	Bucket          string        `envconfig:"VETLAB_STORAGE_BUCKET" default:"reports"`
	SignedURLExpiry time.Duration `envconfig:"VETLAB_STORAGE_SIGNED_URL_EXPIRY" default:"1h"`
	MaxUploadMB     int           `envconfig:"VETLAB_STORAGE_MAX_UPLOAD_MB" default:"10"`
}

type MapsConfig struct {
	APIKey string `envconfig:"VETLAB_GOOGLE_MAPS_API_KEY"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
