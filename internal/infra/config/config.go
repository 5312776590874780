package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "TASKBOARD"

// MaxSessionTTL bounds the lifetime of issued session tokens.
const MaxSessionTTL = 24 * time.Hour

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	SMTP      SMTPSettings      `mapstructure:"smtp"`
	JWT       JWTSettings       `mapstructure:"jwt"`
	Security  SecuritySettings  `mapstructure:"security"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
	CORS      CORSSettings      `mapstructure:"cors"`
	Seed      SeedSettings      `mapstructure:"seed"`
}

type AppSettings struct {
	Name        string `mapstructure:"name"`
	Env         string `mapstructure:"env"`
	Version     string `mapstructure:"version"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	FrontendURL string `mapstructure:"frontend_url"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	AutoMigrate       bool          `mapstructure:"auto_migrate"`
}

// RedisSettings configures the Redis connection backing rate limiting
type RedisSettings struct {
	Enabled    bool   `mapstructure:"enabled"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	DB         int    `mapstructure:"db"`
	Password   string `mapstructure:"password"`
	TLSEnabled bool   `mapstructure:"tls_enabled"`
}

// KafkaSettings configures the event producer. No brokers means events are only logged.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
}

// SMTPSettings configures delivery of password reset mail. An empty host disables SMTP.
type SMTPSettings struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type JWTSettings struct {
	Secret     string        `mapstructure:"secret"`
	Issuer     string        `mapstructure:"issuer"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// SecuritySettings configures password hashing and policy
type SecuritySettings struct {
	HashAlgorithm     string         `mapstructure:"hash_algorithm"`
	BcryptCost        int            `mapstructure:"bcrypt_cost"`
	Argon2            Argon2Settings `mapstructure:"argon2"`
	PasswordMinLength int            `mapstructure:"password_min_length"`
	PasswordMinScore  int            `mapstructure:"password_min_score"`
	ResetTokenTTL     time.Duration  `mapstructure:"reset_token_ttl"`
}

// Argon2Settings configures Argon2id password hashing parameters
type Argon2Settings struct {
	Memory      uint32 `mapstructure:"memory"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
	SaltLength  uint32 `mapstructure:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length"`
}

// RateLimitSettings configures rate limiting windows and max attempts per endpoint
type RateLimitSettings struct {
	WindowDuration            time.Duration `mapstructure:"window_duration"`
	LoginMaxAttempts          int           `mapstructure:"login_max_attempts"`
	RegisterMaxAttempts       int           `mapstructure:"register_max_attempts"`
	ForgotPasswordMaxAttempts int           `mapstructure:"forgot_password_max_attempts"`
	ResetPasswordMaxAttempts  int           `mapstructure:"reset_password_max_attempts"`
}

// CORSSettings lists the browser origins allowed to call the API.
// OriginSuffixes match by host suffix, e.g. ".vercel.app".
type CORSSettings struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	OriginSuffixes []string `mapstructure:"origin_suffixes"`
}

type SeedSettings struct {
	DemoUser bool `mapstructure:"demo_user"`
}

// envAliases keeps the variable names used by existing deployments working.
var envAliases = map[string][]string{
	"app.port":          {"PORT"},
	"app.env":           {"NODE_ENV", "APP_ENV"},
	"app.frontend_url":  {"FRONTEND_URL"},
	"postgres.host":     {"DB_HOST"},
	"postgres.port":     {"DB_PORT"},
	"postgres.user":     {"DB_USER"},
	"postgres.password": {"DB_PASSWORD"},
	"postgres.database": {"DB_NAME"},
	"smtp.host":         {"EMAIL_HOST"},
	"smtp.port":         {"EMAIL_PORT"},
	"smtp.username":     {"EMAIL_USER"},
	"smtp.password":     {"EMAIL_PASS"},
	"jwt.secret":        {"JWT_SECRET"},
}

// Load reads the configuration from the environment and validates it.
func Load() (*AppConfig, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase reads the configuration for tools that only talk to Postgres,
// such as the migration runner; API settings like the JWT secret are not validated.
func LoadDatabase() (*AppConfig, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Postgres.Host) == "" || strings.TrimSpace(cfg.Postgres.Database) == "" {
		return nil, errors.New("config: postgres.host and postgres.database are required")
	}
	return cfg, nil
}

func read() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(envPrefix)

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.version",
		"app.host",
		"app.port",
		"app.frontend_url",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"postgres.auto_migrate",
		"redis.enabled",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"kafka.brokers",
		"kafka.topic_prefix",
		"smtp.host",
		"smtp.port",
		"smtp.username",
		"smtp.password",
		"smtp.from",
		"smtp.timeout",
		"jwt.secret",
		"jwt.issuer",
		"jwt.session_ttl",
		"security.hash_algorithm",
		"security.bcrypt_cost",
		"security.argon2.memory",
		"security.argon2.iterations",
		"security.argon2.parallelism",
		"security.argon2.salt_length",
		"security.argon2.key_length",
		"security.password_min_length",
		"security.password_min_score",
		"security.reset_token_ttl",
		"rate_limit.window_duration",
		"rate_limit.login_max_attempts",
		"rate_limit.register_max_attempts",
		"rate_limit.forgot_password_max_attempts",
		"rate_limit.reset_password_max_attempts",
		"cors.allowed_origins",
		"cors.origin_suffixes",
		"seed.demo_user",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate rejects configurations the service must not start with.
func (c *AppConfig) Validate() error {
	var errs []error

	secret := strings.TrimSpace(c.JWT.Secret)
	switch {
	case secret == "":
		errs = append(errs, errors.New("jwt.secret is required (set TASKBOARD_JWT_SECRET or JWT_SECRET)"))
	case len(secret) < 32:
		errs = append(errs, errors.New("jwt.secret must be at least 32 bytes"))
	}

	if c.JWT.SessionTTL <= 0 || c.JWT.SessionTTL > MaxSessionTTL {
		errs = append(errs, fmt.Errorf("jwt.session_ttl must be within (0, %s]", MaxSessionTTL))
	}

	switch c.Security.HashAlgorithm {
	case "bcrypt":
		if c.Security.BcryptCost < 10 {
			errs = append(errs, errors.New("security.bcrypt_cost must be at least 10"))
		}
	case "argon2id":
	default:
		errs = append(errs, fmt.Errorf("security.hash_algorithm %q is not supported", c.Security.HashAlgorithm))
	}

	if c.Security.PasswordMinLength < 6 {
		errs = append(errs, errors.New("security.password_min_length must be at least 6"))
	}

	if c.Security.ResetTokenTTL <= 0 {
		errs = append(errs, errors.New("security.reset_token_ttl must be positive"))
	}

	if c.Seed.DemoUser && c.IsProduction() {
		errs = append(errs, errors.New("seed.demo_user must not be enabled in production"))
	}

	for _, origin := range c.CORS.AllowedOrigins {
		if strings.TrimSpace(origin) == "*" {
			errs = append(errs, errors.New("cors.allowed_origins must list explicit origins, not *"))
			break
		}
	}

	return errors.Join(errs...)
}

// IsProduction reports whether the service runs with production settings.
func (c *AppConfig) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}

// CORSOrigins returns the explicit allow-list including the frontend URL.
func (c *AppConfig) CORSOrigins() []string {
	origins := make([]string, 0, len(c.CORS.AllowedOrigins)+1)
	if c.App.FrontendURL != "" {
		origins = append(origins, strings.TrimRight(c.App.FrontendURL, "/"))
	}
	for _, origin := range c.CORS.AllowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "taskboard-auth")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 3001)
	v.SetDefault("app.frontend_url", "http://localhost:3000")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "taskboard")
	v.SetDefault("postgres.password", "taskboard_password")
	v.SetDefault("postgres.database", "taskboard")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")
	v.SetDefault("postgres.auto_migrate", true)

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "taskboard")

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.from", `"Todo Dashboard App" <no-reply@tododashboard.com>`)
	v.SetDefault("smtp.timeout", "15s")

	v.SetDefault("jwt.issuer", "taskboard-auth")
	v.SetDefault("jwt.session_ttl", "24h")

	v.SetDefault("security.hash_algorithm", "bcrypt")
	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.argon2.memory", 65536) // 64 MB
	v.SetDefault("security.argon2.iterations", 3)
	v.SetDefault("security.argon2.parallelism", 4)
	v.SetDefault("security.argon2.salt_length", 16)
	v.SetDefault("security.argon2.key_length", 32)
	v.SetDefault("security.password_min_length", 6)
	v.SetDefault("security.password_min_score", 0)
	v.SetDefault("security.reset_token_ttl", "1h")

	v.SetDefault("rate_limit.window_duration", "1m")
	v.SetDefault("rate_limit.login_max_attempts", 5)
	v.SetDefault("rate_limit.register_max_attempts", 3)
	v.SetDefault("rate_limit.forgot_password_max_attempts", 3)
	v.SetDefault("rate_limit.reset_password_max_attempts", 5)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:3001"})
	v.SetDefault("cors.origin_suffixes", []string{})

	v.SetDefault("seed.demo_user", false)
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		names := append([]string{envPrefix + "_" + envKey, envKey}, envAliases[key]...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
