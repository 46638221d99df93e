package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Clock     ClockConfig
	Alerts    AlertsConfig
	Routing   RoutingConfig
	Uploads   UploadsConfig
	Checkins  CheckinConfig
	Bootstrap BootstrapConfig
	Export    ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ClockConfig pins every deadline comparison to one civil time zone.
type ClockConfig struct {
	Timezone          string
	ServiceHoursStart string
	ServiceHoursEnd   string
}

// AlertsConfig controls the rolling evaluation window.
type AlertsConfig struct {
	WindowDays int
}

// RoutingConfig configures the external travel-time estimator.
type RoutingConfig struct {
	KakaoAPIKey     string
	LocalBaseURL    string
	NaviBaseURL     string
	Provider        string
	Timeout         time.Duration
	GeocodeCacheTTL time.Duration
	EstimateLockTTL time.Duration
}

// UploadsConfig controls arrival photo storage.
type UploadsConfig struct {
	Dir             string
	TTL             time.Duration
	MaxFileBytes    int64
	CleanupSchedule string
	SignedURLSecret string
	SignedURLTTL    time.Duration
}

// CheckinConfig tunes the confirmation critical section.
type CheckinConfig struct {
	LockTTL time.Duration
}

// ExportConfig points the PDF renderer at a UTF-8 TrueType font. Core
// fonts are used when Font is empty.
type ExportConfig struct {
	FontDir  string
	FontFile string
	Font     string
}

// BootstrapConfig seeds the administrator account and import defaults.
type BootstrapConfig struct {
	AdminUsername               string
	AdminPassword               string
	AdminName                   string
	DefaultPhotographerPassword string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Clock = ClockConfig{
		Timezone:          v.GetString("TIMEZONE"),
		ServiceHoursStart: v.GetString("SERVICE_HOURS_START"),
		ServiceHoursEnd:   v.GetString("SERVICE_HOURS_END"),
	}

	windowDays := v.GetInt("ALERT_WINDOW_DAYS")
	if windowDays < 0 {
		windowDays = 7
	}
	cfg.Alerts = AlertsConfig{WindowDays: windowDays}

	cfg.Routing = RoutingConfig{
		KakaoAPIKey:     strings.TrimSpace(v.GetString("KAKAO_REST_API_KEY")),
		LocalBaseURL:    v.GetString("KAKAO_LOCAL_BASE_URL"),
		NaviBaseURL:     v.GetString("KAKAO_NAVI_BASE_URL"),
		Provider:        v.GetString("ROUTING_PROVIDER"),
		Timeout:         parseDuration(v.GetString("ROUTING_TIMEOUT"), 10*time.Second),
		GeocodeCacheTTL: parseDuration(v.GetString("GEOCODE_CACHE_TTL"), 24*time.Hour),
		EstimateLockTTL: parseDuration(v.GetString("ROUTE_ESTIMATE_LOCK_TTL"), 15*time.Second),
	}

	maxUpload := v.GetInt64("UPLOAD_MAX_BYTES")
	if maxUpload <= 0 {
		maxUpload = 10 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		Dir:             v.GetString("UPLOAD_DIR"),
		TTL:             parseDuration(v.GetString("UPLOAD_TTL"), 6*time.Hour),
		MaxFileBytes:    maxUpload,
		CleanupSchedule: v.GetString("UPLOAD_CLEANUP_CRON"),
		SignedURLSecret: v.GetString("PHOTO_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("PHOTO_SIGNED_URL_TTL"), 30*time.Minute),
	}

	cfg.Checkins = CheckinConfig{
		LockTTL: parseDuration(v.GetString("CHECKIN_LOCK_TTL"), 5*time.Second),
	}

	cfg.Bootstrap = BootstrapConfig{
		AdminUsername:               v.GetString("ADMIN_USERNAME"),
		AdminPassword:               v.GetString("ADMIN_PASSWORD"),
		AdminName:                   v.GetString("ADMIN_NAME"),
		DefaultPhotographerPassword: v.GetString("DEFAULT_PHOTOGRAPHER_PASSWORD"),
	}

	cfg.Export = ExportConfig{
		FontDir:  v.GetString("EXPORT_FONT_DIR"),
		FontFile: v.GetString("EXPORT_FONT_FILE"),
		Font:     v.GetString("EXPORT_FONT"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "wedding_dispatch")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("TIMEZONE", "Asia/Seoul")
	v.SetDefault("SERVICE_HOURS_START", "06:00")
	v.SetDefault("SERVICE_HOURS_END", "17:00")
	v.SetDefault("ALERT_WINDOW_DAYS", 7)

	v.SetDefault("KAKAO_REST_API_KEY", "")
	v.SetDefault("KAKAO_LOCAL_BASE_URL", "https://dapi.kakao.com")
	v.SetDefault("KAKAO_NAVI_BASE_URL", "https://apis-navi.kakaomobility.com")
	v.SetDefault("ROUTING_PROVIDER", "kakao")
	v.SetDefault("ROUTING_TIMEOUT", "10s")
	v.SetDefault("GEOCODE_CACHE_TTL", "24h")
	v.SetDefault("ROUTE_ESTIMATE_LOCK_TTL", "15s")

	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("UPLOAD_TTL", "6h")
	v.SetDefault("UPLOAD_MAX_BYTES", 10*1024*1024)
	v.SetDefault("UPLOAD_CLEANUP_CRON", "@every 30m")
	v.SetDefault("PHOTO_SIGNED_URL_SECRET", "dev_photo_secret")
	v.SetDefault("PHOTO_SIGNED_URL_TTL", "30m")

	v.SetDefault("CHECKIN_LOCK_TTL", "5s")

	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD", "admin1234")
	v.SetDefault("ADMIN_NAME", "관리자")
	v.SetDefault("DEFAULT_PHOTOGRAPHER_PASSWORD", "1234")
}

func isMissingFile(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
