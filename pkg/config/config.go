package config

import (
	"errors"
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

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Hostel   HostelConfig
	Notices  NoticesConfig
	Reports  ReportsConfig
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
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// HostelConfig seeds the runtime settings store on first boot. The values
// here are defaults only; the settings API owns them afterwards.
type HostelConfig struct {
	Name            string
	CenterLatitude  float64
	CenterLongitude float64
	GeofenceRadiusM float64
	WindowEnabled   bool
	WindowStartHour int
	WindowEndHour   int
	GraceMinutes    int
	Timezone        string
	MaxGatePassDays int
	MaxPendingPass  int
}

// NoticesConfig tunes notice board caching.
type NoticesConfig struct {
	CacheTTL time.Duration
}

// ReportsConfig gates the export endpoints and tunes async export jobs.
type ReportsConfig struct {
	Enabled    bool
	ExportDir  string
	ExportTTL  time.Duration
	SignSecret string
	Workers    int
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

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
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Hostel = HostelConfig{
		Name:            v.GetString("HOSTEL_NAME"),
		CenterLatitude:  v.GetFloat64("HOSTEL_CENTER_LAT"),
		CenterLongitude: v.GetFloat64("HOSTEL_CENTER_LNG"),
		GeofenceRadiusM: v.GetFloat64("HOSTEL_GEOFENCE_RADIUS_M"),
		WindowEnabled:   v.GetBool("ATTENDANCE_WINDOW_ENABLED"),
		WindowStartHour: v.GetInt("ATTENDANCE_WINDOW_START_HOUR"),
		WindowEndHour:   v.GetInt("ATTENDANCE_WINDOW_END_HOUR"),
		GraceMinutes:    v.GetInt("ATTENDANCE_GRACE_MINUTES"),
		Timezone:        v.GetString("HOSTEL_TIMEZONE"),
		MaxGatePassDays: v.GetInt("GATEPASS_MAX_DAYS"),
		MaxPendingPass:  v.GetInt("GATEPASS_MAX_PENDING"),
	}

	cfg.Notices = NoticesConfig{
		CacheTTL: parseDuration(v.GetString("NOTICES_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Reports = ReportsConfig{
		Enabled:    v.GetBool("ENABLE_REPORTS"),
		ExportDir:  v.GetString("REPORTS_EXPORT_DIR"),
		ExportTTL:  parseDuration(v.GetString("REPORTS_EXPORT_TTL"), 24*time.Hour),
		SignSecret: v.GetString("REPORTS_SIGN_SECRET"),
		Workers:    v.GetInt("REPORTS_EXPORT_WORKERS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "hostel_ops")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("HOSTEL_NAME", "Main Hostel")
	v.SetDefault("HOSTEL_CENTER_LAT", 28.986701)
	v.SetDefault("HOSTEL_CENTER_LNG", 77.152050)
	v.SetDefault("HOSTEL_GEOFENCE_RADIUS_M", 50)
	v.SetDefault("ATTENDANCE_WINDOW_ENABLED", true)
	v.SetDefault("ATTENDANCE_WINDOW_START_HOUR", 19)
	v.SetDefault("ATTENDANCE_WINDOW_END_HOUR", 20)
	v.SetDefault("ATTENDANCE_GRACE_MINUTES", 15)
	v.SetDefault("HOSTEL_TIMEZONE", "Asia/Kolkata")
	v.SetDefault("GATEPASS_MAX_DAYS", 14)
	v.SetDefault("GATEPASS_MAX_PENDING", 3)

	v.SetDefault("NOTICES_CACHE_TTL", "5m")
	v.SetDefault("ENABLE_REPORTS", true)
	v.SetDefault("REPORTS_EXPORT_DIR", "./exports")
	v.SetDefault("REPORTS_EXPORT_TTL", "24h")
	v.SetDefault("REPORTS_SIGN_SECRET", "dev_export_secret")
	v.SetDefault("REPORTS_EXPORT_WORKERS", 2)
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
