package config

import (
	"errors"
	"fmt"
	"strconv"
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

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	GradeScale  []GradeBand
	Summaries   SummariesConfig
	Transcripts TranscriptsConfig
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

// GradeBand maps a minimum percentage to a letter grade and grade points.
// Bands are kept in configuration so institutions can vary the scale
// without touching aggregation logic.
type GradeBand struct {
	MinPercent float64
	Letter     string
	GradePoint float64
}

// SummariesConfig tunes academic summary caching.
type SummariesConfig struct {
	CacheTTL time.Duration
}

// TranscriptsConfig governs the transcript request workflow.
type TranscriptsConfig struct {
	// AllowDuplicatePending permits a student to hold more than one open
	// request at a time. The registrar can tighten this per deployment.
	AllowDuplicatePending bool
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

	scale, err := ParseGradeScale(v.GetString("GRADE_SCALE"))
	if err != nil {
		return nil, err
	}
	cfg.GradeScale = scale

	cfg.Summaries = SummariesConfig{
		CacheTTL: parseDuration(v.GetString("SUMMARY_CACHE_TTL"), 2*time.Minute),
	}

	cfg.Transcripts = TranscriptsConfig{
		AllowDuplicatePending: v.GetBool("TRANSCRIPTS_ALLOW_DUPLICATE_PENDING"),
	}

	return cfg, nil
}

// ParseGradeScale parses a comma separated list of min:letter:points bands,
// e.g. "90:A:4.0,80:B:3.0,70:C:2.0,60:D:1.0,0:F:0.0". Bands must be ordered
// highest threshold first.
func ParseGradeScale(raw string) ([]GradeBand, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("grade scale is empty")
	}
	parts := strings.Split(raw, ",")
	bands := make([]GradeBand, 0, len(parts))
	prev := 101.0
	for _, part := range parts {
		fields := strings.Split(strings.TrimSpace(part), ":")
		if len(fields) != 3 {
			return nil, fmt.Errorf("malformed grade band %q", part)
		}
		min, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("grade band %q: %w", part, err)
		}
		points, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("grade band %q: %w", part, err)
		}
		letter := strings.TrimSpace(fields[1])
		if letter == "" {
			return nil, fmt.Errorf("grade band %q: empty letter", part)
		}
		if min < 0 || min > 100 {
			return nil, fmt.Errorf("grade band %q: threshold out of range", part)
		}
		if min >= prev {
			return nil, fmt.Errorf("grade band %q: thresholds must be strictly descending", part)
		}
		prev = min
		bands = append(bands, GradeBand{MinPercent: min, Letter: letter, GradePoint: points})
	}
	if bands[len(bands)-1].MinPercent != 0 {
		return nil, fmt.Errorf("grade scale must end with a 0%% band")
	}
	return bands, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "uni_portal")
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

	v.SetDefault("GRADE_SCALE", "90:A:4.0,80:B:3.0,70:C:2.0,60:D:1.0,0:F:0.0")
	v.SetDefault("SUMMARY_CACHE_TTL", "2m")
	v.SetDefault("TRANSCRIPTS_ALLOW_DUPLICATE_PENDING", true)
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
