package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port   string
	Env    string
	Gemini GeminiConfig

	Log         LogConfig
	Store       StoreConfig
	Artifact    ArtifactConfig
	Translation TranslationConfig
	Retry       RetryConfig

	// RetainedResults is how many results survive the first storage
	// degradation step.
	RetainedResults int
}

type GeminiConfig struct {
	APIKey string
	// TextModel and ImageModel fall back to the client defaults when empty.
	TextModel  string
	ImageModel string
}

type LogConfig struct {
	File  string
	Level string
}

type StoreConfig struct {
	PostgresDSN string
	SQLitePath  string
	FilePath    string
}

type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// CanUseS3 reports whether enough is configured to reach a bucket.
func (a ArtifactConfig) CanUseS3() bool {
	return a.Enabled && a.Endpoint != "" && a.AccessKey != "" && a.SecretKey != "" && a.Bucket != ""
}

type TranslationConfig struct {
	// CacheSize bounds each project's cache. Zero means unbounded.
	CacheSize int
	Debounce  time.Duration
}

type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	// RateLimitRPS caps backend attempts per second. Zero disables it.
	RateLimitRPS   float64
	RateLimitBurst int
}

const (
	defaultCacheSize       = 512
	defaultDebounce        = 600 * time.Millisecond
	defaultRetainedResults = 10
	defaultRetryMax        = 5
	defaultRetryDelay      = time.Second
)

func Load() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("gateway", flag.ContinueOnError)
	port := fs.String("port", ":8081", "server port")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	cfg := &Config{
		Port: *port,
		Env:  env,
		Gemini: GeminiConfig{
			APIKey:     strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			TextModel:  strings.TrimSpace(os.Getenv("GEMINI_TEXT_MODEL")),
			ImageModel: strings.TrimSpace(os.Getenv("GEMINI_IMAGE_MODEL")),
		},
		Log: LogConfig{
			File:  strings.TrimSpace(os.Getenv("LOG_FILE")),
			Level: firstNonEmpty(strings.TrimSpace(os.Getenv("LOG_LEVEL")), "info"),
		},
		Store: StoreConfig{
			PostgresDSN: strings.TrimSpace(os.Getenv("PROJECT_STORE_PG_DSN")),
			SQLitePath:  strings.TrimSpace(os.Getenv("PROJECT_STORE_SQLITE_PATH")),
			FilePath:    firstNonEmpty(strings.TrimSpace(os.Getenv("PROJECT_STORE_PATH")), "tmp/projects.json"),
		},
		Artifact: loadArtifactConfig(env),
		Translation: TranslationConfig{
			CacheSize: envInt("TRANSLATION_CACHE_SIZE", defaultCacheSize),
			Debounce:  time.Duration(envInt("AUTO_TRANSLATE_DEBOUNCE_MS", int(defaultDebounce/time.Millisecond))) * time.Millisecond,
		},
		Retry: RetryConfig{
			MaxRetries:     envInt("RETRY_MAX", defaultRetryMax),
			InitialDelay:   time.Duration(envInt("RETRY_INITIAL_DELAY_MS", int(defaultRetryDelay/time.Millisecond))) * time.Millisecond,
			RateLimitRPS:   envFloat("LLM_RATE_LIMIT_RPS", 0),
			RateLimitBurst: envInt("LLM_RATE_LIMIT_BURST", 1),
		},
		RetainedResults: envInt("RETAINED_RESULTS", defaultRetainedResults),
	}
	if cfg.IsLocal() {
		applyLocalDefaults(cfg)
	}
	return cfg, nil
}

func (c *Config) IsLocal() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "local")
}

func loadArtifactConfig(env string) ArtifactConfig {
	endpoint := resolveArtifactEndpoint(env)
	return ArtifactConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "promptlab-results"),
		UseSSL:    envBool("ARTIFACT_S3_USE_SSL", true),
	}
}

func resolveArtifactEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_MINIO_ENDPOINT")), strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT")))
	}
	return strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// envInt reads a non-negative integer, falling back on absence or garbage.
func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func envFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}
