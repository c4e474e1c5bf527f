package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config centralizes runtime settings for the API and the report worker.
type Config struct {
	Port string

	DatabaseURL string

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	RedisEventStream  string
	RedisStreamMaxLen int64

	OpenAIAPIKey        string
	OpenAIBaseURL       string
	OpenAIModel         string
	OpenAIAnswerModel   string
	OpenAIFallbackModel string
	OpenAITimeoutMS     int

	SerpAPIKey          string
	SerpAPIBaseURL      string
	SerpAPILocation     string
	SerpAPIGoogleDomain string
	SerpAPIHL           string
	SerpAPIGL           string

	SearchCacheTTLSeconds int
	SearchCacheMaxEntries int

	RetryMax    int
	RetryBaseMS int

	QueueTickMS           int
	BrandCompareThreshold int
	QuestionIntervalMS    int

	ReportsDir string
	GCSBucket  string
	GCSPrefix  string

	CORSAllowedOrigins []string

	RateLimitRPS   float64
	RateLimitBurst int

	WorkerEnabled bool
}

func Load() Config {
	return Config{
		Port: getEnv("PORT", "3001"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		RedisEventStream:  getEnv("REDIS_EVENT_STREAM", "geo_report_events"),
		RedisStreamMaxLen: int64(getEnvInt("REDIS_STREAM_MAXLEN", 10000)),

		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4.1"),
		OpenAIAnswerModel:   getEnv("OPENAI_ANSWER_MODEL", "gpt-4.1"),
		OpenAIFallbackModel: getEnv("OPENAI_FALLBACK_MODEL", "gpt-4.1-mini"),
		OpenAITimeoutMS:     getEnvInt("OPENAI_TIMEOUT_MS", 60000),

		SerpAPIKey:          getEnv("SERPAPI_KEY", ""),
		SerpAPIBaseURL:      getEnv("SERPAPI_BASE_URL", "https://serpapi.com"),
		SerpAPILocation:     getEnv("SERPAPI_LOCATION", "Taiwan"),
		SerpAPIGoogleDomain: getEnv("SERPAPI_GOOGLE_DOMAIN", "google.com.tw"),
		SerpAPIHL:           getEnv("SERPAPI_HL", "zh-tw"),
		SerpAPIGL:           getEnv("SERPAPI_GL", "tw"),

		SearchCacheTTLSeconds: getEnvInt("SEARCH_CACHE_TTL_SECONDS", 21600),
		SearchCacheMaxEntries: getEnvInt("SEARCH_CACHE_MAX_ENTRIES", 1000),

		RetryMax:    getEnvInt("RETRY_MAX", 3),
		RetryBaseMS: getEnvInt("RETRY_BASE_MS", 2000),

		QueueTickMS:           getEnvInt("QUEUE_TICK_MS", 5000),
		BrandCompareThreshold: getEnvInt("BRAND_COMPARE_THRESHOLD", 1),
		QuestionIntervalMS:    getEnvInt("QUESTION_INTERVAL_MS", 0),

		ReportsDir: getEnv("REPORTS_DIR", "reports"),
		GCSBucket:  getEnv("GCS_BUCKET", ""),
		GCSPrefix:  getEnv("GCS_PREFIX", "reports"),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 40),

		WorkerEnabled: getEnvBool("WORKER_ENABLED", true),
	}
}

func (c Config) OpenAITimeout() time.Duration {
	return time.Duration(c.OpenAITimeoutMS) * time.Millisecond
}

func (c Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseMS) * time.Millisecond
}

func (c Config) QueueTick() time.Duration {
	return time.Duration(c.QueueTickMS) * time.Millisecond
}

func (c Config) QuestionInterval() time.Duration {
	return time.Duration(c.QuestionIntervalMS) * time.Millisecond
}

func (c Config) SearchCacheTTL() time.Duration {
	return time.Duration(c.SearchCacheTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
