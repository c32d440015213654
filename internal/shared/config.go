package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	// scraping
	Workers          int
	PageCap          int
	MaxEmptyPages    int
	PageRetries      int
	PageDelay        time.Duration
	RetryDelay       time.Duration
	PageTimeout      time.Duration
	DiscoveryTimeout time.Duration
	Backend          string // http | rod
	UserAgent        string
	AcceptLanguage   string
	Proxy            string
	SessionRPS       float64
	ChromeBin        string
	ProfilePath      string
	TargetPrefix     string

	// scoring
	LengthNorm      float64
	VotesNorm       float64
	SentimentURL    string
	AuthenticityURL string
	InferenceKey    string

	// summary
	LLMBaseURL     string
	LLMKey         string
	LLMModel       string
	LLMReviewCount int

	// api
	RateLimitRPM   int
	CORSOrigins    []string
	RequestTimeout time.Duration
	TrustProxy     bool // honour X-Real-IP / X-Forwarded-For from a fronting proxy
}

// Load reads configuration from the environment after applying an optional .env file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to read .env")
	}

	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),

		RedisAddr: env("REDIS_ADDR", "localhost:6379"),
		RedisDB:   atoi("REDIS_DB", 0),
		RedisPass: env("REDIS_PASSWORD", ""),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 86400)) * time.Second,

		Workers:          atoi("SCRAPE_WORKERS", 1),
		PageCap:          atoi("PAGE_CAP", 50),
		MaxEmptyPages:    atoi("MAX_EMPTY_PAGES", 3),
		PageRetries:      atoi("PAGE_RETRIES", 2),
		PageDelay:        dur("PAGE_DELAY", 500*time.Millisecond),
		RetryDelay:       dur("RETRY_DELAY", time.Second),
		PageTimeout:      dur("PAGE_TIMEOUT", 3*time.Second),
		DiscoveryTimeout: dur("DISCOVERY_TIMEOUT", 5*time.Second),
		Backend:          strings.ToLower(env("SCRAPER_BACKEND", "http")),
		UserAgent:        env("SCRAPER_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"),
		AcceptLanguage:   env("SCRAPER_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
		Proxy:            env("SCRAPER_PROXY", ""),
		SessionRPS:       atof("SCRAPER_RPS", 2),
		ChromeBin:        env("CHROME_BIN", ""),
		ProfilePath:      env("SCRAPER_PROFILE", ""),
		TargetPrefix:     env("TARGET_PREFIX", "https://www.flipkart.com/"),

		LengthNorm:      atof("LENGTH_SCORE_NORM", 300),
		VotesNorm:       atof("VOTES_NORM", 10),
		SentimentURL:    env("SENTIMENT_MODEL_URL", "http://localhost:8500/sentiment"),
		AuthenticityURL: env("AUTHENTICITY_MODEL_URL", "http://localhost:8500/authenticity"),
		InferenceKey:    env("INFERENCE_API_KEY", ""),

		LLMBaseURL:     env("LLM_BASE_URL", ""),
		LLMKey:         env("LLM_API_KEY", os.Getenv("GEMINI_API_KEY")),
		LLMModel:       env("LLM_MODEL", "gemini-1.5-flash"),
		LLMReviewCount: atoi("LLM_REVIEW_COUNT", 20),

		RateLimitRPM:   atoi("RATE_LIMIT_RPM", 10),
		CORSOrigins:    list("CORS_ORIGINS", "*"),
		RequestTimeout: dur("REQUEST_TIMEOUT", 2*time.Minute),
		TrustProxy:     flag("TRUST_PROXY", false),
	}
	if c.LLMKey == "" {
		log.Warn().Msg("LLM_API_KEY is empty, summaries disabled")
	}
	if c.Backend != "http" && c.Backend != "rod" {
		log.Warn().Str("backend", c.Backend).Msg("unknown SCRAPER_BACKEND, using http")
		c.Backend = "http"
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warn().Str("key", k).Str("value", v).Msg("invalid integer, using default")
	}
	return def
}

func atof(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Warn().Str("key", k).Str("value", v).Msg("invalid number, using default")
	}
	return def
}

func flag(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Warn().Str("key", k).Str("value", v).Msg("invalid boolean, using default")
	}
	return def
}

// dur accepts Go durations ("750ms") or plain milliseconds.
func dur(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	log.Warn().Str("key", k).Str("value", v).Msg("invalid duration, using default")
	return def
}

func list(k, def string) []string {
	var out []string
	for _, p := range strings.Split(env(k, def), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
