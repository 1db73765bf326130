package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderStub   = "stub"

	// stubCredential stands in for a key when the stub provider needs none.
	stubCredential = "stub"
)

type Config struct {
	Port     string
	Provider string

	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	MaxImageBytes    int64
	UpstreamTimeout  time.Duration
	EchoImage        bool
	EchoMaxDimension int

	StaticDir   string
	CORSOrigins []string
	LogLevel    string
	LogFormat   string

	TelegramBotToken string
	WebhookURL       string
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing required env %s", k)
	}
	return v
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getInt64(k string, def int64) int64 {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		log.WithField("key", k).Warnf("invalid value %q, using %d", v, def)
		return def
	}
	return n
}

func getBool(k string, def bool) bool {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.WithField("key", k).Warnf("invalid value %q, using %t", v, def)
		return def
	}
	return b
}

// getDuration accepts a Go duration ("45s", "1m") or a bare number of seconds.
func getDuration(k string, def time.Duration) time.Duration {
	v := getEnv(k, "")
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.WithField("key", k).Warnf("invalid value %q, using %s", v, def)
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads .env (if present) and the environment. A missing provider
// credential is not fatal here; analyze calls report it instead.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("cannot read .env")
	}

	return &Config{
		Port:     getEnv("PORT", "8000"),
		Provider: ProviderName(getEnv("LLM_PROVIDER", ProviderGemini)),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),

		MaxImageBytes:    getInt64("MAX_IMAGE_BYTES", 20<<20),
		UpstreamTimeout:  getDuration("UPSTREAM_TIMEOUT", 30*time.Second),
		EchoImage:        getBool("ECHO_IMAGE", true),
		EchoMaxDimension: int(getInt64("ECHO_MAX_DIMENSION", 1024)),

		StaticDir:   getEnv("STATIC_DIR", "./frontend"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
	}
}

// LoadBot is Load for the Telegram bot, which cannot start without a token.
func LoadBot() *Config {
	c := Load()
	c.TelegramBotToken = mustEnv("TELEGRAM_BOT_TOKEN")
	return c
}

// ProviderName folds provider aliases onto the Provider* constants. Unknown
// names are returned lower-cased so engine selection can reject them.
func ProviderName(s string) string {
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case "", ProviderGemini, "google":
		return ProviderGemini
	case ProviderOpenAI, "gpt":
		return ProviderOpenAI
	case ProviderStub, "fake":
		return ProviderStub
	}
	return s
}

// Credential returns the secret of the active provider, or "" when unset.
func (c *Config) Credential() string {
	switch ProviderName(c.Provider) {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderStub:
		return stubCredential
	case ProviderGemini:
		return c.GeminiAPIKey
	}
	return ""
}
