package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dgallion1/legalchunk/internal/chunker"
)

type Config struct {
	AppName  string
	Port     string
	LogLevel string

	// Auth. An empty list leaves the API open.
	APIKeys    []string
	apiKeysErr error

	// LLM chat backend
	LLMProvider string
	LLMBaseURL  string
	LLMModel    string
	LLMAPIKey   string
	LLMTimeout  time.Duration

	// Upload limits
	MaxUploadBytes int64

	// Chunking
	ChunkProfile   string
	ChunkThreshold int

	// PDF
	PDFFallbackPdftotext bool
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process
// environment. Variables already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func Load() Config {
	cfg := Config{
		AppName:  envOr("APP_NAME", "vietnam-legal-rag-agent"),
		Port:     envOr("PORT", "8000"),
		LogLevel: strings.ToLower(envOr("LOG_LEVEL", "info")),

		LLMProvider: strings.ToLower(envOr("LLM_PROVIDER", "groq")),
		LLMBaseURL:  os.Getenv("LLM_BASE_URL"),
		LLMModel:    envOr("LLM_MODEL", "openai/gpt-oss-120b"),
		LLMAPIKey:   os.Getenv("LLM_API_KEY"),
		LLMTimeout:  envDuration("LLM_TIMEOUT", 60*time.Second),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 20<<20), // 20MB

		ChunkProfile:   envOr("CHUNK_PROFILE", "vi"),
		ChunkThreshold: envInt("CHUNK_THRESHOLD", chunker.Threshold),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	cfg.APIKeys, cfg.apiKeysErr = parseKeys(os.Getenv("API_KEYS"))

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	if cfg.ChunkThreshold <= 0 {
		cfg.ChunkThreshold = chunker.Threshold
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 60 * time.Second
	}

	return cfg
}

func (c Config) Validate() error {
	if c.apiKeysErr != nil {
		return fmt.Errorf("API_KEYS: %w", c.apiKeysErr)
	}
	if _, ok := logLevels[c.LogLevel]; !ok {
		return fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel)
	}
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.LLMAPIKey != "" && c.LLMBaseURL == "" {
		if _, ok := providerURLs[c.LLMProvider]; !ok {
			return fmt.Errorf("LLM_PROVIDER %q is unknown; set LLM_BASE_URL", c.LLMProvider)
		}
	}
	if _, err := chunker.LookupProfile(c.ChunkProfile); err != nil {
		return fmt.Errorf("CHUNK_PROFILE: %w", err)
	}
	return nil
}

var logLevels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	if l, ok := logLevels[c.LogLevel]; ok {
		return l
	}
	return slog.LevelInfo
}

// OpenAI-compatible endpoints by provider name.
var providerURLs = map[string]string{
	"groq":   "https://api.groq.com/openai/v1",
	"openai": "https://api.openai.com/v1",
}

// ChatBaseURL returns LLM_BASE_URL, or the provider's default endpoint.
func (c Config) ChatBaseURL() string {
	if c.LLMBaseURL != "" {
		return strings.TrimRight(c.LLMBaseURL, "/")
	}
	return providerURLs[c.LLMProvider]
}

// parseKeys decodes API_KEYS, a JSON list of strings. Blank entries are
// dropped.
func parseKeys(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return nil, fmt.Errorf("must be a JSON list of strings: %w", err)
	}
	out := keys[:0]
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
