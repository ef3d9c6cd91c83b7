// Package config loads the moderation service settings from the environment,
// after applying an optional .env file.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/whisper/chat-moderation/internal/moderation"
	"github.com/whisper/chat-moderation/internal/offense"
)

// Config is the full service configuration.
type Config struct {
	LogLevel  string
	LogFormat string

	DataDir     string
	LexiconPath string
	LUTPath     string
	Threshold   float64
	WatchLUT    bool

	FallbackTerms  []string
	SanitizerWords string // word list path, empty for the basic tier only
	SanitizerMask  rune
	SanitizeNotice string

	Store offense.StoreConfig

	NATSURL     string
	MetricsAddr string
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	dataDir := filepath.Join("data", "moderation")
	store := offense.DefaultStoreConfig()
	store.BoltPath = filepath.Join(dataDir, "offenses.db")
	return Config{
		LogLevel:       "info",
		LogFormat:      "text",
		DataDir:        dataDir,
		LexiconPath:    filepath.Join(dataDir, "hate_speech_lexicon.txt"),
		LUTPath:        filepath.Join(dataDir, "profanity_lut.json"),
		Threshold:      moderation.DefaultThreshold,
		WatchLUT:       true,
		SanitizerMask:  '*',
		SanitizeNotice: "Your message contained profanity and was sanitized.",
		Store:          store,
		NATSURL:        "nats://localhost:4222",
		MetricsAddr:    ":9102",
	}
}

// Load reads .env (if present) and the environment on top of Default. Paths
// not set explicitly follow MODERATION_DATA_DIR.
func Load(log logrus.FieldLogger) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}
	return FromEnv(log), nil
}

// FromEnv builds the configuration from the current environment.
func FromEnv(log logrus.FieldLogger) Config {
	cfg := Default()

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)

	cfg.DataDir = getEnv("MODERATION_DATA_DIR", cfg.DataDir)
	cfg.LexiconPath = getEnv("LEXICON_PATH", filepath.Join(cfg.DataDir, "hate_speech_lexicon.txt"))
	cfg.LUTPath = getEnv("LUT_PATH", filepath.Join(cfg.DataDir, "profanity_lut.json"))
	cfg.Threshold = getEnvFloat("LUT_THRESHOLD", cfg.Threshold, log)
	if cfg.Threshold <= 0 || cfg.Threshold >= 1 {
		log.WithField("threshold", cfg.Threshold).Warn("LUT_THRESHOLD outside (0,1), using default")
		cfg.Threshold = moderation.DefaultThreshold
	}
	cfg.WatchLUT = getEnvBool("LUT_WATCH", cfg.WatchLUT, log)

	cfg.FallbackTerms = getEnvList("FALLBACK_TERMS")
	cfg.SanitizerWords = getEnv("SANITIZER_WORDLIST", "")
	if mask := getEnv("SANITIZER_MASK", ""); mask != "" {
		cfg.SanitizerMask = []rune(mask)[0]
	}
	cfg.SanitizeNotice = getEnv("SANITIZE_NOTICE", cfg.SanitizeNotice)

	cfg.Store.Backend = getEnv("OFFENSE_STORE", cfg.Store.Backend)
	cfg.Store.BoltPath = getEnv("OFFENSE_BOLT_PATH", filepath.Join(cfg.DataDir, "offenses.db"))
	cfg.Store.RedisAddr = getEnv("REDIS_ADDR", cfg.Store.RedisAddr)
	cfg.Store.PostgresDSN = getEnv("POSTGRES_DSN", cfg.Store.PostgresDSN)

	cfg.NATSURL = getEnv("NATS_URL", cfg.NATSURL)
	cfg.MetricsAddr = getEnv("METRICS_ADDR", cfg.MetricsAddr)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool, log logrus.FieldLogger) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.WithField("key", key).WithError(err).Warn("invalid boolean, using default")
		return def
	}
	return b
}

func getEnvFloat(key string, def float64, log logrus.FieldLogger) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.WithField("key", key).WithError(err).Warn("invalid number, using default")
		return def
	}
	return f
}

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
