package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key when read from the environment,
// e.g. BOOKSHELF_STORE_BACKEND.
const EnvPrefix = "BOOKSHELF"

const (
	StoreSQLite = "sqlite"
	StoreBadger = "badger"
	StoreFile   = "file"

	CatalogGoogle = "google"
	CatalogOPDS   = "opds"

	RecommenderGemini = "gemini"
	RecommenderOllama = "ollama"
)

type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	DataDir      string `mapstructure:"data_dir"`
	StoreBackend string `mapstructure:"store_backend"`
	// SeedFile replaces the bundled starter library when set.
	SeedFile string `mapstructure:"seed_file"`

	CatalogSource     string `mapstructure:"catalog_source"`
	GoogleBooksURL    string `mapstructure:"google_books_url"`
	GoogleBooksAPIKey string `mapstructure:"google_books_api_key"`
	SearchLanguage    string `mapstructure:"search_language"`
	SearchMaxResults  int    `mapstructure:"search_max_results"`
	OPDSSearchURL     string `mapstructure:"opds_search_url"`
	OPDSUsername      string `mapstructure:"opds_username"`
	OPDSPassword      string `mapstructure:"opds_password"`

	Recommender         string `mapstructure:"recommender"`
	GeminiAPIKey        string `mapstructure:"gemini_api_key"`
	GeminiModel         string `mapstructure:"gemini_model"`
	OllamaHost          string `mapstructure:"ollama_host"`
	OllamaModel         string `mapstructure:"ollama_model"`
	RecommendationCount int    `mapstructure:"recommendation_count"`

	HTTPTimeout      time.Duration `mapstructure:"http_timeout"`
	HTTPMaxRetries   int           `mapstructure:"http_max_retries"`
	BreakerThreshold int           `mapstructure:"breaker_threshold"`
	BreakerCooldown  time.Duration `mapstructure:"breaker_cooldown"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("store_backend", StoreSQLite)
	v.SetDefault("seed_file", "")

	v.SetDefault("catalog_source", CatalogGoogle)
	v.SetDefault("google_books_url", "https://www.googleapis.com/books/v1")
	v.SetDefault("google_books_api_key", "")
	v.SetDefault("search_language", "")
	v.SetDefault("search_max_results", 10)
	v.SetDefault("opds_search_url", "")
	v.SetDefault("opds_username", "")
	v.SetDefault("opds_password", "")

	v.SetDefault("recommender", RecommenderGemini)
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("gemini_model", "gemini-2.5-flash")
	v.SetDefault("ollama_host", "http://localhost:11434")
	v.SetDefault("ollama_model", "llama3")
	v.SetDefault("recommendation_count", 5)

	v.SetDefault("http_timeout", 15*time.Second)
	v.SetDefault("http_max_retries", 2)
	v.SetDefault("breaker_threshold", 3)
	v.SetDefault("breaker_cooldown", 30*time.Second)
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "bookshelf")
	}
	return ".bookshelf"
}

// Load reads the configuration from defaults, an optional config file, a .env
// file in the working directory and BOOKSHELF_* environment variables, in
// increasing order of precedence.
func Load(configFile string) (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	c.CatalogSource = strings.ToLower(strings.TrimSpace(c.CatalogSource))
	c.Recommender = strings.ToLower(strings.TrimSpace(c.Recommender))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}

// Validate ensures that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreBackend {
	case StoreSQLite, StoreBadger, StoreFile:
	default:
		errs = append(errs, fmt.Errorf("store_backend must be one of sqlite, badger, file; got %q", c.StoreBackend))
	}
	if strings.TrimSpace(c.DataDir) == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}

	switch c.CatalogSource {
	case CatalogGoogle:
	case CatalogOPDS:
		if !strings.Contains(c.OPDSSearchURL, "{searchTerms}") {
			errs = append(errs, errors.New("opds_search_url with a {searchTerms} slot is required when catalog_source is opds"))
		}
	default:
		errs = append(errs, fmt.Errorf("catalog_source must be google or opds; got %q", c.CatalogSource))
	}

	switch c.Recommender {
	case RecommenderGemini, RecommenderOllama:
	default:
		errs = append(errs, fmt.Errorf("recommender must be gemini or ollama; got %q", c.Recommender))
	}

	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be console or json; got %q", c.LogFormat))
	}

	if c.SearchMaxResults < 1 || c.SearchMaxResults > 40 {
		errs = append(errs, errors.New("search_max_results must be between 1 and 40"))
	}
	if c.RecommendationCount < 1 {
		errs = append(errs, errors.New("recommendation_count must be at least 1"))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("http_timeout must be positive"))
	}
	if c.HTTPMaxRetries < 0 {
		errs = append(errs, errors.New("http_max_retries cannot be negative"))
	}
	if c.BreakerThreshold < 1 {
		errs = append(errs, errors.New("breaker_threshold must be at least 1"))
	}
	if c.BreakerCooldown < 0 {
		errs = append(errs, errors.New("breaker_cooldown cannot be negative"))
	}

	return errors.Join(errs...)
}

// StorePath is where the selected backend keeps its data.
func (c *Config) StorePath() string {
	switch c.StoreBackend {
	case StoreBadger:
		return filepath.Join(c.DataDir, "badger")
	case StoreFile:
		return filepath.Join(c.DataDir, "books.json")
	default:
		return filepath.Join(c.DataDir, "bookshelf.db")
	}
}
