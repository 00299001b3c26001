package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. All knobs are data, so
// they can come from config.yaml, BLF_* environment variables, or defaults.
type Config struct {
	Phone   PhoneConfig   `yaml:"phone" mapstructure:"phone"`
	Domains DomainsConfig `yaml:"domains" mapstructure:"domains"`
	Probe   ProbeConfig   `yaml:"probe" mapstructure:"probe"`
	Score   ScoreConfig   `yaml:"score" mapstructure:"score"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// PhoneConfig configures phone normalization.
type PhoneConfig struct {
	// DefaultCountryCode is prepended to national numbers, e.g. "+212".
	DefaultCountryCode string `yaml:"default_country_code" mapstructure:"default_country_code"`
	// NationalLength is the digit count of a national number without the
	// leading zero (9 for Morocco).
	NationalLength int `yaml:"national_length" mapstructure:"national_length"`
}

// DomainsConfig configures candidate domain generation.
type DomainsConfig struct {
	TLDs          []string `yaml:"tlds" mapstructure:"tlds"`
	Suffixes      []string `yaml:"suffixes" mapstructure:"suffixes"`
	GenericWords  []string `yaml:"generic_words" mapstructure:"generic_words"`
	MaxCandidates int      `yaml:"max_candidates" mapstructure:"max_candidates"`
	// CategoryAliases maps a category to the business-type words tried as
	// domain prefixes/suffixes. A cafe often brands its domain with
	// "restaurant", so both are probed.
	CategoryAliases map[string][]string `yaml:"category_aliases" mapstructure:"category_aliases"`
}

// ProbeConfig configures the website prober.
type ProbeConfig struct {
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Workers          int    `yaml:"workers" mapstructure:"workers"`
	RateIntervalMS   int    `yaml:"rate_interval_ms" mapstructure:"rate_interval_ms"`
	CacheTTLSecs     int    `yaml:"cache_ttl_secs" mapstructure:"cache_ttl_secs"`
	UserAgent        string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxRedirects     int    `yaml:"max_redirects" mapstructure:"max_redirects"`
	DisableEarlyExit bool   `yaml:"disable_early_exit" mapstructure:"disable_early_exit"`
	StageTimeoutSecs int    `yaml:"stage_timeout_secs" mapstructure:"stage_timeout_secs"`
}

// Timeout returns the per-request probe timeout.
func (p ProbeConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSecs) * time.Second
}

// RateInterval returns the minimum spacing between probe requests.
func (p ProbeConfig) RateInterval() time.Duration {
	return time.Duration(p.RateIntervalMS) * time.Millisecond
}

// CacheTTL returns the probe cache time-to-live.
func (p ProbeConfig) CacheTTL() time.Duration {
	return time.Duration(p.CacheTTLSecs) * time.Second
}

// StageTimeout returns the overall probing stage deadline.
func (p ProbeConfig) StageTimeout() time.Duration {
	return time.Duration(p.StageTimeoutSecs) * time.Second
}

// ScoreConfig configures lead scoring.
type ScoreConfig struct {
	HighValueCategories []string `yaml:"high_value_categories" mapstructure:"high_value_categories"`
	TouristLandmarks    []string `yaml:"tourist_landmarks" mapstructure:"tourist_landmarks"`
}

// StoreConfig configures optional run persistence. An empty driver disables
// persistence entirely; the core keeps no cross-run state on its own.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	Path   string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BLF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("phone.default_country_code", "+212")
	v.SetDefault("phone.national_length", 9)
	v.SetDefault("domains.tlds", []string{".com", ".ma", ".net", ".org"})
	v.SetDefault("domains.suffixes", []string{"marrakech", "morocco"})
	v.SetDefault("domains.generic_words", []string{
		"restaurant", "hotel", "cafe", "riad", "spa", "shop", "store", "bar",
		"le", "la", "les", "de", "des", "du", "l", "d",
	})
	v.SetDefault("domains.max_candidates", 16)
	v.SetDefault("domains.category_aliases", map[string][]string{
		"cafe":       {"cafe", "restaurant"},
		"restaurant": {"restaurant", "cafe"},
		"hotel":      {"hotel", "riad"},
		"riad":       {"riad", "hotel"},
	})
	v.SetDefault("probe.timeout_secs", 10)
	v.SetDefault("probe.workers", 6)
	v.SetDefault("probe.rate_interval_ms", 250)
	v.SetDefault("probe.cache_ttl_secs", 3600)
	v.SetDefault("probe.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("probe.max_redirects", 5)
	v.SetDefault("probe.stage_timeout_secs", 300)
	v.SetDefault("score.high_value_categories", []string{
		"restaurant", "hotel", "spa", "cafe", "shop", "service",
	})
	v.SetDefault("score.tourist_landmarks", []string{
		"medina", "gueliz", "hivernage", "majorelle",
	})
	v.SetDefault("store.driver", "")
	v.SetDefault("store.path", "blf.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks for configuration mistakes that must fail fast, before any
// record is processed. Data-quality issues downstream are never fatal; a
// broken configuration is the only fatal class.
func (c *Config) Validate() error {
	if c.Phone.DefaultCountryCode == "" || !strings.HasPrefix(c.Phone.DefaultCountryCode, "+") {
		return eris.Errorf("config: default country code %q must start with +", c.Phone.DefaultCountryCode)
	}
	if c.Phone.NationalLength <= 0 {
		return eris.New("config: national length must be positive")
	}
	if len(c.Domains.TLDs) == 0 {
		return eris.New("config: at least one TLD is required")
	}
	if c.Domains.MaxCandidates <= 0 {
		return eris.New("config: max candidates must be positive")
	}
	if c.Probe.TimeoutSecs <= 0 {
		return eris.New("config: probe timeout must be positive")
	}
	if c.Probe.Workers <= 0 {
		return eris.New("config: probe workers must be positive")
	}
	if c.Probe.RateIntervalMS < 0 {
		return eris.New("config: rate interval must not be negative")
	}
	if c.Probe.MaxRedirects < 0 {
		return eris.New("config: max redirects must not be negative")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
