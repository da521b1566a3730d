package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Regions RegionsConfig `yaml:"regions" mapstructure:"regions"`
	Render  RenderConfig  `yaml:"render" mapstructure:"render"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SourcesConfig locates the geometry and tabular datasets.
type SourcesConfig struct {
	Geometry       string `yaml:"geometry" mapstructure:"geometry"`
	GeometryObject string `yaml:"geometry_object" mapstructure:"geometry_object"`
	Table          string `yaml:"table" mapstructure:"table"`
	CodeColumn     string `yaml:"code_column" mapstructure:"code_column"`
	ValueColumn    string `yaml:"value_column" mapstructure:"value_column"`
	Sheet          string `yaml:"sheet" mapstructure:"sheet"`
	TempDir        string `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// RegionsConfig names the region properties the maps read.
type RegionsConfig struct {
	LabelKeys  []string `yaml:"label_keys" mapstructure:"label_keys"`
	CodeKey    string   `yaml:"code_key" mapstructure:"code_key"`
	EarlierKey string   `yaml:"earlier_key" mapstructure:"earlier_key"`
	LaterKey   string   `yaml:"later_key" mapstructure:"later_key"`
}

// RenderConfig configures map output.
type RenderConfig struct {
	ViewportWidth  int    `yaml:"viewport_width" mapstructure:"viewport_width"`
	ViewportHeight int    `yaml:"viewport_height" mapstructure:"viewport_height"`
	Title          string `yaml:"title" mapstructure:"title"`
	Output         string `yaml:"output" mapstructure:"output"`
	NoDataColor    string `yaml:"no_data_color" mapstructure:"no_data_color"`
	UnifyMissing   bool   `yaml:"unify_missing" mapstructure:"unify_missing"`
}

// MapWidth is the drawing width of each map: 80% of the viewport.
func (r RenderConfig) MapWidth() float64 {
	return float64(r.ViewportWidth) * 0.8
}

// MapHeight is the drawing height of each map: a third of the viewport.
func (r RenderConfig) MapHeight() float64 {
	return float64(r.ViewportHeight) / 3
}

// FetchConfig configures remote source downloads.
type FetchConfig struct {
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RefreshSecs    int      `yaml:"refresh_secs" mapstructure:"refresh_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from ./config.yaml (if present) and environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads configuration from path, or from an optional ./config.yaml
// when path is empty. An explicit path that cannot be read is an error.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("CHOROPLETH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("sources.geometry", "./data/towns.topojson")
	v.SetDefault("sources.geometry_object", "ma")
	v.SetDefault("sources.table", "./data/gini_index.csv")
	v.SetDefault("sources.code_column", "fips_code")
	v.SetDefault("sources.value_column", "Estimate!!Gini Index")
	v.SetDefault("sources.sheet", "")
	v.SetDefault("sources.temp_dir", "")
	v.SetDefault("regions.label_keys", []string{"TOWN", "county"})
	v.SetDefault("regions.code_key", "FIPS_STCO")
	v.SetDefault("regions.earlier_key", "POP1980")
	v.SetDefault("regions.later_key", "POP2010")
	v.SetDefault("render.viewport_width", 1200)
	v.SetDefault("render.viewport_height", 900)
	v.SetDefault("render.title", "Massachusetts: population and income inequality")
	v.SetDefault("render.output", "choropleth.html")
	v.SetDefault("render.no_data_color", "#cccccc")
	v.SetDefault("render.unify_missing", false)
	v.SetDefault("fetch.user_agent", "choropleth/1.0")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.rate_per_sec", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.refresh_secs", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional unless named)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Mode is one of
// "render", "serve" or "codes".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "codes":
		return nil
	case "render", "serve":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Sources.Geometry == "" {
		problems = append(problems, "sources.geometry is required")
	}
	if c.Sources.Table == "" {
		problems = append(problems, "sources.table is required")
	}
	if c.Sources.CodeColumn == "" || c.Sources.ValueColumn == "" {
		problems = append(problems, "sources.code_column and sources.value_column are required")
	}
	if c.Regions.CodeKey == "" {
		problems = append(problems, "regions.code_key is required")
	}
	if c.Render.ViewportWidth <= 0 || c.Render.ViewportHeight <= 0 {
		problems = append(problems, "render.viewport_width and render.viewport_height must be > 0")
	}
	if c.Fetch.RatePerSec < 0 {
		problems = append(problems, "fetch.rate_per_sec must be >= 0")
	}

	if mode == "serve" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, fmt.Sprintf("server.port must be > 0 and <= 65535 (got %d)", c.Server.Port))
		}
		if c.Server.RefreshSecs < 0 {
			problems = append(problems, "server.refresh_secs must be >= 0")
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(problems, "; "))
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
