package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"sma-forecast/internal/logging"
	"sma-forecast/internal/regress"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// APIKeyEnv is the environment variable holding the quote feed credential.
const APIKeyEnv = "ALPHA_ADVANTAGE_KEY"

// Config is the on-disk configuration shape (YAML). Every field has a default,
// so an empty file (or no file) yields the stock setup: file-backed server on
// port 3000 reading 5-years.json, and the built-in pipeline variants.
type Config struct {
	Env      string          `yaml:"env" default:"development"`
	Server   ServerConfig    `yaml:"server"`
	Source   SourceConfig    `yaml:"source"`
	Pipeline PipelineConfig  `yaml:"pipeline"`
	Render   RenderConfig    `yaml:"render"`
	Log      logging.Config  `yaml:"log"`
	Variants []VariantConfig `yaml:"variants" validate:"dive"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" default:"3000" validate:"gt=0,lt=65536"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	Metrics         bool          `yaml:"metrics" default:"true"`
}

type SourceConfig struct {
	// Type is "file" (static snapshot) or "alphavantage" (live daily feed).
	Type         string             `yaml:"type" default:"file" validate:"oneof=file alphavantage"`
	File         string             `yaml:"file" default:"5-years.json"`
	AlphaVantage AlphaVantageConfig `yaml:"alphavantage"`
}

type AlphaVantageConfig struct {
	BaseURL    string        `yaml:"base_url" default:"https://www.alphavantage.co" validate:"url"`
	Symbol     string        `yaml:"symbol" default:"SPY" validate:"required"`
	OutputSize string        `yaml:"output_size" default:"full" validate:"oneof=full compact"`
	Timeout    time.Duration `yaml:"timeout" default:"30s"`
	// CacheTTL 0 disables the quote cache.
	CacheTTL time.Duration `yaml:"cache_ttl" default:"1h"`
	// APIKey is normally taken from ALPHA_ADVANTAGE_KEY.
	APIKey string `yaml:"api_key"`
}

type PipelineConfig struct {
	// DataURL is the base URL of the data server; GET {DataURL}/data is fetched.
	DataURL string `yaml:"data_url" default:"http://localhost:3000" validate:"omitempty,url"`
	// DataFile, when set, is read instead of calling the server.
	DataFile string        `yaml:"data_file"`
	Timeout  time.Duration `yaml:"timeout" default:"30s"`
}

type RenderConfig struct {
	OutDir  string   `yaml:"out_dir" default:"results"`
	Formats []string `yaml:"formats" default:"[\"table\",\"csv\"]" validate:"dive,oneof=table csv json"`
}

// VariantConfig describes one pipeline run.
type VariantConfig struct {
	Name string `yaml:"name" validate:"required"`
	// Kind selects the feature layout: scatter (no model), window (N raw
	// closes -> average) or date (date index -> average).
	Kind          string          `yaml:"kind" validate:"oneof=scatter window date"`
	WindowSize    int             `yaml:"window_size" default:"50" validate:"gt=0"`
	TrainFraction float64         `yaml:"train_fraction" default:"0.8" validate:"gt=0,lte=1"`
	Hidden        []regress.Layer `yaml:"hidden" validate:"dive"`
	Epochs        int             `yaml:"epochs" default:"50" validate:"gt=0"`
	BatchSize     int             `yaml:"batch_size" default:"32" validate:"gt=0"`
	LearningRate  float64         `yaml:"learning_rate" validate:"gte=0"`
	// Points is the number of synthetic inputs for date variants. 0 means one
	// per aggregate point.
	Points int   `yaml:"points" validate:"gte=0"`
	Seed   int64 `yaml:"seed"`
}

var validate = validator.New()

// Load reads path (optional), applies defaults, environment overrides and
// validation.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	// Defaults go in first so explicit false and zero values in the file win.
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if len(c.Variants) == 0 {
		c.Variants = DefaultVariants()
	}
	if err := applyVariantDefaults(&c); err != nil {
		return nil, err
	}
	applyEnv(&c)
	return &c, nil
}

// applyVariantDefaults fills variant and layer fields. Their defaulted fields
// all reject zero, so filling zeros after decoding loses nothing.
func applyVariantDefaults(c *Config) error {
	for i := range c.Variants {
		if err := defaults.Set(&c.Variants[i]); err != nil {
			return fmt.Errorf("apply defaults to variant %d: %w", i, err)
		}
		for j := range c.Variants[i].Hidden {
			if err := defaults.Set(&c.Variants[i].Hidden[j]); err != nil {
				return fmt.Errorf("apply defaults to variant %d layer %d: %w", i, j, err)
			}
		}
	}
	return nil
}

func applyEnv(c *Config) {
	if v := os.Getenv("API_ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("API_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("DATA_SOURCE"); v != "" {
		c.Source.Type = v
	}
	if v := os.Getenv("DATA_FILE"); v != "" {
		c.Source.File = v
	}
	if v := os.Getenv("ALPHA_SYMBOL"); v != "" {
		c.Source.AlphaVantage.Symbol = v
	}
	if v := os.Getenv(APIKeyEnv); v != "" {
		c.Source.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("DATA_URL"); v != "" {
		c.Pipeline.DataURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}
	if c.Source.Type == "alphavantage" && strings.TrimSpace(c.Source.AlphaVantage.APIKey) == "" {
		return fmt.Errorf("config invalid: %s is required for the alphavantage source", APIKeyEnv)
	}
	seen := map[string]bool{}
	for _, v := range c.Variants {
		if seen[v.Name] {
			return fmt.Errorf("config invalid: duplicate variant %q", v.Name)
		}
		seen[v.Name] = true
		for i, l := range v.Hidden {
			if !l.Activation.Valid() {
				return fmt.Errorf("config invalid: variant %q layer %d activation %q", v.Name, i, l.Activation)
			}
		}
	}
	return nil
}

// IsProduction mirrors API_ENV=production.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// Variant looks a variant up by name.
func (c *Config) Variant(name string) (VariantConfig, bool) {
	for _, v := range c.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return VariantConfig{}, false
}

// DefaultVariants are the stock runs: the SMA scatter, two window regressors
// of different depth, and the date-indexed regressor.
func DefaultVariants() []VariantConfig {
	return []VariantConfig{
		{Name: "scatter", Kind: "scatter", WindowSize: 50},
		{
			Name:         "window",
			Kind:         "window",
			WindowSize:   50,
			Hidden:       []regress.Layer{{Units: 10, Activation: regress.Sigmoid}},
			Epochs:       100,
			LearningRate: 0.05,
		},
		{
			Name:       "window-deep",
			Kind:       "window",
			WindowSize: 50,
			Hidden: []regress.Layer{
				{Units: 64, Activation: regress.Sigmoid},
				{Units: 32, Activation: regress.Sigmoid},
				{Units: 16, Activation: regress.Sigmoid},
				{Units: 8, Activation: regress.Sigmoid},
				{Units: 4, Activation: regress.Sigmoid},
			},
			Epochs:       100,
			LearningRate: 0.05,
		},
		{
			Name:       "date",
			Kind:       "date",
			WindowSize: 5,
			Hidden: []regress.Layer{
				{Units: 20, Activation: regress.Sigmoid},
				{Units: 10, Activation: regress.Sigmoid},
			},
			Epochs: 100,
		},
	}
}
