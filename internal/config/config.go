package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Generation struct {
		Size            int     `yaml:"size"`
		Seed            int64   `yaml:"seed"`
		InitialFraction float64 `yaml:"initial_fraction"`
		Augment         bool    `yaml:"augment"`
		AugmentFraction float64 `yaml:"augment_fraction"`
		TopUpAttempts   int     `yaml:"topup_attempts"`
		MaxAttempts     int     `yaml:"max_attempts"` // backfill rounds inside one Generate call
	} `yaml:"generation"`
	Lexicon struct {
		Path      string `yaml:"path"`      // empty uses the embedded lexicon
		Thesaurus string `yaml:"thesaurus"` // empty uses the embedded thesaurus
	} `yaml:"lexicon"`
	Paraphrase struct {
		Enabled  bool          `yaml:"enabled"`
		Provider string        `yaml:"provider"`
		Model    string        `yaml:"model"`
		APIKey   string        `yaml:"api_key"`
		BaseURL  string        `yaml:"base_url"`
		Fraction float64       `yaml:"fraction"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"paraphrase"`
	Output struct {
		CSV    string `yaml:"csv"`
		DB     string `yaml:"db"`     // empty disables the run store
		Report string `yaml:"report"` // empty disables the pipeline report
	} `yaml:"output"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // console or json
	} `yaml:"log"`
}

// Default returns the production configuration.
func Default() *Config {
	var cfg Config
	cfg.Generation.Size = 100000
	cfg.Generation.Seed = 42
	cfg.Generation.InitialFraction = 0.95
	cfg.Generation.Augment = true
	cfg.Generation.AugmentFraction = 0.2
	cfg.Generation.TopUpAttempts = 5
	cfg.Generation.MaxAttempts = 10
	cfg.Paraphrase.Provider = "gemini"
	cfg.Paraphrase.Fraction = 0.05
	cfg.Paraphrase.Timeout = 60 * time.Second
	cfg.Output.CSV = "agricultural_chatbot_dataset.csv"
	cfg.Output.Report = "pipeline_report.json"
	cfg.Log.Level = "info"
	cfg.Log.Format = "console"
	return &cfg
}

// LoadConfig reads path over the defaults and applies environment overrides.
// A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(file, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	// 3. Override with Environment Variables if present
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("AGRIQA_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("AGRIQA_SEED: %w", err)
		}
		c.Generation.Seed = seed
	}
	if v := os.Getenv("AGRIQA_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AGRIQA_SIZE: %w", err)
		}
		c.Generation.Size = size
	}
	if v := os.Getenv("AGRIQA_OUTPUT"); v != "" {
		c.Output.CSV = v
	}
	if v := os.Getenv("AGRIQA_DB"); v != "" {
		c.Output.DB = v
	}
	if v := os.Getenv("AGRIQA_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("AGRIQA_PARAPHRASE_PROVIDER"); v != "" {
		c.Paraphrase.Provider = v
		c.Paraphrase.Enabled = true
	}
	if v := os.Getenv("AGRIQA_API_KEY"); v != "" {
		c.Paraphrase.APIKey = v
	}
	return nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	var problems []string
	g := c.Generation
	if g.Size <= 0 {
		problems = append(problems, fmt.Sprintf("generation.size must be positive, got %d", g.Size))
	}
	if g.InitialFraction <= 0 || g.InitialFraction > 1 {
		problems = append(problems, fmt.Sprintf("generation.initial_fraction %.2f outside (0,1]", g.InitialFraction))
	}
	if g.AugmentFraction < 0 || g.AugmentFraction > 1 {
		problems = append(problems, fmt.Sprintf("generation.augment_fraction %.2f outside [0,1]", g.AugmentFraction))
	}
	if g.TopUpAttempts < 0 {
		problems = append(problems, "generation.topup_attempts must not be negative")
	}
	if g.MaxAttempts < 0 {
		problems = append(problems, "generation.max_attempts must not be negative")
	}
	if f := c.Paraphrase.Fraction; f < 0 || f > 1 {
		problems = append(problems, fmt.Sprintf("paraphrase.fraction %.2f outside [0,1]", f))
	}
	if c.Output.CSV == "" {
		problems = append(problems, "output.csv is required")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q must be console or json", c.Log.Format))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
