package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kamusis/baseline/internal/dimension"
	"github.com/kamusis/baseline/internal/master"
)

// Config is the in-memory representation of ~/.baseline/baseline.yaml.
type Config struct {
	MastersDir    string            `yaml:"masters_dir"`
	ToleranceFile string            `yaml:"tolerance_file"`
	Pattern       string            `yaml:"pattern,omitempty"`
	Weights       map[string]int    `yaml:"weights,omitempty"`
	Criteria      []string          `yaml:"criteria,omitempty"`
	Dimensions    map[string]string `yaml:"dimensions,omitempty"`
	Concurrency   int               `yaml:"concurrency,omitempty"`
	WaitTimeout   string            `yaml:"wait_timeout,omitempty"`
	LockTimeout   string            `yaml:"lock_timeout,omitempty"`
}

// BaselineDir returns the absolute path to ~/.baseline/.
func BaselineDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".baseline"), nil
}

// ConfigPath returns the absolute path to ~/.baseline/baseline.yaml.
func ConfigPath() (string, error) {
	dir, err := BaselineDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "baseline.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the Config written by baseline init.
func DefaultConfig() (*Config, error) {
	dir, err := BaselineDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		MastersDir:    filepath.Join(dir, "masters"),
		ToleranceFile: filepath.Join(dir, "tolerance.xml"),
		Pattern:       master.DefaultPattern,
		Weights: map[string]int{
			"OsVersion": 1,
			"Dpi":       4,
			"Theme":     3,
			"Culture":   2,
		},
		Criteria:    []string{"Dpi", "Theme"},
		Concurrency: 4,
		WaitTimeout: "2m",
		LockTimeout: "10s",
	}, nil
}

// Load reads and parses ~/.baseline/baseline.yaml.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads and parses the config at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	// Expand ~ in paths at load time.
	if cfg.MastersDir, err = ExpandPath(cfg.MastersDir); err != nil {
		return nil, err
	}
	if cfg.ToleranceFile, err = ExpandPath(cfg.ToleranceFile); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the fields that would otherwise only fail mid-run.
func (c *Config) Validate() error {
	if c.MastersDir == "" {
		return fmt.Errorf("masters_dir is required")
	}
	if c.ToleranceFile == "" {
		return fmt.Errorf("tolerance_file is required")
	}
	if _, err := master.WeightsFromMap(c.Weights); err != nil {
		return fmt.Errorf("weights: %w", err)
	}
	if _, err := dimension.ParseCriteria(c.Criteria); err != nil {
		return fmt.Errorf("criteria: %w", err)
	}
	for name := range c.Dimensions {
		if _, err := dimension.Lookup(name); err != nil {
			return fmt.Errorf("dimensions: %w", err)
		}
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative")
	}
	if _, err := parseDuration(c.WaitTimeout, 0); err != nil {
		return fmt.Errorf("wait_timeout: %w", err)
	}
	if _, err := parseDuration(c.LockTimeout, 0); err != nil {
		return fmt.Errorf("lock_timeout: %w", err)
	}
	return nil
}

// EffectivePattern returns Pattern or the default naming pattern.
func (c *Config) EffectivePattern() string {
	if c.Pattern == "" {
		return master.DefaultPattern
	}
	return c.Pattern
}

// EffectiveConcurrency returns Concurrency, defaulting to 4.
func (c *Config) EffectiveConcurrency() int {
	if c.Concurrency <= 0 {
		return 4
	}
	return c.Concurrency
}

// EffectiveWaitTimeout returns how long a batch waits for comparisons.
func (c *Config) EffectiveWaitTimeout() time.Duration {
	d, _ := parseDuration(c.WaitTimeout, 2*time.Minute)
	return d
}

// EffectiveLockTimeout returns how long to wait for the masters lock.
func (c *Config) EffectiveLockTimeout() time.Duration {
	d, _ := parseDuration(c.LockTimeout, 10*time.Second)
	return d
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def, err
	}
	if d <= 0 {
		return def, fmt.Errorf("duration must be positive, got %s", s)
	}
	return d, nil
}

// Save marshals cfg and writes it to ~/.baseline/baseline.yaml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(path), err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}
