package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/andy/rechnungsbuch/internal/logger"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Database settings
	Database DatabaseConfig `yaml:"database"`

	// Ledgers that own invoices; the first one is the default
	Ledgers []LedgerConfig `yaml:"ledgers"`

	// Invoice settings
	Invoices InvoiceConfig `yaml:"invoices"`

	// Inspection overdue thresholds
	Inspections InspectionConfig `yaml:"inspections"`

	Logging logger.LogConfig `yaml:"logging"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"` // Path to SQLite database
}

type LedgerKind string

const (
	LedgerCompany LedgerKind = "company"
	LedgerPrivate LedgerKind = "private"
)

type LedgerConfig struct {
	Key  string     `yaml:"key"`  // Stored on every invoice, e.g. "firma-a"
	Name string     `yaml:"name"` // Display name
	Kind LedgerKind `yaml:"kind"`
}

type InvoiceConfig struct {
	DefaultDueDays      int    `yaml:"default_due_days"`      // Days until due when no date is given
	DueSoonDays         int    `yaml:"due_soon_days"`         // Window for the "due soon" list
	CriticalOverdueDays int    `yaml:"critical_overdue_days"` // Overdue days that make an invoice critical
	ReferencePrefix     string `yaml:"reference_prefix"`      // Prefix for generated references (e.g., "RE")
}

type InspectionConfig struct {
	DailyThresholdDays   int `yaml:"daily_threshold_days"`
	WeeklyThresholdDays  int `yaml:"weekly_threshold_days"`
	MonthlyThresholdDays int `yaml:"monthly_threshold_days"`
}

// DefaultConfigDir returns ~/.config/rechnungsbuch
func DefaultConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home dir unavailable
		return filepath.Join(".", ".config", "rechnungsbuch")
	}
	return filepath.Join(homeDir, ".config", "rechnungsbuch")
}

// DefaultConfigPath returns ~/.config/rechnungsbuch/config.yaml
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultConfig returns two company and two private ledgers with the usual
// thresholds
func DefaultConfig() *Config {
	dir := DefaultConfigDir()

	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(dir, "rechnungsbuch.db"),
		},
		Ledgers: []LedgerConfig{
			{Key: "firma-a", Name: "Firma A", Kind: LedgerCompany},
			{Key: "firma-b", Name: "Firma B", Kind: LedgerCompany},
			{Key: "privat-1", Name: "Privat 1", Kind: LedgerPrivate},
			{Key: "privat-2", Name: "Privat 2", Kind: LedgerPrivate},
		},
		Invoices: InvoiceConfig{
			DefaultDueDays:      14,
			DueSoonDays:         7,
			CriticalOverdueDays: 30,
			ReferencePrefix:     "RE",
		},
		Inspections: InspectionConfig{
			DailyThresholdDays:   1,
			WeeklyThresholdDays:  7,
			MonthlyThresholdDays: 30,
		},
		Logging: logger.DefaultConfig(),
	}
}

// Load loads config from the given path, or returns defaults if file doesn't exist
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDefault loads from the default config path
func LoadDefault() (*Config, error) {
	return Load(DefaultConfigPath())
}

// Validate checks ledger keys and thresholds
func (c *Config) Validate() error {
	if len(c.Ledgers) == 0 {
		return fmt.Errorf("at least one ledger must be configured")
	}
	seen := make(map[string]bool, len(c.Ledgers))
	for _, l := range c.Ledgers {
		if l.Key == "" {
			return fmt.Errorf("ledger key cannot be empty")
		}
		if seen[l.Key] {
			return fmt.Errorf("duplicate ledger key %q", l.Key)
		}
		seen[l.Key] = true
		switch l.Kind {
		case LedgerCompany, LedgerPrivate:
		default:
			return fmt.Errorf("ledger %q has unknown kind %q", l.Key, l.Kind)
		}
	}
	if c.Inspections.DailyThresholdDays < 1 ||
		c.Inspections.WeeklyThresholdDays < 1 ||
		c.Inspections.MonthlyThresholdDays < 1 {
		return fmt.Errorf("inspection thresholds must be at least one day")
	}
	return nil
}

// Ledger returns the ledger with the given key. An empty key selects the
// default ledger.
func (c *Config) Ledger(key string) (LedgerConfig, error) {
	if key == "" && len(c.Ledgers) > 0 {
		return c.Ledgers[0], nil
	}
	for _, l := range c.Ledgers {
		if l.Key == key {
			return l, nil
		}
	}
	return LedgerConfig{}, fmt.Errorf("unknown ledger %q", key)
}

// Save writes the config to the given path
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// EnsureDirectories creates the database directory
func (c *Config) EnsureDirectories() error {
	dbDir := filepath.Dir(c.Database.Path)
	return os.MkdirAll(dbDir, 0700)
}
