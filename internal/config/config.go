// Package config loads the gateway configuration from a single YAML
// file. There is no automatic discovery: the path comes from a flag or
// the GEMSKY_CONFIG environment variable.
package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/joverton/gemsky/internal/domain"
)

// DefaultPageSize is the fixed feed page size when the config does not
// set one.
const DefaultPageSize = 10

// Config holds all configuration for the gateway.
type Config struct {
	// Listen is the TCP address the Gemini server binds to.
	Listen string `yaml:"listen"`

	// TLS locates the server certificate and key.
	TLS TLSConfig `yaml:"tls"`

	// PageSize is the fixed number of feed entries fetched per request.
	PageSize int `yaml:"page_size"`

	// Accounts maps client-certificate fingerprints to remote account
	// credentials. An empty map yields an anonymous-only gateway.
	Accounts map[string]AccountConfig `yaml:"accounts"`
}

// TLSConfig locates the server certificate and key files.
type TLSConfig struct {
	CertFile string `yaml:"cert"`
	KeyFile  string `yaml:"key"`
}

// AccountConfig holds the credentials for one remote account.
type AccountConfig struct {
	// PDS is the account's personal data server URL. Empty means the
	// default public instance.
	PDS string `yaml:"pds"`

	// Identifier is the account handle or DID used to log in.
	Identifier string `yaml:"identifier"`

	// Password should be an App Password, not the account password.
	Password string `yaml:"password"`
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Listen == "" {
		cfg.Listen = ":1965"
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
		return nil, fmt.Errorf("tls.cert and tls.key are required")
	}
	for fingerprint, account := range cfg.Accounts {
		if account.Identifier == "" || account.Password == "" {
			return nil, fmt.Errorf("account %s: identifier and password are required", fingerprint)
		}
	}

	return &cfg, nil
}

// AccountList flattens the accounts map into the registry's input
// shape, sorted by fingerprint so startup order is deterministic.
func (c *Config) AccountList() []domain.Account {
	accounts := make([]domain.Account, 0, len(c.Accounts))
	for fingerprint, account := range c.Accounts {
		accounts = append(accounts, domain.Account{
			Fingerprint: fingerprint,
			PDS:         account.PDS,
			Identifier:  account.Identifier,
			Password:    account.Password,
		})
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Fingerprint < accounts[j].Fingerprint
	})
	return accounts
}
