// Package config provides functionality for managing configuration options
// for the application using command-line flags, a config file and
// environment variables.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Backend names accepted in Options.Backend.
const (
	BackendMemory      = "memory"
	BackendPostgres    = "postgres"
	BackendKeyring     = "keyring"
	BackendVault       = "vault"
	BackendOSXKeychain = "osxkeychain"
	BackendRemote      = "remote"
)

// Vault holds the settings of the vault backend.
type Vault struct {
	Address string `yaml:"address"`
	// Token is only read from the environment.
	Token string `yaml:"-"`
	Mount string `yaml:"mount"`
}

// Options holds the configuration values for the application.
type Options struct {
	// Address defines the server's listening address (ip:port).
	Address string `yaml:"address"`

	// Backend selects the secret storage.
	Backend string `yaml:"backend"`

	// DatabaseDSN holds the connection string of the postgres backend.
	DatabaseDSN string `yaml:"database_dsn"`

	// RemoteURL is the base URL of another keychain server used by the remote backend.
	RemoteURL string `yaml:"remote_url"`

	// KeychainID identifies the logical keychain. Generated when empty.
	KeychainID string `yaml:"keychain_id"`

	// InstanceID identifies this server instance. Generated when empty.
	InstanceID string `yaml:"instance_id"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `yaml:"tls_cert"`
	TLSKey  string `yaml:"tls_key"`

	Vault Vault `yaml:"vault"`

	// PurgeInterval and PurgeRetention drive removal of soft-deleted postgres entries.
	PurgeInterval  time.Duration `yaml:"purge_interval"`
	PurgeRetention time.Duration `yaml:"purge_retention"`

	// Config is the path to the config file.
	Config string `yaml:"-"`
}

// ParseArgs builds Options from args, the config file they point to and the
// environment read through getenv. Precedence from lowest to highest: flag
// defaults, the config file, flags given explicitly in args, environment
// variables.
func ParseArgs(fs *flag.FlagSet, args []string, getenv func(string) string) (*Options, error) {
	options := &Options{}

	fs.StringVar(&options.Address, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.Backend, "b", BackendMemory, "secret backend: memory|postgres|keyring|vault|osxkeychain|remote")
	fs.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&options.RemoteURL, "remote-url", "", "base URL of the remote keychain server")
	fs.StringVar(&options.KeychainID, "keychain-id", "", "keychain id (random when empty)")
	fs.StringVar(&options.InstanceID, "instance-id", "", "instance id (random when empty)")
	fs.StringVar(&options.LogLevel, "log-level", "info", "log level")
	fs.StringVar(&options.TLSCert, "tls-cert", "", "path to TLS certificate")
	fs.StringVar(&options.TLSKey, "tls-key", "", "path to TLS private key")
	fs.StringVar(&options.Vault.Address, "vault-addr", "", "vault server address")
	fs.StringVar(&options.Vault.Mount, "vault-mount", "secret", "vault KV v2 mount")
	fs.DurationVar(&options.PurgeInterval, "purge-interval", time.Hour, "interval between purges of deleted entries")
	fs.DurationVar(&options.PurgeRetention, "purge-retention", 30*24*time.Hour, "age after which deleted entries are purged")
	fs.StringVar(&options.Config, "config", "config.yaml", "path to config file")
	fs.StringVar(&options.Config, "c", "config.yaml", "path to config file (shorthand)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	explicit := make(map[string]string)
	fs.Visit(func(f *flag.Flag) {
		if f.Name != "c" && f.Name != "config" {
			explicit[f.Name] = f.Value.String()
		}
	})

	// Override flags with environment variables if set
	if configPath := getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		data, err := os.ReadFile(options.Config)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	for name, value := range explicit {
		if err := fs.Set(name, value); err != nil {
			return nil, fmt.Errorf("reapply flag -%s: %w", name, err)
		}
	}

	overrides := map[string]*string{
		"SERVER_ADDRESS":   &options.Address,
		"KEYCHAIN_BACKEND": &options.Backend,
		"DATABASE_DSN":     &options.DatabaseDSN,
		"REMOTE_URL":       &options.RemoteURL,
		"KEYCHAIN_ID":      &options.KeychainID,
		"INSTANCE_ID":      &options.InstanceID,
		"LOG_LEVEL":        &options.LogLevel,
		"VAULT_ADDR":       &options.Vault.Address,
		"VAULT_TOKEN":      &options.Vault.Token,
		"VAULT_MOUNT":      &options.Vault.Mount,
	}
	for name, field := range overrides {
		if v := getenv(name); v != "" {
			*field = v
		}
	}

	if options.KeychainID == "" {
		options.KeychainID = uuid.NewString()
	}
	if options.InstanceID == "" {
		options.InstanceID = uuid.NewString()
	}

	return options, nil
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	options, err := ParseArgs(flag.CommandLine, os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatalf("error while parsing configuration: %v", err)
	}
	return options
}
