// Package config loads the SDK client configuration.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fsworks/featurestore-go/pkg/featurestore"
	"github.com/fsworks/featurestore-go/pkg/metadata"
)

// Config holds the complete client configuration.
type Config struct {
	Client       ClientConfig               `yaml:"client"`
	OfflineStore OfflineStoreConfig         `yaml:"offline_store"`
	Engine       EngineConfig               `yaml:"engine"`
	Connectors   map[string]ConnectorConfig `yaml:"connectors"`
	Logging      LoggingConfig              `yaml:"logging"`
}

// ClientConfig configures the metadata service connection.
type ClientConfig struct {
	Host           string        `yaml:"host"`
	APIRoot        string        `yaml:"api_root"`
	ProjectID      int           `yaml:"project_id"`
	FeatureStoreID int           `yaml:"feature_store_id"`
	APIKey         string        `yaml:"api_key"`
	Token          string        `yaml:"token"`
	CACertFile     string        `yaml:"ca_cert_file"`
	Timeout        time.Duration `yaml:"timeout"`
}

// OfflineStoreConfig configures the offline feature store connection used
// by the local engine.
type OfflineStoreConfig struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	Schema       string `yaml:"schema"`
}

// EngineConfig selects the data engine.
type EngineConfig struct {
	Kind         string        `yaml:"kind"` // "local", "job"
	PollInterval time.Duration `yaml:"poll_interval"`
}

// ConnectorConfig defines a named storage connector.
type ConnectorConfig struct {
	Type             string            `yaml:"type"` // "HOPSFS", "S3", "JDBC"
	Bucket           string            `yaml:"bucket"`
	Region           string            `yaml:"region"`
	AccessKey        string            `yaml:"access_key"`
	SecretKey        string            `yaml:"secret_key"`
	Endpoint         string            `yaml:"endpoint"`
	ConnectionString string            `yaml:"connection_string"`
	Arguments        map[string]string `yaml:"arguments"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "text", "json"
}

// LoadConfig loads, env-expands and defaults a config file.
func LoadConfig(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.Client.APIRoot == "" {
		cfg.Client.APIRoot = "/hopsworks-api/api"
	}
	if cfg.Client.Timeout == 0 {
		cfg.Client.Timeout = 30 * time.Second
	}
	if cfg.OfflineStore.Driver == "" {
		cfg.OfflineStore.Driver = "postgres"
	}
	if cfg.OfflineStore.MaxOpenConns == 0 {
		cfg.OfflineStore.MaxOpenConns = 25
	}
	if cfg.Engine.Kind == "" {
		cfg.Engine.Kind = "local"
	}
	if cfg.Engine.PollInterval == 0 {
		cfg.Engine.PollInterval = 3 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Client.Host == "" {
		errs = append(errs, "client.host is required")
	}
	if c.Client.ProjectID == 0 {
		errs = append(errs, "client.project_id is required")
	}
	if c.Client.FeatureStoreID == 0 {
		errs = append(errs, "client.feature_store_id is required")
	}
	if c.Client.APIKey == "" && c.Client.Token == "" {
		errs = append(errs, "one of client.api_key or client.token is required")
	}

	switch c.Engine.Kind {
	case "local":
		if c.OfflineStore.DSN == "" {
			errs = append(errs, "offline_store.dsn is required for the local engine")
		}
	case "job":
	default:
		errs = append(errs, fmt.Sprintf("engine.kind %q is not supported", c.Engine.Kind))
	}

	for name, conn := range c.Connectors {
		switch conn.Type {
		case "HOPSFS":
		case "S3":
			if conn.Bucket == "" {
				errs = append(errs, fmt.Sprintf("connectors.%s.bucket is required for S3", name))
			}
		case "JDBC":
			if conn.ConnectionString == "" {
				errs = append(errs, fmt.Sprintf("connectors.%s.connection_string is required for JDBC", name))
			}
		default:
			errs = append(errs, fmt.Sprintf("connectors.%s.type %q is not supported", name, conn.Type))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// MetadataConfig builds the metadata client configuration. The CA
// certificate file, when set, is read here.
func (c *Config) MetadataConfig() (metadata.Config, error) {
	mc := metadata.Config{
		Host:           c.Client.Host,
		APIRoot:        c.Client.APIRoot,
		ProjectID:      c.Client.ProjectID,
		FeatureStoreID: c.Client.FeatureStoreID,
		APIKey:         c.Client.APIKey,
		Token:          c.Client.Token,
		Timeout:        c.Client.Timeout,
	}
	if c.Client.CACertFile != "" {
		// #nosec G304 -- path is from the config file, controlled by the operator
		pem, err := os.ReadFile(c.Client.CACertFile)
		if err != nil {
			return metadata.Config{}, fmt.Errorf("reading CA certificate: %w", err)
		}
		mc.CACertPEM = pem
	}
	return mc, nil
}

// StorageConnector converts a named connector definition into the domain
// descriptor.
func (c *Config) StorageConnector(name string) (*featurestore.StorageConnector, error) {
	conn, ok := c.Connectors[name]
	if !ok {
		return nil, fmt.Errorf("connector %q is not configured", name)
	}
	return &featurestore.StorageConnector{
		Name:             name,
		Type:             featurestore.ConnectorType(conn.Type),
		Bucket:           conn.Bucket,
		Region:           conn.Region,
		AccessKey:        conn.AccessKey,
		SecretKey:        conn.SecretKey,
		Endpoint:         conn.Endpoint,
		ConnectionString: conn.ConnectionString,
		Arguments:        conn.Arguments,
	}, nil
}
