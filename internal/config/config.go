package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/INF-UCT/code-lens/internal/foundation/errors"
)

// Config represents the application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Logging      LoggingConfig      `yaml:"logging"`
	Repositories RepositoriesConfig `yaml:"repositories"`
	Tree         TreeConfig         `yaml:"tree"`
	Queue        QueueConfig        `yaml:"queue"`
	Mailer       MailerConfig       `yaml:"mailer"`
	Wiki         WikiConfig         `yaml:"wiki"`
	Database     DatabaseConfig     `yaml:"database"`
	NATS         NATSConfig         `yaml:"nats"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// RepositoriesConfig controls where clones live and how they are sanitized.
type RepositoriesConfig struct {
	CloneDir        string        `yaml:"clone_dir"`
	IgnoreFile      string        `yaml:"ignore_file"`
	LocalIgnoreFile string        `yaml:"local_ignore_file"`
	MaxFileSizeMB   int64         `yaml:"max_file_size_mb"`
	Retention       time.Duration `yaml:"retention"`
	JanitorInterval time.Duration `yaml:"janitor_interval"`
	Auth            *AuthConfig   `yaml:"auth,omitempty"`
}

// CommandSpec describes an external listing command run inside a clone.
type CommandSpec struct {
	Name string   `yaml:"name"`
	Args []string `yaml:"args,omitempty"`
	// Sort orders stdout lines before returning them.
	Sort bool `yaml:"sort,omitempty"`
}

// TreeConfig holds the two listing commands used by the tree renderer.
type TreeConfig struct {
	Flat      CommandSpec `yaml:"flat"`
	Hierarchy CommandSpec `yaml:"hierarchy"`
}

// QueueConfig sizes the in-process event queue.
type QueueConfig struct {
	Capacity int `yaml:"capacity"`
}

// MailerConfig configures the SMTP relay.
type MailerConfig struct {
	SMTPHost     string        `yaml:"smtp_host"`
	SMTPPort     int           `yaml:"smtp_port"`
	SMTPUsername string        `yaml:"smtp_username"`
	SMTPPassword string        `yaml:"smtp_password"`
	TLSPolicy    TLSPolicy     `yaml:"tls_policy"`
	Timeout      time.Duration `yaml:"timeout"`
}

// WikiConfig points at the documentation generation service.
type WikiConfig struct {
	ServiceURL string        `yaml:"service_url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	Retry      RetryConfig   `yaml:"retry"`
}

// RetryConfig bounds retries of transient failures. MaxRetries 0 disables them.
type RetryConfig struct {
	Backoff    RetryBackoffMode `yaml:"backoff"`
	Initial    time.Duration    `yaml:"initial"`
	Max        time.Duration    `yaml:"max"`
	MaxRetries int              `yaml:"max_retries"`
}

// DatabaseConfig selects the repository/user store.
type DatabaseConfig struct {
	Driver    DatabaseDriver `yaml:"driver"`
	DSN       string         `yaml:"dsn"`
	CacheSize int            `yaml:"cache_size"`
}

// NATSConfig enables the optional event mirror when URL is set.
type NATSConfig struct {
	URL           string `yaml:"url,omitempty"`
	SubjectPrefix string `yaml:"subject_prefix,omitempty"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}

	return Parse(data)
}

// Parse decodes YAML configuration after environment expansion, applies
// defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Build()
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration populated only with defaults.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Default()
	example.Repositories.Auth = &AuthConfig{Type: AuthTypeToken, Token: "${GIT_TOKEN}"}
	example.Mailer.SMTPHost = "smtp.example.com"
	example.Mailer.SMTPUsername = "code-lens@example.com"
	example.Mailer.SMTPPassword = "${SMTP_PASSWORD}"
	example.Wiki.ServiceURL = "http://code-lens-wiki:3000"
	example.Wiki.APIKey = "${WIKI_API_KEY}"
	example.NATS.SubjectPrefix = "codelens.events"

	data, err := yaml.Marshal(example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal config").Build()
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
