package config

import (
	"net/url"

	"github.com/INF-UCT/code-lens/internal/foundation/errors"
)

// Validate checks cross-field consistency after defaults have been applied.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("server.port", "must be between 1 and 65535")
	}
	if c.Repositories.CloneDir == "" {
		return invalid("repositories.clone_dir", "is required")
	}
	if c.Repositories.IgnoreFile == "" {
		return invalid("repositories.ignore_file", "is required")
	}
	if c.Repositories.Retention < 0 {
		return invalid("repositories.retention", "must not be negative")
	}
	if auth := c.Repositories.Auth; auth != nil && auth.Type != "" {
		switch auth.Type {
		case AuthTypeNone:
		case AuthTypeToken:
			if auth.Token == "" {
				return invalid("repositories.auth.token", "is required for token auth")
			}
		case AuthTypeBasic:
			if auth.Username == "" || auth.Password == "" {
				return invalid("repositories.auth", "basic auth needs username and password")
			}
		default:
			return invalid("repositories.auth.type", "must be one of none, token, basic")
		}
	}
	if c.Queue.Capacity < 1 {
		return invalid("queue.capacity", "must be positive")
	}
	switch c.Mailer.TLSPolicy {
	case TLSMandatory, TLSOpportunistic, TLSNone:
	default:
		return invalid("mailer.tls_policy", "must be mandatory, opportunistic or none")
	}
	if c.Wiki.ServiceURL != "" {
		if u, err := url.Parse(c.Wiki.ServiceURL); err != nil || u.Scheme == "" || u.Host == "" {
			return invalid("wiki.service_url", "must be an absolute URL")
		}
	}
	switch c.Wiki.Retry.Backoff {
	case "", RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential:
	default:
		return invalid("wiki.retry.backoff", "must be fixed, linear or exponential")
	}
	if c.Wiki.Retry.MaxRetries < 0 {
		return invalid("wiki.retry.max_retries", "cannot be negative")
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return invalid("database.driver", "must be sqlite or postgres")
	}
	if c.Database.DSN == "" {
		return invalid("database.dsn", "is required")
	}
	return nil
}

func invalid(field, reason string) error {
	return errors.ConfigError("invalid configuration: "+field+" "+reason).
		WithContext("field", field).
		Build()
}
