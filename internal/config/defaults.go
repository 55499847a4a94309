package config

import (
	"path/filepath"
	"time"
)

const (
	DefaultLocalIgnoreFile = ".code-lens-ignore"
	DefaultMaxFileSizeMB   = 50
	DefaultQueueCapacity   = 100
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config)
	Domain() string
}

type serverDefaults struct{}

func (serverDefaults) Domain() string { return "server" }

func (serverDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		// Synchronous generation clones and renders inside the request.
		cfg.Server.WriteTimeout = 10 * time.Minute
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
}

type repositoriesDefaults struct{}

func (repositoriesDefaults) Domain() string { return "repositories" }

func (repositoriesDefaults) ApplyDefaults(cfg *Config) {
	r := &cfg.Repositories
	if r.CloneDir == "" {
		r.CloneDir = filepath.Join("data", "repos")
	}
	if r.IgnoreFile == "" {
		r.IgnoreFile = filepath.Join("configs", "rignore")
	}
	if r.LocalIgnoreFile == "" {
		r.LocalIgnoreFile = DefaultLocalIgnoreFile
	}
	if r.MaxFileSizeMB <= 0 {
		r.MaxFileSizeMB = DefaultMaxFileSizeMB
	}
	if r.Retention > 0 && r.JanitorInterval <= 0 {
		r.JanitorInterval = time.Hour
	}
	if r.Auth != nil && r.Auth.Type != "" {
		r.Auth.Type = NormalizeAuthType(string(r.Auth.Type))
	}
}

type treeDefaults struct{}

func (treeDefaults) Domain() string { return "tree" }

func (treeDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Tree.Flat.Name == "" {
		args := []string{"--files", "--hidden", "--no-ignore"}
		if ignore, err := filepath.Abs(cfg.Repositories.IgnoreFile); err == nil {
			args = append(args, "--ignore-file", ignore)
		}
		cfg.Tree.Flat = CommandSpec{
			Name: "rg",
			Args: append(args, "--glob", "!.git"),
			Sort: true,
		}
	}
	if cfg.Tree.Hierarchy.Name == "" {
		cfg.Tree.Hierarchy = CommandSpec{
			Name: "tree",
			Args: []string{"-a", "--noreport", "-I", ".git"},
		}
	}
}

type collaboratorDefaults struct{}

func (collaboratorDefaults) Domain() string { return "collaborators" }

func (collaboratorDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Queue.Capacity <= 0 {
		cfg.Queue.Capacity = DefaultQueueCapacity
	}
	if cfg.Mailer.SMTPPort == 0 {
		cfg.Mailer.SMTPPort = 587
	}
	if cfg.Mailer.TLSPolicy == "" {
		cfg.Mailer.TLSPolicy = TLSMandatory
	}
	if cfg.Mailer.Timeout == 0 {
		cfg.Mailer.Timeout = 15 * time.Second
	}
	if cfg.Wiki.Timeout == 0 {
		cfg.Wiki.Timeout = 30 * time.Second
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverSQLite
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == DriverSQLite {
		cfg.Database.DSN = filepath.Join("data", "codelens.db")
	}
	if cfg.Database.CacheSize == 0 {
		cfg.Database.CacheSize = 256
	}
	if cfg.NATS.SubjectPrefix == "" {
		cfg.NATS.SubjectPrefix = "codelens.events"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// appliers run in order; tree defaults depend on repositories.ignore_file.
var appliers = []DefaultApplier{
	serverDefaults{},
	repositoriesDefaults{},
	treeDefaults{},
	collaboratorDefaults{},
}

func applyDefaults(cfg *Config) {
	for _, a := range appliers {
		a.ApplyDefaults(cfg)
	}
}
