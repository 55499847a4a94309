package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/INF-UCT/code-lens/internal/config"
	"github.com/INF-UCT/code-lens/internal/observability"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	// Out receives user-facing command output.
	Out io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"config.yaml" env:"CODELENS_CONFIG"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log output format (text or json); overrides the config file"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve    ServeCmd    `cmd:"" help:"Run the HTTP API, event dispatcher and clone janitor"`
	Analyze  AnalyzeCmd  `cmd:"" help:"Ingest one repository revision synchronously"`
	Sanitize SanitizeCmd `cmd:"" help:"Apply the ignore and size policies to a local directory"`
	Tree     TreeCmd     `cmd:"" help:"Print the flat and hierarchical listings of a directory"`
	User     UserCmd     `cmd:"" help:"Manage repository owners"`
	Init     InitCmd     `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; set up logging once. Commands that load
// a configuration file refine the level and format with configureLogging.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := "info"
	if c.Verbose {
		level = "debug"
	}
	slog.SetDefault(observability.NewLogger(os.Stderr, level, c.LogFormat))
	return nil
}

// loadConfig loads the configuration file and applies its logging settings.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	c.configureLogging(cfg)
	return cfg, nil
}

func (c *CLI) configureLogging(cfg *config.Config) {
	level := string(cfg.Logging.Level)
	if c.Verbose {
		level = "debug"
	}
	format := string(cfg.Logging.Format)
	if c.LogFormat != "" {
		format = c.LogFormat
	}
	slog.SetDefault(observability.NewLogger(os.Stderr, level, format))
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}
