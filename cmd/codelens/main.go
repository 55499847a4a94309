// Command codelens ingests source repositories, sanitizes them and hands them
// to the documentation service.
package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/INF-UCT/code-lens/cmd/codelens/commands"
	"github.com/INF-UCT/code-lens/internal/foundation/errors"
	"github.com/INF-UCT/code-lens/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("codelens"),
		kong.Description("Repository ingestion pipeline for Code Lens documentation."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(&commands.Global{Logger: slog.Default(), Out: os.Stdout}, cli)
	if err != nil {
		os.Exit(errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).Report(os.Stderr, err))
	}
}
