package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/INF-UCT/code-lens/internal/pipeline"
)

// AnalyzeCmd implements the 'analyze' command.
type AnalyzeCmd struct {
	URL    string `arg:"" help:"Repository URL to clone"`
	Name   string `short:"n" help:"Repository name (unique key)" required:""`
	Branch string `short:"b" help:"Branch to clone" default:"main"`
	Commit string `help:"Commit SHA to pin" required:""`
	Owner  string `short:"o" help:"Username of the owner" required:""`
}

func (a *AnalyzeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer application.close()

	owner, err := application.owners.Resolve(ctx, a.Owner)
	if err != nil {
		return err
	}
	id, err := application.orchestrator.GenerateDocs(ctx, pipeline.AnalysisRequest{
		URL:       a.URL,
		Name:      a.Name,
		Branch:    a.Branch,
		CommitSHA: a.Commit,
		Owner:     a.Owner,
	}, owner)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "Repository %s ingested (id %s)\n", a.Name, id)
	return nil
}
