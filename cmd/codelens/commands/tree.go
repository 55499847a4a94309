package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/INF-UCT/code-lens/internal/tree"
)

// TreeCmd implements the 'tree' command.
type TreeCmd struct {
	Dir    string `arg:"" help:"Directory to render" type:"existingdir"`
	Format string `short:"f" help:"Output format" enum:"text,json" default:"text"`
}

func (t *TreeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	listing, err := tree.NewRenderer(cfg.Tree).Render(context.Background(), t.Dir)
	if err != nil {
		return err
	}

	out := g.out()
	if t.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(listing)
	}
	_, _ = fmt.Fprintf(out, "== flat ==\n%s\n== hierarchy ==\n%s", listing.Flat, listing.Hierarchy)
	return nil
}
