package commands

import (
	"context"
	"fmt"
)

// SanitizeCmd implements the 'sanitize' command. It mutates Dir in place.
type SanitizeCmd struct {
	Dir    string `arg:"" help:"Directory to sanitize" type:"existingdir"`
	DryRun bool   `help:"Only list what the ignore policy would remove" name:"dry-run"`
}

func (s *SanitizeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	out := g.out()

	if s.DryRun {
		matches, err := newSanitizer(cfg).Preview(context.Background(), s.Dir)
		if err != nil {
			return err
		}
		for _, m := range matches {
			_, _ = fmt.Fprintln(out, m)
		}
		_, _ = fmt.Fprintf(out, "%d path(s) would be removed\n", len(matches))
		return nil
	}

	report, err := newSanitizer(cfg).Sanitize(context.Background(), s.Dir)
	if err != nil {
		return err
	}
	for _, p := range report.Removed {
		_, _ = fmt.Fprintf(out, "removed %s\n", p)
	}
	_, _ = fmt.Fprintf(out, "%d pattern(s), %d path(s) removed, %d file(s) kept in %s\n",
		report.Patterns, len(report.Removed), report.Files, report.Duration.Round(1e6))
	return nil
}
