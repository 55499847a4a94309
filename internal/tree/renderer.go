// Package tree renders textual listings of a sanitized clone by running two
// external listing commands concurrently.
package tree

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/INF-UCT/code-lens/internal/config"
	"github.com/INF-UCT/code-lens/internal/foundation/errors"
	"github.com/INF-UCT/code-lens/internal/logfields"
)

// Listing holds both renders of one clone.
type Listing struct {
	Flat      string `json:"flat_tree"`
	Hierarchy string `json:"hierarchy_tree"`
}

// Renderer runs the configured flat and hierarchical listing commands.
type Renderer struct {
	flat      config.CommandSpec
	hierarchy config.CommandSpec
}

// NewRenderer creates a Renderer from the tree configuration.
func NewRenderer(cfg config.TreeConfig) *Renderer {
	return &Renderer{flat: cfg.Flat, hierarchy: cfg.Hierarchy}
}

// Render runs both commands inside clonePath. It returns once both finish,
// or with the first failure, cancelling the other command.
func (r *Renderer) Render(ctx context.Context, clonePath string) (*Listing, error) {
	start := time.Now()
	var out Listing

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := run(gctx, r.flat, clonePath)
		out.Flat = s
		return err
	})
	g.Go(func() error {
		s, err := run(gctx, r.hierarchy, clonePath)
		out.Hierarchy = s
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if out.Flat == "" {
		slog.Warn("Generated repository tree is empty", logfields.Path(clonePath))
	}
	slog.Debug("Rendered repository tree",
		logfields.Path(clonePath),
		slog.Int("files", countLines(out.Flat)),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return &out, nil
}

func run(ctx context.Context, spec config.CommandSpec, dir string) (string, error) {
	if spec.Name == "" {
		return "", errors.RenderingError("listing command not configured").Build()
	}

	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		b := errors.WrapError(err, errors.CategoryRendering, "listing command failed").
			WithContext("command", spec.Name).
			WithContext("stderr", strings.ToValidUTF8(stderr.String(), "�"))
		if exitErr, ok := err.(*exec.ExitError); ok {
			b.WithContext("exit_code", exitErr.ExitCode())
		}
		slog.Error("Failed to generate repository tree",
			logfields.Command(spec.Name),
			logfields.Error(err),
			slog.String("stderr", stderr.String()))
		return "", b.Build()
	}

	text := strings.ToValidUTF8(stdout.String(), "�")
	if spec.Sort {
		text = sortLines(text)
	}
	return text, nil
}

func sortLines(s string) string {
	if s == "" {
		return s
	}
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	sort.Strings(lines)
	return strings.Join(lines, "\n") + "\n"
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(s, "\n"), "\n") + 1
}
