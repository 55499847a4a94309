package events

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/INF-UCT/code-lens/internal/foundation/errors"
	"github.com/INF-UCT/code-lens/internal/logfields"
	"github.com/INF-UCT/code-lens/internal/mailer"
	"github.com/INF-UCT/code-lens/internal/metrics"
	"github.com/INF-UCT/code-lens/internal/observability"
	"github.com/INF-UCT/code-lens/internal/tree"
	"github.com/INF-UCT/code-lens/internal/wiki"
)

// DocGenSubject is the subject of the "generation started" email.
const DocGenSubject = "Code Lens: documentation generation started"

// TreeRenderer produces the flat and hierarchical listings of a clone.
type TreeRenderer interface {
	Render(ctx context.Context, clonePath string) (*tree.Listing, error)
}

// MailSender delivers a composed email.
type MailSender interface {
	Send(ctx context.Context, m mailer.Mail) error
}

// DocsRequester starts generation on the documentation service.
type DocsRequester interface {
	RequestDocs(ctx context.Context, req wiki.DocsRequest) error
}

// SideEffects handles both event kinds: notifications only mail, docs
// generation renders the tree and then mails and calls the wiki service
// concurrently.
type SideEffects struct {
	Renderer TreeRenderer
	Mailer   MailSender
	Wiki     DocsRequester
	Recorder metrics.Recorder
}

// Handle implements Handler.
func (h *SideEffects) Handle(ctx context.Context, e Event) error {
	switch ev := e.(type) {
	case NotificationRequested:
		return h.notify(ctx, ev)
	case *NotificationRequested:
		return h.notify(ctx, *ev)
	case DocsGenerationRequested:
		return h.generate(ctx, ev)
	case *DocsGenerationRequested:
		return h.generate(ctx, *ev)
	default:
		return errors.InternalError(fmt.Sprintf("unhandled event type %T", e)).Build()
	}
}

func (h *SideEffects) notify(ctx context.Context, ev NotificationRequested) error {
	m, err := mailer.Compose(ev.To, ev.Subject, ev.Template, ev.Data)
	if err != nil {
		return err
	}
	return h.stage(ctx, metrics.StageNotify, func() error { return h.Mailer.Send(ctx, m) })
}

func (h *SideEffects) generate(ctx context.Context, ev DocsGenerationRequested) error {
	ctx = observability.WithRepoID(ctx, ev.RepoID.String())
	ctx = observability.WithRepoName(ctx, ev.RepoName)

	var listing *tree.Listing
	err := h.stage(ctx, metrics.StageRender, func() error {
		var rerr error
		listing, rerr = h.Renderer.Render(ctx, ev.RepoPath)
		return rerr
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return h.notify(gctx, NotificationRequested{
			To:       ev.OwnerEmail,
			Subject:  DocGenSubject,
			Template: mailer.TemplateDocGen,
			Data:     map[string]string{"repository_name": ev.RepoName},
		})
	})
	g.Go(func() error {
		return h.stage(gctx, metrics.StageWiki, func() error {
			return h.Wiki.RequestDocs(gctx, wiki.DocsRequest{
				RepoID:        ev.RepoID,
				RepoPath:      ev.RepoPath,
				FlatTree:      listing.Flat,
				HierarchyTree: listing.Hierarchy,
			})
		})
	})
	if err := g.Wait(); err != nil {
		return err
	}
	observability.InfoContext(ctx, "Documentation generation requested", logfields.Path(ev.RepoPath))
	return nil
}

func (h *SideEffects) stage(ctx context.Context, name string, fn func() error) error {
	rec := h.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	start := time.Now()
	err := fn()
	rec.ObserveStageDuration(name, time.Since(start))
	if err != nil {
		rec.IncStageResult(name, metrics.ResultFailed)
		return err
	}
	rec.IncStageResult(name, metrics.ResultSuccess)
	return nil
}
