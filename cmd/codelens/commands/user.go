package commands

import (
	"context"
	"fmt"

	"github.com/INF-UCT/code-lens/internal/mailer"
	"github.com/INF-UCT/code-lens/internal/store"
)

// UserCmd groups owner management subcommands.
type UserCmd struct {
	Add UserAddCmd `cmd:"" help:"Create or update a user"`
}

// UserAddCmd implements 'user add'.
type UserAddCmd struct {
	Username string `help:"Login name" required:""`
	Email    string `help:"Notification address" required:""`
	Welcome  bool   `help:"Send the welcome email after saving"`
}

func (u *UserAddCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	saved, err := st.Users().Save(ctx, store.User{Username: u.Username, Email: u.Email})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "User %s saved (id %s)\n", saved.Username, saved.ID)

	if !u.Welcome {
		return nil
	}
	client, err := mailer.NewClient(cfg.Mailer)
	if err != nil {
		return err
	}
	m, err := mailer.Compose(saved.Email, "Welcome to Code Lens", mailer.TemplateWelcome,
		map[string]string{"username": saved.Username})
	if err != nil {
		return err
	}
	return client.Send(ctx, m)
}
