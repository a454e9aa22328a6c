package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"elearning_go/internal/domain"
	"elearning_go/internal/inbox"
	"elearning_go/internal/messenger"
	"elearning_go/internal/profile"
	"elearning_go/internal/render"
	"elearning_go/internal/search"
	"elearning_go/internal/tui"
)

func chatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "open the messenger",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "with", Usage: "start or resume a conversation with this username"},
			&cli.Int64Flag{Name: "conversation", Aliases: []string{"c"}, Usage: "open this conversation id"},
			&cli.StringFlag{Name: "log-file", Usage: "write logs here instead of discarding them"},
		},
		Action: func(c *cli.Context) error {
			var logTo io.Writer = io.Discard
			if path := c.String("log-file"); path != "" {
				f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
				if err != nil {
					return err
				}
				defer f.Close()
				logTo = f
			}

			e, err := setup(logTo)
			if err != nil {
				return err
			}
			if err := e.requireSession(); err != nil {
				return err
			}

			bridge := tui.NewBridge()
			var client *messenger.Client
			socket := inbox.New(inbox.Config{
				URL:    e.api.InboxURL(),
				Header: e.api.AuthHeader(),
				Policy: inbox.Policy{
					InitialDelay: e.cfg.ReconnectDelay,
					MaxDelay:     e.cfg.ReconnectMaxDelay,
					Multiplier:   e.cfg.ReconnectMultiplier,
					MaxAttempts:  e.cfg.ReconnectMaxAttempts,
				},
				PingPeriod: e.cfg.PingPeriod,
				Logger:     e.log,
				OnMessage:  func(raw []byte) { client.HandleFrame(raw) },
				OnState:    bridge.SocketState,
			})
			client = messenger.New(e.api, socket, bridge, domain.ID(e.cfg.UserID), e.log)

			ctx, cancel := context.WithCancel(c.Context)
			defer cancel()

			if err := openMessenger(ctx, e, client, c.String("with"), domain.ID(c.Int64("conversation"))); err != nil {
				client.Close()
				return err
			}

			p := tea.NewProgram(tui.NewModel(ctx, client), tea.WithAltScreen(), tea.WithContext(ctx))
			go bridge.Attach(p.Send)
			_, err = p.Run()
			client.Close()
			if err != nil && ctx.Err() == nil {
				return fmt.Errorf("messenger: %w", err)
			}
			return nil
		},
	}
}

// openMessenger opens client on the requested conversation. A username goes
// through the search dialog exactly as the "Message" button would.
func openMessenger(ctx context.Context, e *env, client *messenger.Client, with string, jumpTo domain.ID) error {
	if with == "" {
		return client.Open(ctx, jumpTo)
	}

	quiet := render.NewPrinter(io.Discard)
	viewer := profile.NewViewer(e.api, quiet, e.log)
	modal := search.NewModal(e.api, viewer, client, quiet, search.NewDebouncer(e.cfg.SearchDebounce, nil), e.log)
	modal.Open(ctx)
	if err := modal.SetRole(ctx, ""); err != nil {
		return err
	}
	if err := modal.Query(ctx, with); err != nil {
		return err
	}
	for _, u := range modal.Results() {
		if u.Username != with {
			continue
		}
		if err := modal.OpenResult(ctx, u); err != nil {
			return err
		}
		_, err := modal.MessageSelected(ctx)
		return err
	}
	return fmt.Errorf("no user named %q", with)
}
