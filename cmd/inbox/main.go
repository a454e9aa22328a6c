package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"elearning_go/internal/apiclient"
	"elearning_go/internal/config"
	"elearning_go/internal/domain"
	"elearning_go/internal/observability"
	"elearning_go/internal/profile"
	"elearning_go/internal/render"
	"elearning_go/internal/search"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "inbox",
		Usage: "search people and chat from the terminal",
		Commands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			searchCommand(),
			profileCommand(),
			whoisCommand(),
			sendCommand(),
			chatCommand(),
		},
	}
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, render.ErrorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

// env is what every command needs: configuration, a logger and an API client.
type env struct {
	cfg *config.ClientConfig
	log zerolog.Logger
	api *apiclient.Client
}

func setup(logTo io.Writer) (*env, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, err
	}
	log := observability.New(logTo, cfg.LogLevel, cfg.LogPretty)
	api, err := apiclient.New(cfg.BaseURL,
		apiclient.WithToken(cfg.Token),
		apiclient.WithTimeout(cfg.HTTPTimeout),
		apiclient.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, api: api}, nil
}

func (e *env) requireSession() error {
	if e.cfg.Token == "" || e.cfg.UserID == 0 {
		return errors.New("not logged in, run: inbox login -u <username>")
	}
	return nil
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "log in and remember the session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, EnvVars: []string{"INBOX_PASSWORD"}, Required: true},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(os.Stderr)
			if err != nil {
				return err
			}
			tok, err := e.api.Login(c.Context, c.String("username"), c.String("password"))
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if err := e.cfg.SaveSession(config.Session{
				BaseURL:  e.cfg.BaseURL,
				Token:    tok.AccessToken,
				UserID:   int64(tok.User.ID),
				Username: tok.User.Username,
			}); err != nil {
				return err
			}
			fmt.Println(render.TitleStyle.Render("Logged in as " + tok.User.DisplayName()))
			return nil
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "forget the saved session",
		Action: func(c *cli.Context) error {
			e, err := setup(os.Stderr)
			if err != nil {
				return err
			}
			return e.cfg.ClearSession()
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "find students or teachers",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "role", Aliases: []string{"r"}, Value: "student", Usage: "student, teacher or any"},
			&cli.IntFlag{Name: "open", Usage: "show the profile of the n-th result (1-based)"},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(os.Stderr)
			if err != nil {
				return err
			}
			role, err := parseRoleFlag(c.String("role"))
			if err != nil {
				return err
			}

			printer := render.NewPrinter(os.Stdout)
			viewer := profile.NewViewer(e.api, printer, e.log)
			modal := search.NewModal(e.api, viewer, nil, printer, search.NewDebouncer(e.cfg.SearchDebounce, nil), e.log)
			modal.Open(c.Context)
			if err := modal.SetRole(c.Context, role); err != nil {
				return err
			}
			if err := modal.Query(c.Context, c.Args().First()); err != nil {
				return err
			}

			n := c.Int("open")
			if n == 0 {
				return nil
			}
			results := modal.Results()
			if n < 1 || n > len(results) {
				return fmt.Errorf("--open %d: only %d results", n, len(results))
			}
			return modal.OpenResult(c.Context, results[n-1])
		},
	}
}

func profileCommand() *cli.Command {
	return &cli.Command{
		Name:      "profile",
		Usage:     "show a user's profile",
		ArgsUsage: "<username>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("usage: inbox profile <username>")
			}
			e, err := setup(os.Stderr)
			if err != nil {
				return err
			}
			printer := render.NewPrinter(os.Stdout)
			return profile.NewViewer(e.api, printer, e.log).Show(c.Context, c.Args().First(), nil)
		},
	}
}

func whoisCommand() *cli.Command {
	return &cli.Command{
		Name:      "whois",
		Usage:     "show the short profile of a user id",
		ArgsUsage: "<user_id>",
		Action: func(c *cli.Context) error {
			id, err := strconv.ParseInt(c.Args().First(), 10, 64)
			if err != nil {
				return errors.New("usage: inbox whois <user_id>")
			}
			e, err := setup(os.Stderr)
			if err != nil {
				return err
			}
			p, err := e.api.LegacyProfile(c.Context, domain.ID(id))
			if err != nil {
				return err
			}
			fmt.Println(render.LegacyProfile(p))
			return nil
		},
	}
}

func sendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "send one message without opening the messenger",
		ArgsUsage: "<conversation_id> <message>",
		Action: func(c *cli.Context) error {
			id, err := strconv.ParseInt(c.Args().Get(0), 10, 64)
			if err != nil || c.NArg() < 2 {
				return errors.New("usage: inbox send <conversation_id> <message>")
			}
			e, err := setup(os.Stderr)
			if err != nil {
				return err
			}
			if err := e.requireSession(); err != nil {
				return err
			}
			f, err := e.api.SendMessage(c.Context, domain.ID(id), strings.Join(c.Args().Slice()[1:], " "))
			if err != nil {
				return err
			}
			fmt.Println(render.MutedStyle.Render("sent " + string(f.MessageID) + " at " + f.CreatedAt))
			return nil
		},
	}
}

func parseRoleFlag(s string) (domain.Role, error) {
	if s == "any" {
		return "", nil
	}
	return domain.ParseRole(s)
}
