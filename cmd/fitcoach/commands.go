package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/fitcoach/internal/buildinfo"
	"github.com/dmitrijs2005/fitcoach/internal/client/app"
	"github.com/dmitrijs2005/fitcoach/internal/client/config"
	"github.com/dmitrijs2005/fitcoach/internal/client/session"
	"github.com/dmitrijs2005/fitcoach/internal/client/shell"
	"github.com/dmitrijs2005/fitcoach/internal/logging"
)

// newRootCmd builds the fitcoach command tree. Without a subcommand the
// interactive shell starts.
func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "fitcoach",
		Short: "Sign in to your fitness coach from the terminal",
		Long: `fitcoach keeps you signed in to your coaching account.

Accounts live either on an identityd server (--backend hosted) or in the
local store (--backend local). With "remember me" the session survives
restarts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	loader := config.Bind(root.PersistentFlags())

	// withApp boots an App for one command and tears it down afterwards.
	withApp := func(fn func(ctx context.Context, a *app.App, sh *shell.Shell) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg, err := loader.Load()
			if err != nil {
				return err
			}
			logger := logging.NewTextLogger(errOut, cfg.LogLevel)

			ctx := cmd.Context()
			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					logger.Warn(ctx, "failed to close", "error", err)
				}
			}()

			if err := a.Start(ctx); err != nil {
				return err
			}
			return fn(ctx, a, shell.New(a.Sessions, in, out))
		}
	}

	runShell := withApp(func(ctx context.Context, _ *app.App, sh *shell.Shell) error {
		return sh.Run(ctx)
	})
	exec := func(name string) func(*cobra.Command, []string) error {
		return withApp(func(ctx context.Context, _ *app.App, sh *shell.Shell) error {
			return sh.Exec(ctx, name)
		})
	}

	root.RunE = runShell

	root.AddCommand(
		&cobra.Command{
			Use:   "shell",
			Short: "Start the interactive shell",
			Args:  cobra.NoArgs,
			RunE:  runShell,
		},
		&cobra.Command{
			Use:   "login",
			Short: "Sign in with email and password",
			Args:  cobra.NoArgs,
			RunE:  exec("login"),
		},
		&cobra.Command{
			Use:   "register",
			Short: "Create an account and sign in",
			Args:  cobra.NoArgs,
			RunE:  exec("register"),
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Sign out and forget the remembered session",
			Args:  cobra.NoArgs,
			RunE:  exec("logout"),
		},
		&cobra.Command{
			Use:   "whoami",
			Short: "Show the profile of the remembered session",
			Args:  cobra.NoArgs,
			RunE:  exec("whoami"),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show backend reachability and session state",
			Args:  cobra.NoArgs,
			RunE: withApp(func(ctx context.Context, a *app.App, _ *shell.Shell) error {
				printStatus(ctx, out, a)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Args:  cobra.NoArgs,
			Run: func(*cobra.Command, []string) {
				buildinfo.PrintBuildData(out)
			},
		},
	)

	return root
}

func printStatus(ctx context.Context, w io.Writer, a *app.App) {
	backend := a.Config.Backend
	if backend == config.BackendHosted {
		backend += " (" + a.Config.ServerEndpointAddr + ")"
	}
	fmt.Fprintln(w, "Backend:  ", backend)
	fmt.Fprintln(w, "Store:    ", a.Config.Store)

	if err := a.Ping(ctx); err != nil {
		fmt.Fprintln(w, "Reachable: no,", shell.MessageFor(err))
	} else {
		fmt.Fprintln(w, "Reachable: yes")
	}

	st := a.Sessions.State()
	switch st.Status() {
	case session.StatusSignedIn:
		fmt.Fprintln(w, "Session:   signed in as", st.Profile.Email)
	default:
		fmt.Fprintln(w, "Session:   signed out")
	}
}
