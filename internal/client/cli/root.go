package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dmitrijs2005/usermanager/internal/client/config"
	"github.com/spf13/cobra"
)

// annotationNoSession marks commands that run without the session database
// and backend client.
const annotationNoSession = "usermgr/no-session"

// Version is reported by --version.
var Version = "dev"

// newAppFn is a test seam for NewApp.
var newAppFn = NewApp

// cmdEnv carries the App built by the root command's pre-run hook to the
// subcommands.
type cmdEnv struct {
	app *App
	in  io.Reader
}

// newRootCmd builds the usermgr command tree.
func newRootCmd(in io.Reader) (*cobra.Command, *cmdEnv) {
	rt := &cmdEnv{in: in}

	cmd := &cobra.Command{
		Use:     config.AppName,
		Short:   "usermgr - user management client",
		Version: Version,
		Long:    `usermgr signs you in to the user management backend, edits your
profile and, for administrators, manages user accounts and statistics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[annotationNoSession] != "" || cmd.Name() == "help" {
				return nil
			}
			cfg, err := config.Load(cmd.Context(), config.Sources{Flags: cmd.Flags()})
			if err != nil {
				return err
			}
			app, err := newAppFn(cmd.Context(), cfg, rt.in, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			rt.app = app
			return nil
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newLoginCmd(rt),
		newRegisterCmd(rt),
		newLogoutCmd(rt),
		newWhoAmICmd(rt),
		newProfileCmd(rt),
		newPasswdCmd(rt),
		newPictureCmd(rt),
		newUsersCmd(rt),
		newStatsCmd(rt),
		newDashboardCmd(rt),
		newPasswordCmd(),
		newRouteCmd(rt),
		newShellCmd(rt),
	)
	return cmd, rt
}

// Execute runs the command line args and returns the process exit code.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	cmd, rt := newRootCmd(in)
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	err := cmd.ExecuteContext(ctx)
	if rt.app != nil {
		_ = rt.app.Close()
	}
	if err != nil {
		fmt.Fprintln(errOut, describe(err))
		return 1
	}
	return 0
}

func newLoginCmd(rt *cmdEnv) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.app.Login(cmd.Context(), email)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email (prompted when empty)")
	return cmd
}

func newRegisterCmd(rt *cmdEnv) *cobra.Command {
	return &cobra.Command{
		Use:     "register",
		Aliases: []string{"signup"},
		Short:   "Create an account and sign in",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.app.Register(cmd.Context())
		},
	}
}

func newLogoutCmd(rt *cmdEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the local session and revoke it on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.app.Logout(cmd.Context())
		},
	}
}

func newWhoAmICmd(rt *cmdEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.app.WhoAmI(cmd.Context())
		},
	}
}

func newProfileCmd(rt *cmdEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your profile",
	}

	var fullName, email string
	update := &cobra.Command{
		Use:   "update",
		Short: "Change your name or email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			interactive := fullName == "" && email == ""
			return rt.app.UpdateProfile(cmd.Context(), fullName, email, interactive)
		},
	}
	update.Flags().StringVar(&fullName, "full-name", "", "new full name (kept when empty)")
	update.Flags().StringVar(&email, "email", "", "new email (kept when empty)")

	cmd.AddCommand(update)
	return cmd
}

func newPasswdCmd(rt *cmdEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change your password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.app.ChangePassword(cmd.Context())
		},
	}
}

func newPictureCmd(rt *cmdEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "picture",
		Short: "Manage your profile picture",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "upload <file>",
			Short: "Upload a JPEG, PNG or WebP picture (max 5MB)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return rt.app.UploadPicture(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "delete",
			Short: "Remove the profile picture",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return rt.app.DeletePicture(cmd.Context())
			},
		},
	)
	return cmd
}

func newUsersCmd(rt *cmdEnv) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Administer user accounts",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List users, ten per page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.app.ListUsers(cmd.Context(), page)
		},
	}
	list.Flags().IntVarP(&page, "page", "p", 1, "page number")

	byID := func(use, short string, run func(ctx context.Context, id int64) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				return run(cmd.Context(), id)
			},
		}
	}

	cmd.AddCommand(
		list,
		byID("show", "Show one user", func(ctx context.Context, id int64) error {
			return rt.app.ShowUser(ctx, id)
		}),
		byID("activate", "Activate a user", func(ctx context.Context, id int64) error {
			return rt.app.SetUserActive(ctx, id, true)
		}),
		byID("deactivate", "Deactivate a user", func(ctx context.Context, id int64) error {
			return rt.app.SetUserActive(ctx, id, false)
		}),
	)
	return cmd
}

func newStatsCmd(rt *cmdEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show user statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.app.Stats(cmd.Context())
		},
	}
}

func newDashboardCmd(rt *cmdEnv) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the admin dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.app.Dashboard(cmd.Context(), page)
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "users page number")
	return cmd
}

func newPasswordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Password policy tools",
	}
	cmd.AddCommand(&cobra.Command{
		Use:         "check [password]",
		Short:       "Show the strength and policy checklist of a password",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{annotationNoSession: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkPassword(cmd.OutOrStdout(), arg(args, 0))
		},
	})
	return cmd
}

func newRouteCmd(rt *cmdEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "route <path>",
		Short: "Show where a page resolves to in the current session",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return rt.app.Route(args[0])
		},
	}
}

func newShellCmd(rt *cmdEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := rt.app
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			fmt.Fprintln(a.out, "Welcome to usermgr (type 'help' for commands)")
			runREPL(ctx, a, a.watchStatus(ctx), func(err error) {
				fmt.Fprintln(cmd.ErrOrStderr(), describe(err))
			}, a.reader)
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("id must be a positive integer")
	}
	return id, nil
}
