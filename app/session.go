package app

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/knowledgeai/knowledge-console/internal/auth"
	"github.com/knowledgeai/knowledge-console/internal/config"
	"github.com/knowledgeai/knowledge-console/internal/daemon"
	"github.com/knowledgeai/knowledge-console/internal/logger"
)

// EnvPassword is read when --password is not given.
const EnvPassword = "KNOWLEDGE_CONSOLE_PASSWORD"

// ErrPasswordMismatch is returned by register when both passwords differ.
var ErrPasswordMismatch = errors.New("passwords do not match")

func init() { //nolint: gochecknoinits
	loginCmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	loginCmd.Flags().StringVarP(&password, "password", "p", "", "Account password, defaults to $"+EnvPassword)
	_ = loginCmd.MarkFlagRequired("email")

	registerCmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	registerCmd.Flags().StringVarP(&password, "password", "p", "", "Account password, defaults to $"+EnvPassword)
	registerCmd.Flags().StringVar(&confirmPassword, "confirm-password", "", "Repeat the password")
	registerCmd.Flags().StringVarP(&name, "name", "n", "", "Display name")
	_ = registerCmd.MarkFlagRequired("email")
	_ = registerCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}

var (
	email           string
	password        string
	confirmPassword string
	name            string

	loginCmd = &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCore(cmd, func(ctx context.Context, core *daemon.Core) error {
				user, err := core.Auth.Login(ctx, email, passwordOrEnv())
				if err != nil {
					return errors.New(auth.Message(err))
				}

				fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", user.Email)

				return nil
			})
		},
	}

	registerCmd = &cobra.Command{
		Use:   "register",
		Short: "Create an account and store the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw := passwordOrEnv()
			if confirmPassword != "" && confirmPassword != pw {
				return ErrPasswordMismatch
			}

			return withCore(cmd, func(ctx context.Context, core *daemon.Core) error {
				user, err := core.Auth.Register(ctx, email, pw, name)
				if err != nil {
					return errors.New(auth.Message(err))
				}

				fmt.Fprintf(cmd.OutOrStdout(), "registered and logged in as %s\n", user.Email)

				return nil
			})
		},
	}

	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Log out and remove the stored session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCore(cmd, func(ctx context.Context, core *daemon.Core) error {
				if err := core.Auth.Logout(ctx); err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), "logged out")

				return nil
			})
		},
	}

	whoamiCmd = &cobra.Command{
		Use:   "whoami",
		Short: "Print the logged in identity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCore(cmd, func(_ context.Context, core *daemon.Core) error {
				snap := core.Session.Snapshot()
				if !snap.Authenticated() {
					fmt.Fprintln(cmd.OutOrStdout(), "not logged in")
					return nil
				}

				out := snap.User.Email
				if snap.User.DisplayName != "" {
					out = fmt.Sprintf("%s <%s>", snap.User.DisplayName, snap.User.Email)
				}

				fmt.Fprintln(cmd.OutOrStdout(), out)

				return nil
			})
		},
	}
)

func passwordOrEnv() string {
	if password != "" {
		return password
	}

	return os.Getenv(EnvPassword)
}

// withCore reads the config, wires the core, bootstraps the stored session
// and runs fn.
func withCore(cmd *cobra.Command, fn func(context.Context, *daemon.Core) error) error {
	c, err := config.ReadConfig(configPath)
	if err != nil {
		return err
	}

	if err = logger.Init(c.Log); err != nil {
		return err
	}

	if !verbose {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	core, err := daemon.NewCore(&c, nil)
	if err != nil {
		return err
	}

	defer func() {
		_ = core.Close()
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	core.Auth.Bootstrap(ctx)

	return fn(ctx, core)
}
