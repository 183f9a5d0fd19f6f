package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/viewsync/internal/domain"
	"github.com/bnema/viewsync/internal/presence"
)

func newLoginCmd(app *app) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the hub access token",
		Long:  "Store the bearer token used to authenticate with the presence hub. The token is read from --token or, when omitted, from stdin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("token") {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read token from stdin: %w", err)
				}
				token = string(data)
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return errors.New("access token is empty")
			}

			user, err := presence.New(app.hub.URL, presence.WithToken(token)).Self(cmd.Context())
			if err != nil {
				return err
			}

			if err := app.tokens.Put(cmd.Context(), app.hub.TokenKey, token); err != nil {
				return fmt.Errorf("store access token: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (%s)\n", user, user.ID)
			return err
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Access token (JWT)")

	return cmd
}

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the hub access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.tokens.Delete(cmd.Context(), app.hub.TokenKey); err != nil {
				return fmt.Errorf("delete access token: %w", err)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return err
		},
	}
}

func newWhoamiCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the user named by the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			channel := presence.New(app.hub.URL, presence.WithTokenStore(app.tokens, app.hub.TokenKey))
			user, err := channel.Self(cmd.Context())
			if errors.Is(err, domain.ErrUnauthorized) {
				return fmt.Errorf("not logged in (run vs login): %w", err)
			}
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", user, user.ID)
			return err
		},
	}
}
