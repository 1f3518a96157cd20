package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/felixgeelhaar/daysync/internal/shared/infrastructure/storage"
)

var (
	authAccessToken  string
	authRefreshToken string
	authExpiresIn    time.Duration
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the stored credential",
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a usable credential is stored",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Tokens == nil {
			return errNotInitialized
		}
		ctx := cmd.Context()

		tok, err := app.Tokens.Token(ctx)
		if errors.Is(err, storage.ErrKeyNotFound) {
			fmt.Println("No credential stored.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read credential: %w", err)
		}

		switch {
		case tok.Valid():
			if tok.Expiry.IsZero() {
				fmt.Println("Credential valid (no expiry).")
			} else {
				fmt.Printf("Credential valid until %s.\n", tok.Expiry.Format(time.RFC3339))
			}
		case tok.RefreshToken != "":
			fmt.Println("Access token expired, refresh token present.")
		default:
			fmt.Println("Credential expired.")
		}
		return nil
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a credential obtained out of band",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Tokens == nil {
			return errNotInitialized
		}
		if authAccessToken == "" {
			return errors.New("--access-token is required")
		}

		tok := &oauth2.Token{
			AccessToken:  authAccessToken,
			RefreshToken: authRefreshToken,
		}
		if authExpiresIn > 0 {
			tok.Expiry = time.Now().Add(authExpiresIn)
		}
		if err := app.Tokens.SaveToken(cmd.Context(), tok); err != nil {
			return fmt.Errorf("failed to store credential: %w", err)
		}

		// Fresh identity: views must not serve pre-login data.
		app.Engine.Refresh().MarkLoginRefresh()
		fmt.Println("Credential stored.")
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Drop the stored credential, keeping all task data",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Tokens == nil {
			return errNotInitialized
		}
		if err := app.Tokens.ClearToken(cmd.Context()); err != nil {
			return fmt.Errorf("failed to clear credential: %w", err)
		}
		fmt.Println("Logged out. Local tasks are untouched.")
		return nil
	},
}

func init() {
	authLoginCmd.Flags().StringVar(&authAccessToken, "access-token", "", "access token")
	authLoginCmd.Flags().StringVar(&authRefreshToken, "refresh-token", "", "refresh token")
	authLoginCmd.Flags().DurationVar(&authExpiresIn, "expires-in", 0, "access token lifetime (e.g. 1h)")
	authCmd.AddCommand(authStatusCmd, authLoginCmd, authLogoutCmd)
	AddCommand(authCmd)
}
