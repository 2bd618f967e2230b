package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/igsky/internal/shared"
	"github.com/urfave/cli/v3"
)

// appPasswordsURL is where Bluesky users generate app passwords.
const appPasswordsURL = "https://bsky.app/settings/app-passwords"

// AuthLogin authenticates against the configured PDS with an app password.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	identifier := cmd.String("identifier")
	if identifier == "" {
		identifier = r.config.Bluesky.Identifier
	}
	secret := cmd.String("app-password")
	if secret == "" {
		secret = r.config.Bluesky.AppPassword
	}

	if secret == "" {
		r.writePlain("No app password configured. Create one at %s\n", appPasswordsURL)
		if err := shared.OpenBrowser(appPasswordsURL); err != nil {
			r.logger.Debug("could not open browser", "error", err)
		}
		return fmt.Errorf("%w: app password (--app-password or config.toml [bluesky])", shared.ErrMissingCredentials)
	}
	if identifier == "" {
		return fmt.Errorf("%w: identifier (--identifier or config.toml [bluesky])", shared.ErrMissingCredentials)
	}

	if err := r.publisher.ValidateCredentials(identifier, secret); err != nil {
		return err
	}

	session, err := r.publisher.Authenticate(ctx, identifier, secret)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	r.logger.Info("authenticated", "handle", session.Handle, "did", session.DID)
	r.writePlain("✓ Signed in as @%s\n", session.Handle)
	r.writePlain("DID: %s\n", session.DID)
	return nil
}

// AuthWhoami prints the authenticated account profile, signing in from
// config.toml credentials when no session exists yet.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	if err := r.publisher.TestConnection(ctx); err != nil {
		identifier := r.config.Bluesky.Identifier
		secret := r.config.Bluesky.AppPassword
		if identifier == "" || secret == "" {
			return fmt.Errorf("session check failed: %w", err)
		}
		if _, err := r.publisher.Authenticate(ctx, identifier, secret); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
	}

	account, err := r.publisher.AccountInfo(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}

	r.writePlainHeader(fmt.Sprintf("@%s", account.Handle))
	if account.DisplayName != "" {
		r.writePlain("Name: %s\n", account.DisplayName)
	}
	r.writePlain("DID: %s\n", account.DID)
	r.writePlain("Posts: %d\n", account.Posts)
	r.writePlain("Followers: %d • Following: %d\n", account.Followers, account.Follows)
	if account.Description != "" {
		r.writePlainln("%s", account.Description)
	}
	return nil
}

// AuthLogout discards the in-memory session.
//
// App-password sessions are not revocable server-side from here; dropping the
// tokens is all logout means for this client.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("logging out")
	r.writePlain("✓ Session discarded\n")
	return nil
}
