package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/steamlink/internal/models"
	"github.com/desertthunder/steamlink/internal/server"
	"github.com/desertthunder/steamlink/internal/shared"
	"github.com/desertthunder/steamlink/internal/steam"
)

// Login signs in with Steam: it starts a loopback listener, sends the user to the Steam login page, waits for the
// redirect and records the confirmed account.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) (err error) {
	if cmd.Bool("tui") {
		// Redirect logs to file to avoid interfering with TUI rendering
		fileLogger, err := shared.NewFileLogger("./tmp/steamlink-tui.log")
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		r.SetLogger(fileLogger)
	}

	if err := r.setup(cmd); err != nil {
		return err
	}

	sink := server.NewChanSink(r.logger)
	manager := r.newManager(sink)

	port, err := manager.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start listener: %w", err)
	}
	defer func() {
		if stopErr := r.stopListener(manager); stopErr != nil {
			err = errors.Join(err, stopErr)
		}
	}()

	returnTo := steam.ReturnTo(port)
	loginURL, err := steam.LoginURL(r.config.Steam.OpenIDEndpoint, returnTo, returnTo)
	if err != nil {
		return err
	}

	flow := &loginFlow{
		returnTo: returnTo,
		loginURL: loginURL,
		verify:   r.config.Steam.Verify && !cmd.Bool("no-verify"),
		browser:  !cmd.Bool("no-browser"),
	}
	r.logger.Info("waiting for Steam login", "port", port, "verify", flow.verify)

	if cmd.Bool("tui") {
		return r.loginTUI(ctx, port, sink, flow)
	}

	if cmd.Bool("json") {
		r.logger.Info("open this URL to sign in", "url", loginURL)
	} else {
		r.writePlain("Sign in with Steam at:\n  %s\n", loginURL)
	}
	if flow.browser {
		if err := r.openBrowser(loginURL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	query, err := r.awaitCapture(ctx, sink.Results())
	if err != nil {
		return err
	}

	account, err := r.completeLogin(ctx, query, flow)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(account, true)
	}
	return r.printAccount(account)
}

// loginFlow carries the settings of one login attempt.
type loginFlow struct {
	returnTo string
	loginURL string
	verify   bool
	browser  bool
}

// completeLogin turns a captured callback query into a stored account.
//
// The assertion must be a signed id_res response for this listener. When verification is enabled Steam must confirm
// it; the profile lookup is best effort and only runs with an API key.
func (r *Runner) completeLogin(ctx context.Context, query map[string]string, flow *loginFlow) (*models.Account, error) {
	assertion, err := steam.NewAssertion(query)
	if err != nil {
		return nil, err
	}
	if err := assertion.Validate(); err != nil {
		return nil, err
	}
	if err := assertion.CheckReturnTo(flow.returnTo); err != nil {
		return nil, err
	}

	steamID, err := assertion.SteamID()
	if err != nil {
		return nil, err
	}
	account := models.NewAccount(steamID)

	if flow.verify {
		if _, err := r.steam.Verify(ctx, assertion); err != nil {
			return nil, fmt.Errorf("failed to verify login: %w", err)
		}
		account.Verified = true
	} else {
		r.logger.Warn("skipping assertion verification", "steam_id", steamID)
	}

	if r.steam.HasAPIKey() {
		player, err := r.steam.PlayerSummary(ctx, steamID)
		if err != nil {
			r.logger.Warn("failed to fetch player summary", "steam_id", steamID, "error", err)
		} else {
			account.PersonaName = player.PersonaName
			account.Avatar = player.Avatar
			account.AvatarFull = player.AvatarFull
		}
	} else {
		r.logger.Debug("no Steam Web API key configured, skipping profile lookup")
	}

	repo, err := r.accountRepository()
	if err != nil {
		return nil, err
	}
	if err := repo.RecordLogin(account); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	r.logger.Info("steam login complete", "steam_id", steamID, "verified", account.Verified)
	return account, nil
}

func (r *Runner) printAccount(account *models.Account) error {
	r.writePlainHeader(account.DisplayName())
	r.writePlain("Steam ID:   %s\n", account.SteamID)
	r.writePlain("Verified:   %t\n", account.Verified)
	if account.AvatarFull != "" {
		r.writePlain("Avatar:     %s\n", account.AvatarFull)
	}
	return r.writePlain("Last login: %s\n", account.LastLoginAt.Local().Format("2006-01-02 15:04:05"))
}
