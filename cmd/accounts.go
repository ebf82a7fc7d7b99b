package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/steamlink/internal/formatter"
	"github.com/desertthunder/steamlink/internal/shared"
	"github.com/desertthunder/steamlink/internal/tasks"
)

// AccountsList prints stored accounts
func (r *Runner) AccountsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.setup(cmd); err != nil {
		return err
	}
	repo, err := r.accountRepository()
	if err != nil {
		return err
	}

	criteria := map[string]any{}
	if cmd.Bool("verified") {
		criteria["verified"] = true
	}
	if limit := int(cmd.Int("limit")); limit > 0 {
		criteria["limit"] = limit
	}

	accounts, err := repo.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(accounts, true)
	}

	if len(accounts) == 0 {
		return r.writePlain("No accounts have signed in yet. Run 'steamlink login' to add one.\n")
	}

	r.writePlainHeader(fmt.Sprintf("Accounts (%d)", len(accounts)))
	for _, a := range accounts {
		mark := " "
		if a.Verified {
			mark = "✓"
		}
		r.writePlain("%s %-20s %-24s %s\n", mark, a.SteamID, a.DisplayName(), a.LastLoginAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

// AccountsShow prints one account by Steam ID
func (r *Runner) AccountsShow(ctx context.Context, cmd *cli.Command) error {
	steamID := cmd.StringArg("steam-id")
	if steamID == "" {
		return fmt.Errorf("%w: steam-id", shared.ErrMissingArgument)
	}
	if err := r.setup(cmd); err != nil {
		return err
	}
	repo, err := r.accountRepository()
	if err != nil {
		return err
	}

	account, err := repo.GetBySteamID(steamID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(account, true)
	}
	return r.printAccount(account)
}

// AccountsRemove forgets an account by Steam ID
func (r *Runner) AccountsRemove(ctx context.Context, cmd *cli.Command) error {
	steamID := cmd.StringArg("steam-id")
	if steamID == "" {
		return fmt.Errorf("%w: steam-id", shared.ErrMissingArgument)
	}
	if err := r.setup(cmd); err != nil {
		return err
	}
	repo, err := r.accountRepository()
	if err != nil {
		return err
	}

	account, err := repo.GetBySteamID(steamID)
	if err != nil {
		return err
	}
	if err := repo.Delete(account.ID()); err != nil {
		return fmt.Errorf("failed to remove account: %w", err)
	}

	r.logger.Info("account removed", "steam_id", steamID)
	return r.writePlain("✓ Removed %s (%s)\n", account.DisplayName(), steamID)
}

// AccountsExport writes stored accounts to a file in the requested format
func (r *Runner) AccountsExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if err := r.setup(cmd); err != nil {
		return err
	}
	repo, err := r.accountRepository()
	if err != nil {
		return err
	}

	criteria := map[string]any{}
	if cmd.Bool("verified") {
		criteria["verified"] = true
	}
	accounts, err := repo.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	path, err := formatter.WriteExport(accounts, format, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("accounts exported", "format", format, "path", path, "count", len(accounts))
	return r.writePlain("✓ Exported %d accounts to %s\n", len(accounts), path)
}

// AccountsRefresh re-fetches persona names and avatars for stored accounts
func (r *Runner) AccountsRefresh(ctx context.Context, cmd *cli.Command) error {
	if err := r.setup(cmd); err != nil {
		return err
	}
	if !r.steam.HasAPIKey() {
		return fmt.Errorf("%w: set api_key in the config file or %s", shared.ErrMissingAPIKey, shared.APIKeyEnv)
	}
	repo, err := r.accountRepository()
	if err != nil {
		return err
	}

	prog := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range prog {
			r.logger.Debug(u.Message, "step", u.Step, "total", u.Total)
		}
	}()

	engine := tasks.NewRefreshEngine(r.steam, repo)
	result, err := engine.Refresh(ctx, prog, tasks.RefreshOpts{
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
		Verified:   cmd.Bool("verified"),
	})
	close(prog)
	<-done
	if err != nil {
		return err
	}

	for _, res := range result.Results {
		if res.Error != nil {
			r.logger.Warn("refresh failed", "steam_id", res.SteamID, "error", res.Error)
		}
	}

	r.logger.Info("accounts refreshed", "total", result.Total, "updated", result.Updated, "failed", result.Failed)
	return r.writePlain("✓ Refreshed %d accounts (%d updated, %d failed)\n", result.Total, result.Updated, result.Failed)
}
