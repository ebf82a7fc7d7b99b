package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/desertthunder/steamlink/internal/models"
	"github.com/desertthunder/steamlink/internal/steam"
)

const (
	defaultWorkers   = 4
	maxWorkers       = 10
	defaultRateLimit = 5.0
)

// Phase represents the current stage of a refresh.
type Phase int

const (
	FetchAccounts Phase = iota
	RefreshProfile
	RefreshComplete
)

// ProgressUpdate is a snapshot of refresh progress.
type ProgressUpdate struct {
	Phase   Phase
	Step    int
	Total   int
	Message string
}

// ProfileSource looks up public Steam profiles. Implemented by [steam.Client].
type ProfileSource interface {
	PlayerSummary(ctx context.Context, steamID string) (*steam.Player, error)
}

// AccountStore lists and updates stored accounts. Implemented by repositories.AccountRepository.
type AccountStore interface {
	List(criteria map[string]any) ([]*models.Account, error)
	Update(account *models.Account) error
}

// RefreshOpts contains configuration for [RefreshEngine.Refresh].
type RefreshOpts struct {
	NumWorkers int     // Concurrent workers (default: 4, max: 10)
	RateLimit  float64 // Requests per second across all workers (default: 5)
	Verified   bool    // Only refresh accounts confirmed with Steam
}

// AccountRefreshResult is the outcome for one account.
type AccountRefreshResult struct {
	SteamID     string
	PersonaName string
	Changed     bool
	Error       error
}

// RefreshResult summarizes a refresh run.
type RefreshResult struct {
	Total   int
	Updated int
	Failed  int
	Results []AccountRefreshResult
}

// RefreshEngine refreshes stored account profiles from Steam.
type RefreshEngine struct {
	source ProfileSource
	store  AccountStore
}

// NewRefreshEngine creates a new RefreshEngine with the provided dependencies.
func NewRefreshEngine(source ProfileSource, store AccountStore) *RefreshEngine {
	return &RefreshEngine{source: source, store: store}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *RefreshEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Refresh re-fetches the profile of each stored account and saves the ones that changed.
//
// Per-account failures are reported in the result. The returned error is set only when the accounts cannot be
// listed or ctx ends before every account was attempted.
func (e *RefreshEngine) Refresh(ctx context.Context, prog chan<- ProgressUpdate, opts RefreshOpts) (*RefreshResult, error) {
	if e.source == nil || e.store == nil {
		return nil, errors.New("refresh engine is missing its profile source or account store")
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	e.sendProgress(prog, ProgressUpdate{Phase: FetchAccounts, Message: "Loading stored accounts"})

	criteria := map[string]any{}
	if opts.Verified {
		criteria["verified"] = true
	}
	accounts, err := e.store.List(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	result := &RefreshResult{
		Total:   len(accounts),
		Results: make([]AccountRefreshResult, 0, len(accounts)),
	}
	if len(accounts) == 0 {
		e.sendProgress(prog, ProgressUpdate{Phase: RefreshComplete, Message: "No accounts to refresh"})
		return result, nil
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan *models.Account, len(accounts))
	results := make(chan AccountRefreshResult, len(accounts))

	for _, a := range accounts {
		jobs <- a
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.refreshWorker(ctx, &wg, limiter, jobs, results)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		result.Results = append(result.Results, res)

		switch {
		case res.Error != nil:
			result.Failed++
		case res.Changed:
			result.Updated++
		}

		msg := fmt.Sprintf("Refreshed %s", res.SteamID)
		if res.Error != nil {
			msg = fmt.Sprintf("Failed %s: %v", res.SteamID, res.Error)
		}
		e.sendProgress(prog, ProgressUpdate{Phase: RefreshProfile, Step: len(result.Results), Total: result.Total, Message: msg})
	}

	e.sendProgress(prog, ProgressUpdate{
		Phase:   RefreshComplete,
		Step:    len(result.Results),
		Total:   result.Total,
		Message: fmt.Sprintf("%d updated, %d failed", result.Updated, result.Failed),
	})

	if err := ctx.Err(); err != nil && len(result.Results) < result.Total {
		return result, fmt.Errorf("refresh interrupted: %w", err)
	}
	return result, nil
}

// refreshWorker is a worker goroutine that refreshes accounts from the jobs channel.
func (e *RefreshEngine) refreshWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan *models.Account,
	results chan<- AccountRefreshResult,
) {
	defer wg.Done()

	for account := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		results <- e.refreshAccount(ctx, account)
	}
}

// refreshAccount fetches one profile and saves it when it differs from the stored copy.
func (e *RefreshEngine) refreshAccount(ctx context.Context, account *models.Account) AccountRefreshResult {
	res := AccountRefreshResult{SteamID: account.SteamID, PersonaName: account.PersonaName}

	player, err := e.source.PlayerSummary(ctx, account.SteamID)
	if err != nil {
		res.Error = fmt.Errorf("failed to fetch profile: %w", err)
		return res
	}

	if player.PersonaName == account.PersonaName && player.Avatar == account.Avatar && player.AvatarFull == account.AvatarFull {
		return res
	}

	account.PersonaName = player.PersonaName
	account.Avatar = player.Avatar
	account.AvatarFull = player.AvatarFull
	if err := e.store.Update(account); err != nil {
		res.Error = fmt.Errorf("failed to save profile: %w", err)
		return res
	}

	res.PersonaName = player.PersonaName
	res.Changed = true
	return res
}
