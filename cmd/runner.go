package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/steamlink/internal/repositories"
	"github.com/desertthunder/steamlink/internal/server"
	"github.com/desertthunder/steamlink/internal/shared"
	"github.com/desertthunder/steamlink/internal/steam"
)

// stopTimeout bounds how long a command waits for the listener to shut down.
const stopTimeout = 5 * time.Second

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config         *shared.Config
	logger         *log.Logger
	output         io.Writer
	httpClient     *http.Client
	steam          *steam.Client
	db             *sql.DB
	ownsDB         bool
	accounts       *repositories.AccountRepository
	openBrowser    func(url string) error
	sessionTimeout time.Duration
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Config is loaded from the --config flag when a command runs; a nil DB is opened from the loaded config.
type RunnerOpts struct {
	Config      *shared.Config
	Logger      *log.Logger
	Output      io.Writer
	HTTPClient  *http.Client
	Steam       *steam.Client
	DB          *sql.DB
	OpenBrowser func(url string) error

	// SessionTimeout overrides [server.SessionTimeout].
	SessionTimeout time.Duration
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}
	if opts.SessionTimeout <= 0 {
		opts.SessionTimeout = server.SessionTimeout
	}

	return &Runner{
		config:         opts.Config,
		logger:         opts.Logger,
		output:         opts.Output,
		httpClient:     opts.HTTPClient,
		steam:          opts.Steam,
		db:             opts.DB,
		openBrowser:    opts.OpenBrowser,
		sessionTimeout: opts.SessionTimeout,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		loginCommand, listenCommand, accountsCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and everything it builds afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases the database if the runner opened it.
func (r *Runner) Close() error {
	if r.db != nil && r.ownsDB {
		err := r.db.Close()
		r.db, r.accounts, r.ownsDB = nil, nil, false
		return err
	}
	return nil
}

// setup loads the configuration named by the --config flag (unless one was injected), applies the log level and
// builds the Steam client.
func (r *Runner) setup(cmd *cli.Command) error {
	if r.config == nil {
		config, err := r.loadConfig(cmd.String("config"))
		if err != nil {
			return err
		}
		r.config = config
	}

	level, err := shared.ParseLogLevel(r.config.Log.Level)
	if err != nil {
		return err
	}
	if cmd.Bool("debug") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)

	if r.steam == nil {
		r.steam = steam.NewClient(steam.ClientOpts{
			Endpoint:   r.config.Steam.OpenIDEndpoint,
			APIBaseURL: r.config.Steam.APIBaseURL,
			APIKey:     r.config.Steam.APIKey,
			HTTPClient: r.httpClient,
			Logger:     r.logger,
			Timeout:    r.config.HTTP.Timeout.Duration,
			MaxRetries: r.config.HTTP.MaxRetries,
		})
	}
	return nil
}

func (r *Runner) loadConfig(path string) (*shared.Config, error) {
	if path == "" {
		return shared.DefaultConfig(), nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		r.logger.Debug("config file not found, using defaults", "path", path)
		return shared.DefaultConfig(), nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return config, nil
}

// accountRepository opens (and migrates) the configured database on first use.
func (r *Runner) accountRepository() (*repositories.AccountRepository, error) {
	if r.accounts != nil {
		return r.accounts, nil
	}

	if r.db == nil {
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if r.config.Database.Path != shared.MemoryDatabase {
			shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
		}
		r.db, r.ownsDB = db, true
	}

	if err := shared.RunMigrations(r.db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.accounts = repositories.NewAccountRepository(r.db)
	return r.accounts, nil
}

// newManager creates a listener manager that delivers the captured query to sink.
func (r *Runner) newManager(sink server.Sink) *server.Manager {
	return server.NewManager(server.ManagerOpts{
		Logger:  r.logger,
		Sink:    sink,
		Timeout: r.sessionTimeout,
	})
}

// stopListener cancels the manager's session and waits for it to finish.
func (r *Runner) stopListener(m *server.Manager) error {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if err := m.Cancel(ctx); err != nil {
		r.logger.Error("failed to stop listener", "error", err)
		return fmt.Errorf("failed to stop listener: %w", err)
	}
	return nil
}

// awaitCapture waits for the captured callback query, the caller's cancellation or the session timeout.
func (r *Runner) awaitCapture(ctx context.Context, results <-chan map[string]string) (map[string]string, error) {
	timer := time.NewTimer(r.sessionTimeout)
	defer timer.Stop()

	select {
	case query, ok := <-results:
		if !ok {
			return nil, shared.ErrLoginCancelled
		}
		return query, nil
	case <-ctx.Done():
		return nil, shared.ErrLoginCancelled
	case <-timer.C:
		return nil, shared.ErrLoginTimeout
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
