package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/steamlink/internal/models"
	"github.com/desertthunder/steamlink/internal/server"
	"github.com/desertthunder/steamlink/internal/ui"
)

// loginTUI waits for the Steam redirect behind the interactive waiting screen.
func (r *Runner) loginTUI(ctx context.Context, port uint16, sink *server.ChanSink, flow *loginFlow) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if flow.browser {
		if err := r.openBrowser(flow.loginURL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	model := ui.NewModel(ctx, ui.ModelOpts{
		Port:     port,
		LoginURL: flow.loginURL,
		Results:  sink.Results(),
		Login: func(ctx context.Context, query map[string]string) (*models.Account, error) {
			return r.completeLogin(ctx, query, flow)
		},
		Open:     r.openBrowser,
		Deadline: time.Now().Add(r.sessionTimeout),
	})

	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	_, err := model.Result()
	return err
}
