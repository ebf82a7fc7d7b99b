package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/steamlink/internal/models"
	"github.com/desertthunder/steamlink/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	WaitingView ViewState = iota
	VerifyingView
	ResultView
)

// LoginFunc turns a captured callback query into a signed-in account.
type LoginFunc func(ctx context.Context, query map[string]string) (*models.Account, error)

// ModelOpts carries the login session the screen waits on.
type ModelOpts struct {
	Port     uint16
	LoginURL string
	Results  <-chan map[string]string
	Login    LoginFunc
	Open     func(url string) error
	Deadline time.Time
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	port     uint16
	loginURL string
	results  <-chan map[string]string
	login    LoginFunc
	open     func(string) error
	deadline time.Time
	now      time.Time
	notice   string
	account  *models.Account
	err      error
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model for a running login session.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	return &Model{
		ctx:      ctx,
		view:     WaitingView,
		port:     opts.Port,
		loginURL: opts.LoginURL,
		results:  opts.Results,
		login:    opts.Login,
		open:     opts.Open,
		deadline: opts.Deadline,
		now:      time.Now(),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.title.UnsetMarginBottom())),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init starts the spinner, the countdown and the wait for the browser redirect.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForCapture(), m.tick())
}

// Result returns the signed-in account, or the reason the login did not complete.
func (m *Model) Result() (*models.Account, error) {
	if m.account == nil && m.err == nil {
		return nil, shared.ErrLoginCancelled
	}
	return m.account, m.err
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		if m.view == ResultView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgCaptured:
		m.view = VerifyingView
		return m, m.complete(msg.data.(map[string]string))

	case MsgCaptureClosed:
		if m.view == WaitingView {
			return m.finish(nil, shared.ErrLoginCancelled)
		}

	case MsgLoginComplete:
		res := msg.data.(loginResult)
		return m.finish(res.account, res.err)

	case MsgBrowserOpened:
		if err, _ := msg.data.(error); err != nil {
			m.notice = fmt.Sprintf("Could not open a browser: %v", err)
		} else {
			m.notice = "Opened the login page in your browser"
		}

	case MsgTick:
		m.now = msg.data.(time.Time)
		if m.view == WaitingView && !m.deadline.IsZero() && !m.now.Before(m.deadline) {
			return m.finish(nil, shared.ErrLoginTimeout)
		}
		if m.view != ResultView {
			return m, m.tick()
		}
	}

	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		if m.view == ResultView {
			return m, tea.Quit
		}
		return m.finish(nil, shared.ErrLoginCancelled)

	case key.Matches(msg, m.keys.open):
		if m.view == WaitingView && m.open != nil {
			return m, m.openBrowser()
		}
	}
	return m, nil
}

func (m *Model) finish(account *models.Account, err error) (tea.Model, tea.Cmd) {
	m.view = ResultView
	m.account = account
	m.err = err
	return m, tea.Quit
}

func (m *Model) waitForCapture() tea.Cmd {
	return func() tea.Msg {
		select {
		case query, ok := <-m.results:
			if !ok {
				return captureClosedMsg()
			}
			return capturedMsg(query)
		case <-m.ctx.Done():
			return captureClosedMsg()
		}
	}
}

func (m *Model) complete(query map[string]string) tea.Cmd {
	return func() tea.Msg {
		if m.login == nil {
			return loginCompleteMsg(nil, errors.New("no login handler configured"))
		}
		account, err := m.login(m.ctx, query)
		return loginCompleteMsg(account, err)
	}
}

func (m *Model) openBrowser() tea.Cmd {
	return func() tea.Msg {
		return browserOpenedMsg(m.open(m.loginURL))
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case WaitingView:
		return m.renderWaiting()
	case VerifyingView:
		return m.renderVerifying()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) renderWaiting() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Steam Login"))
	fmt.Fprintf(&b, "\nListening on 127.0.0.1:%d\n\n", m.port)
	b.WriteString("Sign in with Steam at:\n")
	b.WriteString(styles.link.Render(m.loginURL))
	b.WriteString("\n\n")

	status := fmt.Sprintf("%s Waiting for Steam to redirect back", m.spinner.View())
	if !m.deadline.IsZero() {
		remaining := m.deadline.Sub(m.now).Truncate(time.Second)
		if remaining < 0 {
			remaining = 0
		}
		status += styles.help.Render(fmt.Sprintf(" (%s left)", remaining))
	}
	b.WriteString(status)

	if m.notice != "" {
		b.WriteString("\n" + styles.warn.Render(m.notice))
	}

	b.WriteString("\n\n" + m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m *Model) renderVerifying() string {
	title := styles.title.Render("Steam Login")
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\n%s Verifying your Steam sign-in...\n\n%s", title, m.spinner.View(), helpView)
}

func (m *Model) renderResult() string {
	switch {
	case errors.Is(m.err, shared.ErrLoginCancelled):
		return styles.warn.Render("Login cancelled") + "\n"
	case errors.Is(m.err, shared.ErrLoginTimeout):
		return styles.warn.Render("Login timed out waiting for Steam") + "\n"
	case m.err != nil:
		return styles.err.Render(fmt.Sprintf("Login failed: %v", m.err)) + "\n"
	case m.account == nil:
		return styles.err.Render("No account returned") + "\n"
	}

	info := fmt.Sprintf("✓ Signed in as %s (%s)", m.account.DisplayName(), m.account.SteamID)
	return styles.ok.Render(info) + " " + styles.Badge(m.account.Verified) + "\n"
}
