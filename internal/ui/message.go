package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/steamlink/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgCaptured MsgKind = iota
	MsgCaptureClosed
	MsgLoginComplete
	MsgBrowserOpened
	MsgTick
)

type loginResult struct {
	account *models.Account
	err     error
}

// capturedMsg is the constructor for [MsgCaptured]
func capturedMsg(query map[string]string) Msg {
	return Msg{kind: MsgCaptured, data: query}
}

// captureClosedMsg is the constructor for [MsgCaptureClosed]
func captureClosedMsg() Msg {
	return Msg{kind: MsgCaptureClosed}
}

// loginCompleteMsg is the constructor for [MsgLoginComplete]
func loginCompleteMsg(account *models.Account, err error) Msg {
	return Msg{kind: MsgLoginComplete, data: loginResult{account, err}}
}

// browserOpenedMsg is the constructor for [MsgBrowserOpened]
func browserOpenedMsg(err error) Msg {
	return Msg{kind: MsgBrowserOpened, data: err}
}

// tickMsg is the constructor for [MsgTick]
func tickMsg(t time.Time) Msg {
	return Msg{kind: MsgTick, data: t}
}
