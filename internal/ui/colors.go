package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Steam client colors.
const (
	steamBlue  = lipgloss.Color("#66C0F4")
	steamGreen = lipgloss.Color("#A4D007")
	steamNavy  = lipgloss.Color("#171A21")
	errorRed   = lipgloss.Color("#FF4B4B")
	warnAmber  = lipgloss.Color("#FFA500")
	mutedGray  = lipgloss.Color("#626262")
)

var styles = NewPalette(steamBlue, steamGreen, errorRed, warnAmber, mutedGray)

// Painter colors arbitrary text.
type Painter interface {
	On(string, lipgloss.Color) string // background
	As(string, lipgloss.Color) string // foreground
}

// Palette holds the styles of the login screens.
type Palette struct {
	accent lipgloss.Color

	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	link  lipgloss.Style
}

var _ Painter = (*Palette)(nil)

// NewPalette builds a [Palette] from an accent, success, error, warning and muted color.
func NewPalette(accent, success, failure, warning, muted lipgloss.Color) *Palette {
	base := lipgloss.NewStyle()
	return &Palette{
		accent: accent,
		title:  base.Foreground(accent).Bold(true).MarginBottom(1),
		ok:     base.Foreground(success).Bold(true),
		err:    base.Foreground(failure).Bold(true),
		warn:   base.Foreground(warning),
		help:   base.Foreground(muted).Italic(true),
		link:   base.Foreground(accent).Underline(true),
	}
}

func (p *Palette) On(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Background(c).Foreground(steamNavy).Padding(0, 1).Render(s)
}

func (p *Palette) As(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(c).Render(s)
}

// Badge renders the verification state of an account as a short label.
func (p *Palette) Badge(verified bool) string {
	if verified {
		return p.On("verified", p.accent)
	}
	return p.On("unverified", warnAmber)
}
