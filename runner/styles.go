package runner

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Styles holds the lipgloss styles used by the TUI.
type Styles struct {
	Bold     lipgloss.Style
	Dim      lipgloss.Style
	Muted    lipgloss.Style
	Path     lipgloss.Style
	CaseName lipgloss.Style

	Pass    lipgloss.Style
	Fail    lipgloss.Style
	Skip    lipgloss.Style
	Error   lipgloss.Style
	Running lipgloss.Style
	Defect  lipgloss.Style

	ProgressFilled lipgloss.Style
	ProgressEmpty  lipgloss.Style

	SymbolPass string
	SymbolFail string
	SymbolSkip string
}

// DefaultStyles returns the adaptive default palette.
func DefaultStyles() *Styles {
	return &Styles{
		Bold:     lipgloss.NewStyle().Bold(true),
		Dim:      lipgloss.NewStyle().Faint(true),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "245", Dark: "243"}),
		Path:     lipgloss.NewStyle().Faint(true).Underline(true),
		CaseName: lipgloss.NewStyle(),

		Pass:    lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "42"}),
		Fail:    lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "160", Dark: "203"}),
		Skip:    lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "136", Dark: "220"}),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "125", Dark: "213"}),
		Running: lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "25", Dark: "75"}),
		Defect:  lipgloss.NewStyle().Italic(true).Foreground(lipgloss.AdaptiveColor{Light: "136", Dark: "220"}),

		ProgressFilled: lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "42"}),
		ProgressEmpty:  lipgloss.NewStyle().Faint(true),

		SymbolPass: "✓",
		SymbolFail: "✗",
		SymbolSkip: "○",
	}
}

func unicodeOK() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) && os.Getenv("TERM") != "dumb"
}

// SpinnerFrames returns the frames of the running-case spinner.
func SpinnerFrames() []string {
	if !unicodeOK() {
		return []string{"|", "/", "-", "\\"}
	}

	return []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
}

// ProgressChars returns the filled and empty progress bar characters.
func ProgressChars() (filled, empty string) {
	if !unicodeOK() {
		return "#", "-"
	}

	return "█", "░"
}
