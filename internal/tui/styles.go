package tui

import "github.com/charmbracelet/lipgloss"

// Color palette - keeping it minimal and accessible.
var (
	ColorPrimary   = lipgloss.Color("39")  // Blue
	ColorSecondary = lipgloss.Color("245") // Gray
	ColorSuccess   = lipgloss.Color("34")  // Green
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorError     = lipgloss.Color("196") // Red
	ColorMuted     = lipgloss.Color("240") // Dark gray
)

// Styles for command summaries.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Width(12)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSecondary).
			Padding(0, 1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

// Symbols for visual feedback.
const (
	SymbolCheck  = "✓"
	SymbolCross  = "✗"
	SymbolBullet = "•"
)

// Styler renders text with the styles above, or leaves it untouched when
// plain output is wanted.
type Styler struct {
	plain bool
}

// NewStyler returns a Styler. When plain is true every method returns its
// input unchanged.
func NewStyler(plain bool) Styler {
	return Styler{plain: plain}
}

// AutoStyler styles output only in interactive mode.
func AutoStyler() Styler {
	return NewStyler(!IsInteractive())
}

func (s Styler) render(style lipgloss.Style, text string) string {
	if s.plain {
		return text
	}
	return style.Render(text)
}

func (s Styler) Title(text string) string   { return s.render(TitleStyle, text) }
func (s Styler) Label(text string) string   { return s.render(LabelStyle, text) }
func (s Styler) Success(text string) string { return s.render(SuccessStyle, text) }
func (s Styler) Error(text string) string   { return s.render(ErrorStyle, text) }
func (s Styler) Warning(text string) string { return s.render(WarningStyle, text) }
func (s Styler) Muted(text string) string   { return s.render(MutedStyle, text) }

// Box frames text in a rounded border.
func (s Styler) Box(text string) string { return s.render(BoxStyle, text) }
