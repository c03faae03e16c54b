package render

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// styles holds the text renderer's styles, bound to one lipgloss renderer.
type styles struct {
	letter  lipgloss.Style
	label   lipgloss.Style
	dim     lipgloss.Style
	heading lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	box     lipgloss.Style
}

func newStyles(w io.Writer, color bool) styles {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return styles{
		// letter for bold red bucket headers
		letter: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("160")),
		label: r.NewStyle().
			Foreground(lipgloss.Color("255")),
		// dim for refs and other metadata
		dim: r.NewStyle().
			Foreground(lipgloss.Color("240")),
		heading: r.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true),
		warn: r.NewStyle().
			Foreground(lipgloss.Color("220")),
		err: r.NewStyle().
			Foreground(lipgloss.Color("196")),
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("160")).
			Padding(0, 1),
	}
}

// ColorEnabled resolves a color setting (auto, always or never) for w.
// auto colors terminals unless NO_COLOR is set.
func ColorEnabled(setting string, w io.Writer) bool {
	switch strings.ToLower(setting) {
	case "always":
		return true
	case "never":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return IsTTY(w)
}

// IsTTY checks if w is a terminal.
func IsTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}
