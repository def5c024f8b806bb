package display

import (
	_ "embed"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

//go:embed banner.txt
var bannerRaw string

var taglineStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#71717a")).
	Italic(true)

// RenderBanner returns the banner art and an optional tagline, centred
// for the current terminal width. Replace banner.txt to change the art.
func RenderBanner(tagline string) string {
	return renderBanner(bannerRaw, tagline, termWidth())
}

func renderBanner(art, tagline string, width int) string {
	lines := strings.Split(strings.TrimRight(art, "\n"), "\n")

	maxW := lipgloss.Width(tagline)
	for _, l := range lines {
		if w := lipgloss.Width(l); w > maxW {
			maxW = w
		}
	}
	pad := ""
	if width > maxW {
		pad = strings.Repeat(" ", (width-maxW)/2)
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(pad)
		b.WriteString(BannerStyle.Render(l))
		b.WriteByte('\n')
	}
	if tagline != "" {
		b.WriteByte('\n')
		b.WriteString(pad)
		b.WriteString(taglineStyle.Render(tagline))
		b.WriteByte('\n')
	}
	return b.String()
}

// termWidth returns the current terminal column count, or 80 as fallback.
func termWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return 80
}
