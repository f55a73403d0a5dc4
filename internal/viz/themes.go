package viz

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// Theme is the color scheme of the browser, terminal plots and charts.
// Palette and Ansi list series colors in the same order.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Warning lipgloss.Color
	Palette []string
	Ansi    []asciigraph.AnsiColor
}

var (
	ThemeCyberpunk = Theme{
		Name:    "cyberpunk",
		Primary: lipgloss.Color("#ff00ff"),
		Accent:  lipgloss.Color("#00ffff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#666666"),
		Warning: lipgloss.Color("#ff8800"),
		Palette: []string{"#00ffff", "#ff00ff", "#00ff00", "#ffff00", "#ff8800", "#8888ff", "#ff4444"},
		Ansi:    []asciigraph.AnsiColor{asciigraph.Cyan, asciigraph.Magenta, asciigraph.Green, asciigraph.Yellow, asciigraph.Orange, asciigraph.SlateBlue, asciigraph.Red},
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#0088ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
		Warning: lipgloss.Color("#ffaa00"),
		Palette: []string{"#0088ff", "#ff4444", "#00aa00", "#aa00aa", "#ffaa00", "#666666", "#00aaaa"},
		Ansi:    []asciigraph.AnsiColor{asciigraph.Blue, asciigraph.Red, asciigraph.Green, asciigraph.Purple, asciigraph.Orange, asciigraph.Gray, asciigraph.Teal},
	}

	ThemeOcean = Theme{
		Name:    "ocean",
		Primary: lipgloss.Color("#0077be"),
		Accent:  lipgloss.Color("#ffd700"),
		Text:    lipgloss.Color("#e0f0ff"),
		Muted:   lipgloss.Color("#4488aa"),
		Warning: lipgloss.Color("#ffcc00"),
		Palette: []string{"#00a8cc", "#ffd700", "#00ff88", "#ff4444", "#0077be", "#e0f0ff", "#4488aa"},
		Ansi:    []asciigraph.AnsiColor{asciigraph.DeepSkyBlue, asciigraph.Gold, asciigraph.SpringGreen, asciigraph.Red, asciigraph.DodgerBlue, asciigraph.LightCyan, asciigraph.SteelBlue},
	}

	CurrentTheme = ThemeCyberpunk

	Themes = []Theme{
		ThemeCyberpunk,
		ThemeMinimal,
		ThemeOcean,
	}
)

// GetTheme returns a theme by name, falling back to the default.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeCyberpunk
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// seriesColor returns the hex color of series i.
func (t Theme) seriesColor(i int) string { return t.Palette[i%len(t.Palette)] }

func (t Theme) ansiColors(n int) []asciigraph.AnsiColor {
	out := make([]asciigraph.AnsiColor, n)
	for i := range out {
		out[i] = t.Ansi[i%len(t.Ansi)]
	}
	return out
}

func (t Theme) next() Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}
