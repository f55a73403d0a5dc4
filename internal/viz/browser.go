package viz

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/episim/internal/epi"
)

// Browser is a Bubble Tea model that steps through a stored trajectory.
// It shows every compartment at the current grid point and a braille plot
// of the selected one.
type Browser struct {
	title    string
	times    []float64
	series   []Series
	bounds   [][2]float64
	index    int
	selected int
	width    int
	height   int
	theme    Theme
}

func NewBrowser(title string, tr *epi.Trajectory) *Browser {
	series := Compartments(tr)
	bounds := make([][2]float64, len(series))
	for i, s := range series {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range finite(s.Values) {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		bounds[i] = [2]float64{lo, hi}
	}
	return &Browser{
		title:  title,
		times:  tr.TimeGrid(),
		series: series,
		bounds: bounds,
		width:  80,
		height: 24,
		theme:  CurrentTheme,
	}
}

// Run blocks until the user quits.
func (b *Browser) Run() error {
	_, err := tea.NewProgram(b, tea.WithAltScreen()).Run()
	return err
}

func (b *Browser) Index() int    { return b.index }
func (b *Browser) Selected() int { return b.selected }

func (b *Browser) Init() tea.Cmd { return nil }

func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return b.handleKey(msg)
	case tea.WindowSizeMsg:
		b.width, b.height = msg.Width, msg.Height
	}
	return b, nil
}

func (b *Browser) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	last := len(b.times) - 1
	jump := max(len(b.times)/10, 1)
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return b, tea.Quit
	case "right", "l":
		b.index = min(b.index+1, last)
	case "left", "h":
		b.index = max(b.index-1, 0)
	case "]":
		b.index = min(b.index+jump, last)
	case "[":
		b.index = max(b.index-jump, 0)
	case "home", "g":
		b.index = 0
	case "end", "G":
		b.index = last
	case "down", "j":
		b.selected = min(b.selected+1, len(b.series)-1)
	case "up", "k":
		b.selected = max(b.selected-1, 0)
	case "t":
		b.theme = b.theme.next()
	}
	return b, nil
}

func (b *Browser) View() string {
	if len(b.times) == 0 {
		return "empty trajectory\n"
	}
	var s strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(b.theme.Accent)
	s.WriteString(title.Render(b.title))
	s.WriteString("\n\n")

	span := b.times[len(b.times)-1] - b.times[0]
	frac := 1.0
	if span > 0 {
		frac = (b.times[b.index] - b.times[0]) / span
	}
	s.WriteString(fmt.Sprintf("%s %s  %s\n\n",
		MetricLabel.Render("day"),
		MetricValue.Render(fmt.Sprintf("%8.2f", b.times[b.index])),
		ProgressBar(frac, 30)))

	sparkWidth := max(b.width-50, 10)
	for i, series := range b.series {
		label := fmt.Sprintf("%-28s", series.Name)
		value := fmt.Sprintf("%14.2f", series.Values[b.index])
		if i == b.selected {
			label = lipgloss.NewStyle().Bold(true).Foreground(b.theme.Primary).Render("> " + label)
		} else {
			label = MetricLabel.Render("  " + label)
		}
		color := lipgloss.NewStyle().Foreground(lipgloss.Color(b.theme.seriesColor(i)))
		s.WriteString(label + " " + MetricValue.Render(value) + "  " + color.Render(Sparkline(series.Values, sparkWidth)) + "\n")
	}
	s.WriteString("\n")

	s.WriteString(b.plot())
	s.WriteString("\n")
	s.WriteString(KeyHint.Render("←/→ step  [/] jump  ↑/↓ select  t theme  q quit"))
	s.WriteString("\n")
	return s.String()
}

func (b *Browser) plot() string {
	cols := max(b.width-4, 10)
	rows := max(b.height-len(b.series)-12, 4)
	canvas := NewCanvas(cols, rows)

	series := b.series[b.selected]
	lo, hi := b.bounds[b.selected][0], b.bounds[b.selected][1]
	canvas.PlotLine(series.Values, lo, hi)
	if n := len(series.Values); n > 1 {
		canvas.Marker(b.index * (cols*2 - 1) / (n - 1))
	}

	color := lipgloss.NewStyle().Foreground(lipgloss.Color(b.theme.seriesColor(b.selected)))
	caption := Subtle.Render(fmt.Sprintf("%s  [%.4g, %.4g]", series.Name, lo, hi))
	return Panel.Render(color.Render(strings.TrimRight(canvas.String(), "\n")) + "\n" + caption)
}
