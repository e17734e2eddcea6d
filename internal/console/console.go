package console

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/zrougamed/cerberus-watch/internal/models"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

const (
	LOG_LINES   = 8
	CLEAR_SCENE = "\x1b[H\x1b[2J"
)

var (
	accentPrimary   = lipgloss.Color("#50E3C2")
	accentSecondary = lipgloss.Color("#F6AE2D")
	mutedText       = lipgloss.Color("#8CA1AE")
	warningText     = lipgloss.Color("#FF6B6B")
	panelBorder     = lipgloss.Color("#2D6A80")
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentPrimary)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedText)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(panelBorder).
			Padding(0, 1)

	blockedStyle = lipgloss.NewStyle().
			Foreground(warningText).
			Bold(true)

	severityStyles = map[models.Severity]lipgloss.Style{
		models.SeverityInfo:    lipgloss.NewStyle().Foreground(mutedText),
		models.SeveritySuccess: lipgloss.NewStyle().Foreground(accentPrimary),
		models.SeverityWarning: lipgloss.NewStyle().Foreground(accentSecondary),
		models.SeverityError:   lipgloss.NewStyle().Foreground(warningText),
	}
)

type Options struct {
	// Hosts fixes the drawing order of the topology row. Hosts missing here
	// are drawn after, sorted by id.
	Hosts []string
	// Clear redraws in place instead of appending frames.
	Clear bool
}

// Console writes one frame per view. It is safe for concurrent use.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	opts  Options
	bar   progress.Model
	title string
}

func New(out io.Writer, opts Options) *Console {
	return &Console{
		out:   out,
		opts:  opts,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40), progress.WithoutPercentage()),
		title: "CERBERUS ATTACK SIMULATION",
	}
}

// Update draws view. It has the signature of a monitor change listener.
func (c *Console) Update(view models.View) {
	frame := c.Render(view)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opts.Clear {
		io.WriteString(c.out, CLEAR_SCENE)
	}
	io.WriteString(c.out, frame)
	io.WriteString(c.out, "\n")
}

// Render builds the frame for view without writing it.
func (c *Console) Render(view models.View) string {
	sections := []string{
		headerStyle.Render(c.title),
		c.renderSession(view),
	}

	if view.Display != nil {
		sections = append(sections, c.renderStats(*view.Display), c.renderTopology(view.Display.Topology))
	}

	sections = append(sections, c.renderLog(view.Log))

	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (c *Console) renderSession(view models.View) string {
	control := "ready"
	if !view.ControlEnabled {
		control = "busy"
	}

	status := "Idle"
	if view.Display != nil {
		status = view.Display.StatusLabel
	}

	line := fmt.Sprintf("%s %s  %s %s  %s %s",
		labelStyle.Render("State:"), view.State,
		labelStyle.Render("Status:"), status,
		labelStyle.Render("Control:"), control)

	bar := fmt.Sprintf("%s %s", c.bar.ViewAs(view.ProgressPercent/100), view.ProgressText)

	return lipgloss.JoinVertical(lipgloss.Left, line, bar)
}

func (c *Console) renderStats(d models.DisplayState) string {
	rows := []string{
		fmt.Sprintf("%s %s", labelStyle.Render("Total packets:"), d.TotalPacketsText),
		fmt.Sprintf("%s %d  %s %d",
			labelStyle.Render(d.TrafficChart.Labels[0]+":"), d.TrafficChart.Data[0],
			labelStyle.Render(d.TrafficChart.Labels[1]+":"), d.TrafficChart.Data[1]),
		fmt.Sprintf("%s %d  %s %d  %s %d",
			labelStyle.Render(d.HostsChart.Labels[0]+" hosts:"), d.HostsChart.Data[0],
			labelStyle.Render(d.HostsChart.Labels[1]+" hosts:"), d.HostsChart.Data[1],
			labelStyle.Render("Attacks detected:"), d.AttacksDetected),
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (c *Console) renderTopology(marks map[string]models.HighlightState) string {
	ids := c.hostOrder(marks)
	cells := make([]string, 0, len(ids))
	for _, id := range ids {
		if marks[id] == models.HighlightBlocked {
			cells = append(cells, blockedStyle.Render("["+id+" BLOCKED]"))
		} else {
			cells = append(cells, "["+id+"]")
		}
	}
	return labelStyle.Render("Topology: ") + strings.Join(cells, " ")
}

func (c *Console) hostOrder(marks map[string]models.HighlightState) []string {
	ids := make([]string, 0, len(marks))
	seen := make(map[string]bool, len(marks))
	for _, id := range c.opts.Hosts {
		if _, ok := marks[id]; ok {
			ids = append(ids, id)
			seen[id] = true
		}
	}

	var rest []string
	for id := range marks {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)

	return append(ids, rest...)
}

func (c *Console) renderLog(entries []models.LogEntry) string {
	if len(entries) > LOG_LINES {
		entries = entries[:LOG_LINES]
	}

	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, labelStyle.Render("Event log:"))
	for _, e := range entries {
		style, ok := severityStyles[e.Severity]
		if !ok {
			style = severityStyles[models.SeverityInfo]
		}
		lines = append(lines, style.Render(fmt.Sprintf("[%s] %s", e.Timestamp.Format("15:04:05"), e.Message)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
