// Package tui is an interactive terminal view of the attribution history.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/culprit/internal/model"
)

// HistorySource reads recorded verdicts, newest first.
type HistorySource interface {
	RecentAttributions(ctx context.Context, limit int, testCase string) ([]model.AttributionRecord, error)
}

// TickMsg triggers a periodic history refresh.
type TickMsg time.Time

type historyLoadedMsg struct {
	records []model.AttributionRecord
	err     error
}

// Browser is the Bubble Tea model listing recent verdicts with a per-actor
// tally chart.
type Browser struct {
	source         HistorySource
	actors         int
	limit          int
	updateInterval time.Duration
	keys           KeyMap

	table    table.Model
	records  []model.AttributionRecord
	err      error
	paused   bool
	inFlight bool
	width    int
	height   int
}

// NewBrowser creates a browser over source.
func NewBrowser(source HistorySource, actors, limit int, updateInterval time.Duration) *Browser {
	if actors <= 0 {
		actors = model.DefaultActorCount
	}
	if limit <= 0 {
		limit = 200
	}
	if updateInterval <= 0 {
		updateInterval = 2 * time.Second
	}
	t := table.New(
		table.WithColumns(columns(76)),
		table.WithFocused(true),
		table.WithHeight(10),
		table.WithWidth(76),
	)
	return &Browser{
		source:         source,
		actors:         actors,
		limit:          limit,
		updateInterval: updateInterval,
		keys:           DefaultKeyMap(),
		table:          t,
		width:          80,
		height:         24,
	}
}

func columns(width int) []table.Column {
	caseWidth := width - 19 - 4*9 - 12
	if caseWidth < 12 {
		caseWidth = 12
	}
	return []table.Column{
		{Title: "Recorded", Width: 19},
		{Title: "Case", Width: caseWidth},
		{Title: "Actor", Width: 7},
		{Title: "Network", Width: 7},
		{Title: "Security", Width: 8},
		{Title: "Sysmon", Width: 7},
		{Title: "Tie", Width: 3},
	}
}

func actorCell(a model.Actor) string {
	if a == model.NoActor {
		return "-"
	}
	return fmt.Sprint(int(a))
}

func rows(records []model.AttributionRecord) []table.Row {
	out := make([]table.Row, 0, len(records))
	for _, r := range records {
		tie := ""
		if r.Tied {
			tie = "*"
		}
		out = append(out, table.Row{
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.Case,
			actorCell(r.Actor),
			actorCell(r.Network),
			actorCell(r.Security),
			actorCell(r.Monitoring),
			tie,
		})
	}
	return out
}

func (b *Browser) fetchCmd() tea.Cmd {
	source, limit := b.source, b.limit
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		records, err := source.RecentAttributions(ctx, limit, "")
		return historyLoadedMsg{records: records, err: err}
	}
}

func (b *Browser) tickCmd() tea.Cmd {
	return tea.Tick(b.updateInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Init loads the history and starts the refresh tick.
func (b *Browser) Init() tea.Cmd {
	b.inFlight = true
	return tea.Batch(b.fetchCmd(), b.tickCmd())
}

// Update handles key presses, resizes, ticks and loaded history.
func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width, b.height = msg.Width, msg.Height
		b.table.SetColumns(columns(max(40, msg.Width-4)))
		b.table.SetWidth(max(40, msg.Width-4))
		b.table.SetHeight(max(3, msg.Height-chartHeight-8))
		return b, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, b.keys.Quit):
			return b, tea.Quit
		case key.Matches(msg, b.keys.Refresh):
			if b.inFlight {
				return b, nil
			}
			b.inFlight = true
			return b, b.fetchCmd()
		case key.Matches(msg, b.keys.Pause):
			b.paused = !b.paused
			return b, nil
		}

	case TickMsg:
		// Skip refresh while paused or while a fetch is still running.
		if b.paused || b.inFlight {
			return b, b.tickCmd()
		}
		b.inFlight = true
		return b, tea.Batch(b.fetchCmd(), b.tickCmd())

	case historyLoadedMsg:
		b.inFlight = false
		b.err = msg.err
		if msg.err == nil {
			b.records = msg.records
			b.table.SetRows(rows(msg.records))
		}
		return b, nil
	}

	var cmd tea.Cmd
	b.table, cmd = b.table.Update(msg)
	return b, cmd
}

const chartHeight = 8

// View renders the tally chart above the verdict table.
func (b *Browser) View() string {
	inner := max(40, b.width-4)

	header := titleStyle.Render(fmt.Sprintf("Attributions (%d)", len(b.records)))
	if b.paused {
		header += helpStyle.Render("  paused")
	}

	chart := sectionStyle.Width(inner).Render(renderTally(Tally(b.records, b.actors), inner-2, chartHeight))
	list := sectionStyle.Width(inner).Render(b.table.View())

	var help []string
	for _, k := range b.keys.ShortHelp() {
		h := k.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	footer := helpStyle.Render(strings.Join(help, " • "))
	if b.err != nil {
		footer = errorStyle.Render("refresh failed: "+b.err.Error()) + "\n" + footer
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, chart, list, footer)
}

// Run starts the browser in the alternate screen and blocks until quit.
func Run(source HistorySource, actors, limit int, updateInterval time.Duration) error {
	_, err := tea.NewProgram(NewBrowser(source, actors, limit, updateInterval), tea.WithAltScreen()).Run()
	return err
}
