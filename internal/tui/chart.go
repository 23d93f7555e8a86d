package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/culprit/internal/model"
)

// Tally counts verdicts per actor. Index 0 holds verdicts with no actor.
func Tally(records []model.AttributionRecord, actors int) []int {
	counts := make([]int, actors+1)
	for _, r := range records {
		a := int(r.Actor)
		if a < 0 || a > actors {
			a = 0
		}
		counts[a]++
	}
	return counts
}

// renderTally draws one bar per actor next to a legend.
func renderTally(counts []int, width, height int) string {
	if len(counts) <= 1 {
		return helpStyle.Render("No actors configured")
	}
	legendWidth := 16
	chartWidth := width - legendWidth - 2
	if chartWidth < 3*(len(counts)-1) {
		chartWidth = 3 * (len(counts) - 1)
	}

	bc := barchart.New(chartWidth, height,
		barchart.WithBarGap(1),
	)
	for a := 1; a < len(counts); a++ {
		bc.Push(barchart.BarData{
			Label: fmt.Sprint(a),
			Values: []barchart.BarValue{
				{Name: fmt.Sprintf("actor %d", a), Value: float64(counts[a]), Style: actorStyle(a)},
			},
		})
	}
	bc.Draw()

	var legend []string
	for a := 1; a < len(counts); a++ {
		c := actorColors[(a-1)%len(actorColors)]
		legend = append(legend, lipgloss.NewStyle().Foreground(c).Render(fmt.Sprintf("actor %-2d %5d", a, counts[a])))
	}
	legend = append(legend, helpStyle.Render(fmt.Sprintf("none     %5d", counts[0])))

	return lipgloss.JoinHorizontal(lipgloss.Top, bc.View(), strings.Repeat(" ", 2), strings.Join(legend, "\n"))
}
