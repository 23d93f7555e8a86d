package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/culprit/internal/model"
	"github.com/tinytelemetry/culprit/internal/pipeline"
)

var (
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold   = lipgloss.NewStyle().Bold(true)
)

func actorLabel(a model.Actor) string {
	if a == model.NoActor {
		return "none"
	}
	return fmt.Sprintf("actor %d", a)
}

func printVerdicts(w io.Writer, verdicts []model.Verdict) {
	var lines []string
	for _, v := range verdicts {
		result := green.Render(actorLabel(v.Actor))
		if v.Actor == model.NoActor {
			result = dim.Render(actorLabel(v.Actor))
		}

		var votes []string
		for _, p := range v.Predictions {
			votes = append(votes, fmt.Sprintf("%s %s", p.Modality, actorLabel(p.Actor)))
		}
		detail := "no predictor ran"
		if len(votes) > 0 {
			detail = strings.Join(votes, ", ")
		}

		line := fmt.Sprintf("%s: %s  %s", bold.Render(v.Case), result, dim.Render(detail))
		if len(v.Tied) > 1 {
			tied := make([]string, len(v.Tied))
			for i, a := range v.Tied {
				tied[i] = fmt.Sprint(int(a))
			}
			line += "  " + yellow.Render("tie among "+strings.Join(tied, ","))
		}
		lines = append(lines, line)
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}

func printTrainSummary(w io.Writer, s pipeline.TrainSummary, actors int) {
	check := green.Render("●")
	dot := dim.Render("●")

	var lines []string
	lines = append(lines, bold.Render(fmt.Sprintf("Trained on %d cases", s.Cases)))
	for a := 1; a <= actors; a++ {
		n := s.PerActor[model.Actor(a)]
		mark := check
		if n == 0 {
			mark = dot
		}
		lines = append(lines, fmt.Sprintf("  %s  actor %d  %s", mark, a, dim.Render(fmt.Sprintf("%d cases", n))))
	}

	mods := make([]model.Modality, 0, len(s.Rows))
	for m := range s.Rows {
		mods = append(mods, m)
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i] < mods[j] })
	for _, m := range mods {
		var parts []string
		for _, c := range model.Categories {
			if n, ok := s.Rows[m][c]; ok {
				parts = append(parts, fmt.Sprintf("%s=%d", c, n))
			}
		}
		lines = append(lines, fmt.Sprintf("  %s  %-16s %s", check, m, cyan.Render(strings.Join(parts, " "))))
	}
	if s.Snapshot != "" {
		lines = append(lines, fmt.Sprintf("  %s  snapshot         %s", check, dim.Render(shortenPath(s.Snapshot))))
	}
	if s.ProfileKeys > 0 {
		lines = append(lines, fmt.Sprintf("  %s  profile          %s", check, dim.Render(fmt.Sprintf("%d features", s.ProfileKeys))))
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}

func printInspection(w io.Writer, name string, summaries []pipeline.ModalitySummary) {
	var lines []string
	lines = append(lines, bold.Render(name))
	for _, s := range summaries {
		if !s.Loaded {
			lines = append(lines, fmt.Sprintf("  %s  %-16s %s", dim.Render("●"), s.Modality, dim.Render("not loaded")))
			continue
		}
		lines = append(lines, fmt.Sprintf("  %s  %-16s %s", green.Render("●"), s.Modality, cyan.Render(fmt.Sprintf("%d records", s.Records))))
		for _, m := range s.Modes {
			if !m.Present {
				lines = append(lines, fmt.Sprintf("       %-10s %s", m.Category, dim.Render("absent")))
				continue
			}
			lines = append(lines, fmt.Sprintf("       %-10s mode %d %s", m.Category, m.Value,
				dim.Render(fmt.Sprintf("(%d of %d distinct)", m.Count, m.Distinct))))
		}
		if len(s.Protocols) > 0 {
			lines = append(lines, fmt.Sprintf("       protocols  %s", strings.Join(s.Protocols, " ")))
		}
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}

func printStartupBanner(w io.Writer, cfg appConfig, network bool) {
	check := green.Render("●")
	dot := dim.Render("●")

	var lines []string
	lines = append(lines, "")
	lines = append(lines, "    "+cyan.Bold(true).Render("culprit")+" "+dim.Render("v"+version))
	lines = append(lines, "")

	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator)
	lines = append(lines, "")

	lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render(cfg.APIAddr)))
	lines = append(lines, fmt.Sprintf("    %s  Storage        %s", check, dim.Render(shortenPath(cfg.DBPath))))
	if network {
		lines = append(lines, fmt.Sprintf("    %s  Profile        %s", check, dim.Render(shortenPath(cfg.ProfileDir))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Profile        %s", dot, dim.Render("none, network predictor disabled")))
	}
	lines = append(lines, fmt.Sprintf("    %s  Actors         %s", check, dim.Render(fmt.Sprint(cfg.Actors))))
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}

	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"))
	lines = append(lines, "")

	fmt.Fprintln(w, strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
