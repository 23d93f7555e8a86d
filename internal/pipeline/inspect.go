package pipeline

import (
	"sort"

	"github.com/tinytelemetry/culprit/internal/frequency"
	"github.com/tinytelemetry/culprit/internal/model"
)

// CategoryMode is the most frequent value of one category.
type CategoryMode struct {
	Category model.Category
	Value    int64
	Count    int64
	Distinct int
	Present  bool
}

// ModalitySummary describes one loaded log of a test case.
type ModalitySummary struct {
	Modality  model.Modality
	Loaded    bool
	Records   int
	Modes     []CategoryMode
	Protocols []string
}

// Inspect summarizes a test case for display: record counts, the mode of
// each host category, and the protocols seen in the capture.
func Inspect(tc *model.TestCase) []ModalitySummary {
	out := make([]ModalitySummary, 0, len(model.Modalities))
	for _, m := range model.Modalities {
		s := ModalitySummary{Modality: m, Loaded: tc.Has(m)}
		if !s.Loaded {
			out = append(out, s)
			continue
		}
		if m == model.NetworkCapture {
			s.Records = len(tc.Capture)
			s.Protocols = protocols(tc.Capture)
		} else {
			events := tc.Events(m)
			s.Records = len(events)
			for _, c := range model.Categories {
				counts, _ := frequency.Histogram(events, c)
				cm := CategoryMode{Category: c, Distinct: len(counts)}
				cm.Value, cm.Present = frequency.Mode(events, c)
				if cm.Present {
					cm.Count = counts[cm.Value]
				}
				s.Modes = append(s.Modes, cm)
			}
		}
		out = append(out, s)
	}
	return out
}

func protocols(records []model.NetworkRecord) []string {
	seen := make(map[string]struct{})
	for _, rec := range records {
		for proto := range rec {
			seen[proto] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
