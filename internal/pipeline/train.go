package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/tinytelemetry/culprit/internal/eventlog"
	"github.com/tinytelemetry/culprit/internal/frequency"
	"github.com/tinytelemetry/culprit/internal/labels"
	"github.com/tinytelemetry/culprit/internal/model"
	"github.com/tinytelemetry/culprit/internal/profile"
)

// Trainer builds the statistics tables, and optionally a protocol profile,
// from a root of labeled training cases.
type Trainer struct {
	Loader Loader
	Store  StatisticsWriter
	// Backup, when set, snapshots the store before tables are replaced.
	Backup SnapshotRunner
	Actors int
	// Categories restricts which tables are replaced. Empty means all.
	Categories []model.Category
	Allowlist  map[string][]string
	// ProfileDir, when set, receives a profile built from the training
	// captures.
	ProfileDir string
}

// TrainSummary reports what a training run wrote.
type TrainSummary struct {
	Cases       int
	PerActor    map[model.Actor]int
	Rows        map[model.Modality]map[model.Category]int
	Snapshot    string
	ProfileKeys int
}

// Train loads every labeled case under root in actor order and replaces the
// stored tables. A nil manifest labels cases by their sorted position.
func (t *Trainer) Train(ctx context.Context, root string, manifest *labels.Manifest) (TrainSummary, error) {
	actors := t.Actors
	if actors <= 0 {
		actors = model.DefaultActorCount
	}
	categories := t.Categories
	if len(categories) == 0 {
		categories = model.Categories
	}

	dirs, err := eventlog.Discover(root)
	if err != nil {
		return TrainSummary{}, err
	}
	names := make([]string, len(dirs))
	for i, d := range dirs {
		names[i] = filepath.Base(d)
	}

	var assignments []labels.Assignment
	if manifest == nil {
		log.Printf("pipeline: no label manifest, labeling %d training cases by position", len(names))
		assignments = labels.Positional(names, actors)
	} else {
		if err := manifest.Validate(actors); err != nil {
			return TrainSummary{}, err
		}
		assignments = manifest.Assign(names)
	}
	if len(assignments) == 0 {
		return TrainSummary{}, fmt.Errorf("no labeled training cases under %s", root)
	}

	builders := make(map[model.Modality]*frequency.Builder, len(HostModalities))
	for _, m := range HostModalities {
		builders[m] = frequency.NewBuilder(actors)
	}
	allowlist := t.Allowlist
	if allowlist == nil {
		allowlist = model.DefaultObservedFields()
	}
	profiles := profile.NewBuilder(actors, allowlist)

	summary := TrainSummary{
		PerActor: make(map[model.Actor]int),
		Rows:     make(map[model.Modality]map[model.Category]int),
	}
	for _, a := range assignments {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		tc, err := t.Loader.Load(ctx, filepath.Join(root, a.Name))
		if err != nil {
			return summary, fmt.Errorf("load training case %s: %w", a.Name, err)
		}
		// Missing host logs still open the actor's column so later
		// actors keep their positions.
		for _, m := range HostModalities {
			if err := builders[m].Add(a.Actor, tc.Events(m)); err != nil {
				return summary, fmt.Errorf("train %s on %s: %w", m, a.Name, err)
			}
		}
		if tc.Has(model.NetworkCapture) {
			profiles.Add(a.Actor, tc.Capture)
		}
		summary.Cases++
		summary.PerActor[a.Actor]++
		log.Printf("pipeline: trained on %s as actor %d", a.Name, a.Actor)
	}

	if t.Backup != nil {
		path, err := t.Backup.RunOnce(ctx)
		if err != nil {
			return summary, fmt.Errorf("snapshot before training: %w", err)
		}
		summary.Snapshot = path
	}

	for _, m := range HostModalities {
		summary.Rows[m] = make(map[model.Category]int, len(categories))
		for _, c := range categories {
			table := builders[m].Table(c)
			if err := t.Store.ReplaceStatistics(ctx, m, c, table); err != nil {
				return summary, fmt.Errorf("store %s %s: %w", m, c, err)
			}
			summary.Rows[m][c] = len(table.Rows)
		}
	}

	if t.ProfileDir != "" {
		p := profiles.Profile()
		if err := profile.Save(t.ProfileDir, p); err != nil {
			return summary, fmt.Errorf("save profile: %w", err)
		}
		summary.ProfileKeys = len(p)
	}
	return summary, nil
}
