package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/culprit/internal/eventlog"
	"github.com/tinytelemetry/culprit/internal/model"
	"github.com/tinytelemetry/culprit/internal/predict"
	"github.com/tinytelemetry/culprit/internal/vote"
)

// Attributor runs the three predictors over test cases and votes.
type Attributor struct {
	Loader Loader
	Stats  model.StatisticsReader
	// Network may be nil when no profile is available; the network
	// predictor then abstains.
	Network *predict.NetworkPredictor
	Voter   *vote.Aggregator
	// Recorder, when set, persists every verdict.
	Recorder model.AttributionWriter
	Workers  int

	now func() time.Time
}

// Predictions runs every predictor whose log was loaded, in vote order.
func (a *Attributor) Predictions(ctx context.Context, tc *model.TestCase) ([]model.Prediction, error) {
	var out []model.Prediction
	for _, m := range model.Modalities {
		if !tc.Has(m) {
			continue
		}
		switch m {
		case model.NetworkCapture:
			if a.Network == nil {
				continue
			}
			out = append(out, a.Network.Predict(tc.Capture))
		default:
			pred, err := predict.NewHostPredictor(m, a.Stats).Predict(ctx, tc.Events(m))
			if err != nil {
				return nil, fmt.Errorf("predict %s: %w", tc.Name, err)
			}
			out = append(out, pred)
		}
	}
	return out, nil
}

// AttributeCase votes on an already loaded test case.
func (a *Attributor) AttributeCase(ctx context.Context, tc *model.TestCase) (model.Verdict, error) {
	preds, err := a.Predictions(ctx, tc)
	if err != nil {
		return model.Verdict{Case: tc.Name}, err
	}
	v := a.Voter.Vote(preds)
	v.Case = tc.Name
	if err := a.record(ctx, v); err != nil {
		return v, err
	}
	return v, nil
}

// Attribute loads and attributes one test case directory.
func (a *Attributor) Attribute(ctx context.Context, dir string) (model.Verdict, error) {
	tc, err := a.Loader.Load(ctx, dir)
	if err != nil {
		return model.Verdict{}, err
	}
	return a.AttributeCase(ctx, tc)
}

// Run attributes every test case under root. Cases are loaded and
// predicted by a bounded worker pool; votes are taken afterwards in
// directory order. A case that cannot be read is logged and reported
// with no verdict.
func (a *Attributor) Run(ctx context.Context, root string) ([]model.Verdict, error) {
	dirs, err := eventlog.Discover(root)
	if err != nil {
		return nil, err
	}

	workers := a.Workers
	if workers <= 0 {
		workers = model.DefaultWorkers
	}

	names := make([]string, len(dirs))
	preds := make([][]model.Prediction, len(dirs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, dir := range dirs {
		i, dir := i, dir
		g.Go(func() error {
			tc, err := a.Loader.Load(gctx, dir)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Printf("pipeline: skipping %s: %v", dir, err)
				return nil
			}
			names[i] = tc.Name
			p, err := a.Predictions(gctx, tc)
			if err != nil {
				return err
			}
			preds[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	verdicts := make([]model.Verdict, 0, len(dirs))
	for i := range dirs {
		if names[i] == "" {
			continue
		}
		v := a.Voter.Vote(preds[i])
		v.Case = names[i]
		if err := a.record(ctx, v); err != nil {
			return verdicts, err
		}
		verdicts = append(verdicts, v)
	}
	return verdicts, nil
}

func (a *Attributor) record(ctx context.Context, v model.Verdict) error {
	if a.Recorder == nil {
		return nil
	}
	now := time.Now
	if a.now != nil {
		now = a.now
	}
	if err := a.Recorder.RecordAttribution(ctx, Record(v, now())); err != nil {
		return fmt.Errorf("record attribution %s: %w", v.Case, err)
	}
	return nil
}

// Record flattens a verdict into its persisted form.
func Record(v model.Verdict, at time.Time) model.AttributionRecord {
	rec := model.AttributionRecord{
		Timestamp: at,
		Case:      v.Case,
		Actor:     v.Actor,
		Tied:      len(v.Tied) > 1,
	}
	for _, p := range v.Predictions {
		switch p.Modality {
		case model.NetworkCapture:
			rec.Network = p.Actor
		case model.HostSecurity:
			rec.Security = p.Actor
		case model.HostMonitoring:
			rec.Monitoring = p.Actor
		}
	}
	return rec
}
