package predict

import (
	"context"
	"fmt"

	"github.com/tinytelemetry/culprit/internal/frequency"
	"github.com/tinytelemetry/culprit/internal/model"
)

// HostPredictor attributes a host event log from the modes of its
// ProcessID, EventID and Task values.
type HostPredictor struct {
	Modality model.Modality
	Store    model.StatisticsReader
}

// NewHostPredictor returns a predictor for a host modality.
func NewHostPredictor(m model.Modality, store model.StatisticsReader) *HostPredictor {
	return &HostPredictor{Modality: m, Store: store}
}

// Candidates returns the lookup result for each category in tie-break
// order. A category with no value yields a neutral prediction.
func (p *HostPredictor) Candidates(ctx context.Context, events []model.Event) ([]model.Prediction, error) {
	out := make([]model.Prediction, 0, len(model.Categories))
	for _, c := range model.Categories {
		pred := model.Prediction{Modality: p.Modality}
		if value, ok := frequency.Mode(events, c); ok {
			var err error
			pred, err = p.Store.Lookup(ctx, p.Modality, c, value)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", p.Modality, c, err)
			}
			pred.Modality = p.Modality
		}
		out = append(out, pred)
	}
	return out, nil
}

// Predict returns the candidate with the highest confidence; ties go to
// ProcessID, then EventID, then Task.
func (p *HostPredictor) Predict(ctx context.Context, events []model.Event) (model.Prediction, error) {
	candidates, err := p.Candidates(ctx, events)
	if err != nil {
		return model.Prediction{Modality: p.Modality}, err
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Confidence > best.Confidence {
			best = c
		}
	}
	return best, nil
}
