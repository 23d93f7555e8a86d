// Package predict scores one test case modality against the trained tables.
package predict

import (
	"github.com/tinytelemetry/culprit/internal/model"
	"github.com/tinytelemetry/culprit/internal/profile"
)

// NetworkPredictor attributes a capture by summing the profile weights of
// its features.
type NetworkPredictor struct {
	Profile   profile.Profile
	Allowlist map[string][]string
	Actors    int
}

// NewNetworkPredictor builds a predictor over p. A nil allowlist uses the
// default observed fields.
func NewNetworkPredictor(p profile.Profile, allowlist map[string][]string, actors int) *NetworkPredictor {
	if allowlist == nil {
		allowlist = model.DefaultObservedFields()
	}
	if actors <= 0 {
		actors = model.DefaultActorCount
	}
	return &NetworkPredictor{Profile: p, Allowlist: allowlist, Actors: actors}
}

// Scores returns the summed weight per actor for a capture.
func (p *NetworkPredictor) Scores(records []model.NetworkRecord) []float64 {
	scores := make([]float64, p.Actors)
	for _, key := range profile.Extract(records, p.Allowlist) {
		weights, ok := p.Profile[key]
		if !ok {
			continue
		}
		for i := 0; i < len(weights) && i < p.Actors; i++ {
			scores[i] += weights[i]
		}
	}
	return scores
}

// Predict returns the actor with the strictly highest score. With no
// positive score the first actor is returned; ties keep the lowest actor.
// Confidence is the winner's share of the positive score mass.
func (p *NetworkPredictor) Predict(records []model.NetworkRecord) model.Prediction {
	scores := p.Scores(records)

	best := 0.0
	actor := model.Actor(1)
	var mass float64
	for i, s := range scores {
		if s > 0 {
			mass += s
		}
		if s > best {
			best = s
			actor = model.Actor(i + 1)
		}
	}

	pred := model.Prediction{Modality: model.NetworkCapture, Actor: actor}
	if mass > 0 {
		pred.Confidence = best / mass
	}
	return pred
}
