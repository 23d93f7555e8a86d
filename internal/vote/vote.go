// Package vote combines per-modality predictions into one verdict.
package vote

import (
	"math/rand/v2"
	"sync"

	"github.com/tinytelemetry/culprit/internal/model"
)

// Aggregator runs a plurality vote over predictions. Ties are broken
// uniformly at random using Rand. It is safe for concurrent use.
type Aggregator struct {
	Actors int
	Rand   *rand.Rand

	mu sync.Mutex
}

// New returns an aggregator for `actors` candidates. A zero seed uses a
// randomly seeded source.
func New(actors int, seed uint64) *Aggregator {
	if actors <= 0 {
		actors = model.DefaultActorCount
	}
	var src rand.Source
	if seed == 0 {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	} else {
		src = rand.NewPCG(seed, seed)
	}
	return &Aggregator{Actors: actors, Rand: rand.New(src)}
}

// Tally counts one vote per prediction. Neutral predictions and actors
// outside the roster abstain.
func (a *Aggregator) Tally(predictions []model.Prediction) []int {
	tally := make([]int, a.actors())
	for _, p := range predictions {
		if p.Actor < 1 || int(p.Actor) > len(tally) {
			continue
		}
		tally[p.Actor-1]++
	}
	return tally
}

// Vote returns the verdict for a set of predictions. With no participating
// predictor the verdict is NoActor. Tied lists every actor that shared the
// top count when there was more than one.
func (a *Aggregator) Vote(predictions []model.Prediction) model.Verdict {
	tally := a.Tally(predictions)
	v := model.Verdict{
		Predictions: predictions,
		Tally:       tally,
		Actor:       model.NoActor,
	}

	top := 0
	var leaders []model.Actor
	for i, n := range tally {
		switch {
		case n == 0:
		case n > top:
			top = n
			leaders = append(leaders[:0], model.Actor(i+1))
		case n == top:
			leaders = append(leaders, model.Actor(i+1))
		}
	}

	switch len(leaders) {
	case 0:
	case 1:
		v.Actor = leaders[0]
	default:
		v.Tied = leaders
		v.Actor = leaders[a.intN(len(leaders))]
	}
	return v
}

func (a *Aggregator) actors() int {
	if a.Actors <= 0 {
		return model.DefaultActorCount
	}
	return a.Actors
}

func (a *Aggregator) intN(n int) int {
	if a.Rand == nil {
		return rand.IntN(n)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Rand.IntN(n)
}
