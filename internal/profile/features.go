package profile

import (
	"sort"

	"github.com/tinytelemetry/culprit/internal/model"
)

// Extract returns the distinct features of a capture: a presence marker for
// every allowlisted protocol seen, and value@field for each allowlisted
// field value. Features are listed in first-seen order.
func Extract(records []model.NetworkRecord, allowlist map[string][]string) []string {
	protos := make([]string, 0, len(allowlist))
	for proto := range allowlist {
		protos = append(protos, proto)
	}
	sort.Strings(protos)

	seen := make(map[string]struct{})
	var features []string
	add := func(key string) {
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		features = append(features, key)
	}

	for _, rec := range records {
		for _, proto := range protos {
			layer, ok := rec[proto]
			if !ok {
				continue
			}
			add(proto)
			for _, field := range allowlist[proto] {
				for _, value := range layer[field] {
					add(FeatureKey(value, field))
				}
			}
		}
	}
	return features
}

// Builder derives a profile from labeled training captures: every feature
// of a capture adds one to its actor's weight.
type Builder struct {
	actors    int
	allowlist map[string][]string
	profile   Profile
}

// NewBuilder creates a builder for `actors` candidates.
func NewBuilder(actors int, allowlist map[string][]string) *Builder {
	if actors <= 0 {
		actors = model.DefaultActorCount
	}
	return &Builder{actors: actors, allowlist: allowlist, profile: make(Profile)}
}

// Add counts one labeled capture. Labels outside the roster are ignored
// and reported as false.
func (b *Builder) Add(actor model.Actor, records []model.NetworkRecord) bool {
	if actor < 1 || int(actor) > b.actors {
		return false
	}
	for _, key := range Extract(records, b.allowlist) {
		w, ok := b.profile[key]
		if !ok {
			w = make([]float64, b.actors)
			b.profile[key] = w
		}
		w[actor-1]++
	}
	return true
}

// Profile returns the profile built so far.
func (b *Builder) Profile() Profile {
	return b.profile
}
