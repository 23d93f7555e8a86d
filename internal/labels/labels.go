// Package labels reads the training manifest that assigns each training
// case directory to an actor.
package labels

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/tinytelemetry/culprit/internal/model"
)

// Manifest maps a training case directory name to its actor.
type Manifest struct {
	Cases map[string]model.Actor `yaml:"cases"`
}

// Assignment is one labeled training case.
type Assignment struct {
	Name  string
	Actor model.Actor
}

// Load reads a manifest file. A missing file returns (nil, nil) so callers
// can fall back to positional labels.
func Load(path string) (*Manifest, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	return Parse(data)
}

// Parse decodes a manifest. Unknown keys are rejected.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse labels: %w", err)
	}
	if m.Cases == nil {
		m.Cases = make(map[string]model.Actor)
	}
	return &m, nil
}

// Validate checks every label against the roster size.
func (m *Manifest) Validate(actors int) error {
	for name, a := range m.Cases {
		if a < 1 || int(a) > actors {
			return fmt.Errorf("labels: case %q has actor %d outside 1..%d", name, a, actors)
		}
	}
	return nil
}

// Assign labels the discovered case names. Cases missing from the manifest
// are skipped with a warning. Manifest entries with no matching directory
// are reported too. The result is ordered by actor, then name.
func (m *Manifest) Assign(names []string) []Assignment {
	present := make(map[string]struct{}, len(names))
	out := make([]Assignment, 0, len(names))
	for _, name := range names {
		present[name] = struct{}{}
		a, ok := m.Cases[name]
		if !ok {
			log.Printf("labels: no label for training case %s, skipping", name)
			continue
		}
		out = append(out, Assignment{Name: name, Actor: a})
	}
	for name := range m.Cases {
		if _, ok := present[name]; !ok {
			log.Printf("labels: labeled case %s not found", name)
		}
	}
	sortAssignments(out)
	return out
}

// Positional labels the N-th sorted case as actor N. Cases beyond the
// roster are skipped with a warning.
func Positional(names []string, actors int) []Assignment {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	out := make([]Assignment, 0, len(sorted))
	for i, name := range sorted {
		if i >= actors {
			log.Printf("labels: training case %s beyond roster of %d, skipping", name, actors)
			continue
		}
		out = append(out, Assignment{Name: name, Actor: model.Actor(i + 1)})
	}
	return out
}

func sortAssignments(as []Assignment) {
	sort.Slice(as, func(i, j int) bool {
		if as[i].Actor != as[j].Actor {
			return as[i].Actor < as[j].Actor
		}
		return as[i].Name < as[j].Name
	})
}
