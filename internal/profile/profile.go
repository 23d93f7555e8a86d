// Package profile holds the protocol-field weight tables used by the
// network predictor: how strongly each observed protocol or field value
// points at each actor.
package profile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/tinytelemetry/culprit/internal/model"
)

// Profile maps a feature key to one weight per actor.
type Profile map[string][]float64

// FeatureKey builds the key of an observed field value.
func FeatureKey(value, field string) string {
	return value + "@" + field
}

// Protocol returns the protocol a feature key belongs to: the key itself for
// a presence marker, the field's leading label for a value key.
func Protocol(key string) string {
	i := strings.LastIndex(key, "@")
	if i < 0 {
		return key
	}
	field := key[i+1:]
	if j := strings.Index(field, "."); j >= 0 {
		return field[:j]
	}
	return field
}

// Load reads every weight file in dir. Each line holds a feature key
// followed by one weight per actor; a trailing empty field is ignored.
// A key seen twice logs a warning and the later line wins.
func Load(dir string, actors int) (Profile, error) {
	if actors <= 0 {
		actors = model.DefaultActorCount
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read profile dir: %w", err)
	}

	p := make(Profile)
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := p.loadFile(path, actors); err != nil {
			return nil, fmt.Errorf("load %s: %w", e.Name(), err)
		}
	}
	return p, nil
}

func (p Profile) loadFile(path string, actors int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true

	name := filepath.Base(path)
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		for len(fields) > 0 && strings.TrimSpace(fields[len(fields)-1]) == "" {
			fields = fields[:len(fields)-1]
		}
		if len(fields) == 0 {
			continue
		}
		line, _ := r.FieldPos(0)

		key := fields[0]
		weights, err := parseWeights(fields[1:], actors)
		if err != nil {
			log.Printf("profile: %s:%d: skipping %q: %v", name, line, key, err)
			continue
		}
		if _, dup := p[key]; dup {
			log.Printf("profile: %s:%d: duplicate feature %q, overwriting", name, line, key)
		}
		p[key] = weights
	}
}

func parseWeights(fields []string, actors int) ([]float64, error) {
	if len(fields) > actors {
		return nil, fmt.Errorf("%d weights for %d actors", len(fields), actors)
	}
	weights := make([]float64, actors)
	for i, s := range fields {
		w, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("weight %d: %w", i+1, err)
		}
		weights[i] = w
	}
	return weights, nil
}

// Save writes p as one file per protocol under dir, keys sorted, in the
// format Load reads. Weight files left from an earlier profile whose
// protocol p no longer has are removed so Load sees only p.
func Save(dir string, p Profile) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}

	byProto := make(map[string][]string)
	for key := range p {
		proto := Protocol(key)
		byProto[proto] = append(byProto[proto], key)
	}

	for proto, keys := range byProto {
		sort.Strings(keys)
		if err := writeFile(filepath.Join(dir, proto+".csv"), p, keys); err != nil {
			return fmt.Errorf("write %s profile: %w", proto, err)
		}
	}
	return removeStale(dir, byProto)
}

func removeStale(dir string, keep map[string][]string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read profile dir: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if _, ok := keep[strings.TrimSuffix(name, ".csv")]; ok && strings.HasSuffix(name, ".csv") {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("remove stale profile %s: %w", name, err)
		}
		log.Printf("profile: removed stale weight file %s", name)
	}
	return nil
}

// writeFile writes to a hidden temp file beside path and renames it into
// place, so a failed write never leaves a truncated weight file.
func writeFile(path string, p Profile, keys []string) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	w := csv.NewWriter(f)
	for _, key := range keys {
		record := make([]string, 0, len(p[key])+2)
		record = append(record, key)
		for _, weight := range p[key] {
			record = append(record, strconv.FormatFloat(weight, 'f', -1, 64))
		}
		record = append(record, "")
		if err := w.Write(record); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
