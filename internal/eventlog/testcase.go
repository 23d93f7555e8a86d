// Package eventlog loads forensic test case directories: Windows event log
// exports for the host modalities and a tshark JSON export for the network
// modality.
package eventlog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/culprit/internal/model"
)

// ErrUnknownSource marks a file that is not one of the recognized log names.
var ErrUnknownSource = errors.New("eventlog: unknown source file")

// Classify maps a file name in a test case directory to its modality.
func Classify(name string) (model.Modality, error) {
	m, ok := model.ModalityForFile(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSource, name)
	}
	return m, nil
}

// Discover lists the test case directories directly under root, sorted by
// name. Plain files under root are ignored.
func Discover(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read data root: %w", err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// DirLoader loads test case directories from disk.
type DirLoader struct{}

// Load reads the logs of one test case directory. The three sources are
// decoded concurrently and joined before returning. A missing or broken
// source is logged and left unloaded; only an unreadable directory is an
// error.
func (DirLoader) Load(ctx context.Context, dir string) (*model.TestCase, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read test case %s: %w", dir, err)
	}

	tc := &model.TestCase{
		Name:   filepath.Base(dir),
		Path:   dir,
		Loaded: make(map[model.Modality]bool, len(model.Modalities)),
	}

	paths := make(map[model.Modality]string, len(model.Modalities))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m, err := Classify(e.Name())
		if err != nil {
			log.Printf("eventlog: %s: skipping %s: unrecognized file name", tc.Name, e.Name())
			continue
		}
		paths[m] = filepath.Join(dir, e.Name())
	}

	var mu sync.Mutex
	markLoaded := func(m model.Modality) {
		mu.Lock()
		tc.Loaded[m] = true
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, m := range model.Modalities {
		path, ok := paths[m]
		if !ok {
			log.Printf("eventlog: %s: %s missing, %s predictor will abstain", tc.Name, m.FileName(), m)
			continue
		}
		m := m
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := loadSource(tc, m, path); err != nil {
				log.Printf("eventlog: %s: %s unreadable, %s predictor will abstain: %v", tc.Name, m.FileName(), m, err)
				return nil
			}
			markLoaded(m)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tc, nil
}

// loadSource fills the test case field owned by modality m.
// Each modality writes a different field.
func loadSource(tc *model.TestCase, m model.Modality, path string) error {
	switch m {
	case model.HostSecurity:
		events, err := ReadEvents(path)
		if err != nil {
			return err
		}
		tc.Security = events
	case model.HostMonitoring:
		events, err := ReadEvents(path)
		if err != nil {
			return err
		}
		tc.Monitoring = events
	case model.NetworkCapture:
		records, err := ReadCapture(path)
		if err != nil {
			return err
		}
		tc.Capture = records
	default:
		return fmt.Errorf("no loader for %s", m)
	}
	return nil
}
