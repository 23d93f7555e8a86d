// Package pipeline drives training and attribution over a data root of
// test case directories.
package pipeline

import (
	"context"

	"github.com/tinytelemetry/culprit/internal/frequency"
	"github.com/tinytelemetry/culprit/internal/model"
)

// Loader reads one test case directory.
type Loader interface {
	Load(ctx context.Context, dir string) (*model.TestCase, error)
}

// StatisticsWriter is the write path of the statistics store.
type StatisticsWriter interface {
	ReplaceStatistics(ctx context.Context, m model.Modality, c model.Category, table frequency.Table) error
}

// SnapshotRunner takes a backup of the statistics store.
type SnapshotRunner interface {
	RunOnce(ctx context.Context) (string, error)
}

// HostModalities are the modalities backed by frequency tables.
var HostModalities = []model.Modality{model.HostSecurity, model.HostMonitoring}
