package model

import "context"

// StatisticsReader is the read path of the statistics store used by host
// predictors. A value with no row yields a NoActor prediction and nil error.
type StatisticsReader interface {
	Lookup(ctx context.Context, m Modality, c Category, value int64) (Prediction, error)
}

// AttributionWriter persists final verdicts.
type AttributionWriter interface {
	RecordAttribution(ctx context.Context, rec AttributionRecord) error
}
