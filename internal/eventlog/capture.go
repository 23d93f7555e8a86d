package eventlog

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/tinytelemetry/culprit/internal/model"
)

type captureFrame struct {
	Source struct {
		Layers map[string]interface{} `json:"layers"`
	} `json:"_source"`
}

// DecodeCapture reads a tshark JSON export (an array of frames with
// _source.layers.<protocol>.<field> nesting).
func DecodeCapture(r io.Reader) ([]model.NetworkRecord, error) {
	var frames []captureFrame
	if err := json.NewDecoder(r).Decode(&frames); err != nil {
		return nil, fmt.Errorf("decode capture json: %w", err)
	}

	records := make([]model.NetworkRecord, 0, len(frames))
	for _, fr := range frames {
		rec := make(model.NetworkRecord, len(fr.Source.Layers))
		for proto, layer := range fr.Source.Layers {
			fields := make(map[string][]string)
			flattenLayer(layer, "", fields)
			rec[proto] = fields
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadCapture decodes the capture at path.
func ReadCapture(path string) ([]model.NetworkRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeCapture(f)
}

// flattenLayer collects every string leaf under a layer keyed by its field
// name. tshark nests some fields under display subtrees (for example DNS
// queries) and repeats fields as arrays; both are flattened.
func flattenLayer(v interface{}, key string, out map[string][]string) {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenLayer(val[k], k, out)
		}
	case []interface{}:
		for _, child := range val {
			flattenLayer(child, key, out)
		}
	case string:
		if key != "" && strings.Contains(key, ".") {
			out[key] = append(out[key], val)
		}
	}
}
