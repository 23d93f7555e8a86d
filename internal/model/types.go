package model

import (
	"fmt"
	"time"
)

// Actor is a 1-based index into the candidate roster.
type Actor int

// NoActor is the neutral result of a lookup or prediction that matched nothing.
const NoActor Actor = 0

// Absent marks an event attribute that was missing or not numeric.
const Absent int64 = -1

// Modality identifies one of the three log sources of a test case.
type Modality int

const (
	HostSecurity Modality = iota
	HostMonitoring
	NetworkCapture
)

// Modalities lists every modality in vote order.
var Modalities = []Modality{NetworkCapture, HostSecurity, HostMonitoring}

func (m Modality) String() string {
	switch m {
	case HostSecurity:
		return "host-security"
	case HostMonitoring:
		return "host-monitoring"
	case NetworkCapture:
		return "network-capture"
	default:
		return fmt.Sprintf("modality(%d)", int(m))
	}
}

// FileName is the file a test case directory uses for this modality.
func (m Modality) FileName() string {
	switch m {
	case HostSecurity:
		return "Security.xml"
	case HostMonitoring:
		return "Sysmon.xml"
	case NetworkCapture:
		return "Wireshark.json"
	default:
		return ""
	}
}

// ParseModality accepts the String form of a modality.
func ParseModality(s string) (Modality, error) {
	for _, m := range []Modality{HostSecurity, HostMonitoring, NetworkCapture} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown modality %q", s)
}

// ModalityForFile maps a test case file name to its modality.
func ModalityForFile(name string) (Modality, bool) {
	for _, m := range []Modality{HostSecurity, HostMonitoring, NetworkCapture} {
		if m.FileName() == name {
			return m, true
		}
	}
	return 0, false
}

// Category is an event attribute tracked by the frequency tables.
type Category int

const (
	ProcessID Category = iota
	EventID
	Task
)

// Categories is the fixed tie-break order used by host predictors.
var Categories = []Category{ProcessID, EventID, Task}

func (c Category) String() string {
	switch c {
	case ProcessID:
		return "ProcessID"
	case EventID:
		return "EventID"
	case Task:
		return "Task"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// ParseCategory accepts the String form of a category, plus "Execution"
// which names the element carrying the ProcessID attribute.
func ParseCategory(s string) (Category, error) {
	switch s {
	case "ProcessID", "Execution":
		return ProcessID, nil
	case "EventID":
		return EventID, nil
	case "Task":
		return Task, nil
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// Event is one record of a host event log.
type Event struct {
	ProcessID int64
	EventID   int64
	Task      int64
}

// Value returns the event's value for a category and whether it is present.
func (e Event) Value(c Category) (int64, bool) {
	var v int64
	switch c {
	case ProcessID:
		v = e.ProcessID
	case EventID:
		v = e.EventID
	case Task:
		v = e.Task
	default:
		return 0, false
	}
	return v, v != Absent
}

// NetworkRecord is one captured frame: protocol -> field -> values.
type NetworkRecord map[string]map[string][]string

// TestCase is one bundle of logs from a single exercise session.
// It is not modified after loading.
type TestCase struct {
	Name       string
	Path       string
	Security   []Event
	Monitoring []Event
	Capture    []NetworkRecord
	Loaded     map[Modality]bool
}

// Has reports whether the modality's log was present and parsed.
func (tc *TestCase) Has(m Modality) bool {
	return tc != nil && tc.Loaded[m]
}

// Events returns the host events for a host modality.
func (tc *TestCase) Events(m Modality) []Event {
	switch m {
	case HostSecurity:
		return tc.Security
	case HostMonitoring:
		return tc.Monitoring
	default:
		return nil
	}
}

// Prediction is one predictor's verdict for one test case.
type Prediction struct {
	Modality   Modality
	Actor      Actor
	Confidence float64
}

// Verdict is the final attribution of a test case.
type Verdict struct {
	Case        string
	Predictions []Prediction
	Tally       []int
	Actor       Actor
	Tied        []Actor
}

// AttributionRecord is a persisted verdict.
type AttributionRecord struct {
	Timestamp  time.Time
	Case       string
	Actor      Actor
	Network    Actor
	Security   Actor
	Monitoring Actor
	Tied       bool
}
