package eventlog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/text/encoding/unicode"

	"github.com/tinytelemetry/culprit/internal/model"
)

func TestDecodeEvents(t *testing.T) {
	t.Parallel()

	events, err := DecodeEvents(strings.NewReader(securityXML))
	if err != nil {
		t.Fatalf("DecodeEvents: %v", err)
	}
	want := []model.Event{
		{ProcessID: 612, EventID: 4624, Task: 12544},
		{ProcessID: 4, EventID: 4688, Task: 13312},
		{ProcessID: 612, EventID: 4624, Task: model.Absent},
	}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %+v\nwant %+v", events, want)
	}
}

func TestDecodeEvents_BareEvent(t *testing.T) {
	t.Parallel()

	doc := `<Event><System><EventID>1</EventID><Task>1</Task><Execution ProcessID="2100"/></System></Event>`
	events, err := DecodeEvents(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("DecodeEvents: %v", err)
	}
	if len(events) != 1 || events[0].ProcessID != 2100 {
		t.Errorf("events = %+v", events)
	}
}

func TestDecodeCapture_FlattensLayers(t *testing.T) {
	t.Parallel()

	records, err := DecodeCapture(strings.NewReader(captureJSON))
	if err != nil {
		t.Fatalf("DecodeCapture: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if got := records[0]["http"]["http.host"]; !reflect.DeepEqual(got, []string{"example.com"}) {
		t.Errorf("http.host = %v", got)
	}
	if got := records[1]["dns"]["dns.qry.name"]; !reflect.DeepEqual(got, []string{"evil.test"}) {
		t.Errorf("dns.qry.name = %v", got)
	}
	if _, ok := records[1]["http"]; ok {
		t.Error("frame 2 should have no http layer")
	}
}

func TestDecodeCapture_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := DecodeCapture(strings.NewReader(`{"not": "an array"`)); err == nil {
		t.Fatal("expected error for malformed capture")
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want model.Modality
		err  bool
	}{
		{"Security.xml", model.HostSecurity, false},
		{"Sysmon.xml", model.HostMonitoring, false},
		{"Wireshark.json", model.NetworkCapture, false},
		{"Application.xml", 0, true},
		{"notes.txt", 0, true},
	}
	for _, tt := range tests {
		got, err := Classify(tt.name)
		if tt.err {
			if !errors.Is(err, ErrUnknownSource) {
				t.Errorf("Classify(%q) err = %v, want ErrUnknownSource", tt.name, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Classify(%q) = %v, %v want %v", tt.name, got, err, tt.want)
		}
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDirLoader_LoadsAllSources(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "case-01")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "Security.xml", securityXML)
	writeFile(t, dir, "Sysmon.xml", securityXML)
	writeFile(t, dir, "Wireshark.json", captureJSON)
	writeFile(t, dir, "README.md", "ignored")

	tc, err := DirLoader{}.Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tc.Name != "case-01" {
		t.Errorf("Name = %q", tc.Name)
	}
	for _, m := range model.Modalities {
		if !tc.Has(m) {
			t.Errorf("%s not loaded", m)
		}
	}
	if len(tc.Security) != 3 || len(tc.Monitoring) != 3 || len(tc.Capture) != 2 {
		t.Errorf("sizes = %d/%d/%d", len(tc.Security), len(tc.Monitoring), len(tc.Capture))
	}
}

func TestDirLoader_MissingAndBrokenSources(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "Security.xml", securityXML)
	writeFile(t, dir, "Wireshark.json", "[{broken")

	tc, err := DirLoader{}.Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !tc.Has(model.HostSecurity) {
		t.Error("security log should be loaded")
	}
	if tc.Has(model.HostMonitoring) {
		t.Error("missing sysmon log reported as loaded")
	}
	if tc.Has(model.NetworkCapture) {
		t.Error("broken capture reported as loaded")
	}
}

func TestDirLoader_UnreadableDir(t *testing.T) {
	t.Parallel()

	if _, err := (DirLoader{}).Load(context.Background(), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestDiscover_SortedDirsOnly(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, name := range []string{"b", "a", "c"} {
		if err := os.Mkdir(filepath.Join(root, name), 0755); err != nil {
			t.Fatal(err)
		}
	}
	writeFile(t, root, "labels.yml", "cases: {}")

	dirs, err := Discover(root)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{filepath.Join(root, "a"), filepath.Join(root, "b"), filepath.Join(root, "c")}
	if !reflect.DeepEqual(dirs, want) {
		t.Errorf("dirs = %v, want %v", dirs, want)
	}
}

func TestDecodeEvents_Latin1Declaration(t *testing.T) {
	t.Parallel()

	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n<Events><Event><System><EventID>7</EventID><Task>0</Task><Execution ProcessID=\"1\"/></System></Event></Events>"
	events, err := DecodeEvents(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("DecodeEvents: %v", err)
	}
	if len(events) != 1 || events[0].EventID != 7 {
		t.Errorf("events = %+v", events)
	}
}

func TestDecodeEvents_UTF16WithBOM(t *testing.T) {
	t.Parallel()

	doc := "<?xml version=\"1.0\" encoding=\"UTF-16\"?>\n<Events><Event><System><EventID>4624</EventID><Task>12544</Task><Execution ProcessID=\"640\"/></System></Event></Events>"
	for name, endian := range map[string]unicode.Endianness{
		"little endian": unicode.LittleEndian,
		"big endian":    unicode.BigEndian,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			encoded, err := unicode.UTF16(endian, unicode.UseBOM).NewEncoder().String(doc)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			events, err := DecodeEvents(strings.NewReader(encoded))
			if err != nil {
				t.Fatalf("DecodeEvents: %v", err)
			}
			want := model.Event{ProcessID: 640, EventID: 4624, Task: 12544}
			if len(events) != 1 || events[0] != want {
				t.Errorf("events = %+v, want [%+v]", events, want)
			}
		})
	}
}

func TestDecodeEvents_UTF8WithBOM(t *testing.T) {
	t.Parallel()

	doc := "\xEF\xBB\xBF<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<Events><Event><System><EventID>7</EventID></System></Event></Events>"
	events, err := DecodeEvents(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("DecodeEvents: %v", err)
	}
	if len(events) != 1 || events[0].EventID != 7 {
		t.Errorf("events = %+v", events)
	}
}
