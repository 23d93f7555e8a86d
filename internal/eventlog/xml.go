package eventlog

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/tinytelemetry/culprit/internal/model"
)

// xmlEvent is the subset of a Windows event record that is read. Tags carry
// no namespace so both namespaced and bare documents decode.
type xmlEvent struct {
	System struct {
		EventID   string `xml:"EventID"`
		Task      string `xml:"Task"`
		Execution struct {
			ProcessID string `xml:"ProcessID,attr"`
		} `xml:"Execution"`
	} `xml:"System"`
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// transcodeBOM converts a byte-order-marked export to UTF-8. encoding/xml
// reads the declaration before any CharsetReader runs, so UTF-16 input must
// be decoded up front. The second result reports whether r now yields UTF-8
// regardless of the encoding the declaration names.
func transcodeBOM(r io.Reader) (io.Reader, bool) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(3)
	if bytes.HasPrefix(head, bomUTF8) || bytes.HasPrefix(head, bomUTF16LE) || bytes.HasPrefix(head, bomUTF16BE) {
		return transform.NewReader(br, unicode.BOMOverride(unicode.UTF8.NewDecoder())), true
	}
	return br, false
}

// DecodeEvents reads every Event element from a Windows event log export.
// The document may wrap events in an Events root or list them bare.
func DecodeEvents(r io.Reader) ([]model.Event, error) {
	r, isUTF8 := transcodeBOM(r)
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.CharsetReader = func(label string, in io.Reader) (io.Reader, error) {
		if isUTF8 {
			return in, nil
		}
		return charset.NewReaderLabel(label, in)
	}

	var events []model.Event
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, fmt.Errorf("decode event xml: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Event" {
			continue
		}
		var raw xmlEvent
		if err := dec.DecodeElement(&raw, &se); err != nil {
			return events, fmt.Errorf("decode event %d: %w", len(events)+1, err)
		}
		events = append(events, model.Event{
			ProcessID: parseAttr(raw.System.Execution.ProcessID),
			EventID:   parseAttr(raw.System.EventID),
			Task:      parseAttr(raw.System.Task),
		})
	}
}

// ReadEvents decodes the event log at path.
func ReadEvents(path string) ([]model.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeEvents(f)
}

func parseAttr(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Absent
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return model.Absent
	}
	return v
}
