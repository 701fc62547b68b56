// Package stream provides NDJSON (newline-delimited JSON) plumbing for
// batch normalization: a reader that yields one attribute set per line and
// a writer that emits one canonical event per line.
package stream

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/getcanon/canon/core"
)

// maxLineBytes bounds one NDJSON line; very large spans exist, truncated
// ones should fail loudly rather than silently.
const maxLineBytes = 16 * 1024 * 1024

// AttributeReader reads attribute sets from an NDJSON stream. Each
// non-blank line must be a flat JSON object of scalar values.
type AttributeReader struct {
	scanner *bufio.Scanner
	line    int
}

// NewAttributeReader creates a reader over r.
func NewAttributeReader(r io.Reader) *AttributeReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &AttributeReader{scanner: scanner}
}

// Next returns the next attribute set, or io.EOF when the stream ends.
// Blank lines are skipped.
func (ar *AttributeReader) Next() (core.AttributeSet, error) {
	for ar.scanner.Scan() {
		ar.line++
		text := strings.TrimSpace(ar.scanner.Text())
		if text == "" {
			continue
		}
		var attrs core.AttributeSet
		if err := json.Unmarshal([]byte(text), &attrs); err != nil {
			return nil, fmt.Errorf("line %d: %w", ar.line, err)
		}
		return attrs, nil
	}
	if err := ar.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Line returns the number of lines consumed so far, including blanks.
func (ar *AttributeReader) Line() int { return ar.line }

// EventWriter writes canonical events as NDJSON.
type EventWriter struct {
	buf   *bufio.Writer
	enc   *json.Encoder
	count int
}

// NewEventWriter creates a writer over w.
func NewEventWriter(w io.Writer) *EventWriter {
	buf := bufio.NewWriter(w)
	return &EventWriter{buf: buf, enc: json.NewEncoder(buf)}
}

// Write emits one event as a single line.
func (ew *EventWriter) Write(ev *core.CanonicalEvent) error {
	if err := ew.enc.Encode(ev); err != nil {
		return err
	}
	ew.count++
	return nil
}

// Count returns the number of events written.
func (ew *EventWriter) Count() int { return ew.count }

// Flush writes any buffered output through to the underlying writer.
func (ew *EventWriter) Flush() error { return ew.buf.Flush() }
