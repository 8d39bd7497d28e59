package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"xaistudy/internal"
)

var dataPrefix = []byte("data:")

// StreamParser splits a text/event-stream body into "data:" payloads. Bytes arrive in
// arbitrary pieces; an incomplete trailing line is held until the rest of it arrives or
// the stream ends.
type StreamParser struct {
	buf []byte
	// scanned is how much of buf is known to hold no newline
	scanned     int
	onChunk     func(json.RawMessage) error
	onMalformed func(line string, err error)
}

// NewStreamParser creates a parser calling onChunk for every well-formed payload and
// onMalformed for every payload that is not valid JSON. onMalformed may be nil.
func NewStreamParser(onChunk func(json.RawMessage) error, onMalformed func(line string, err error)) *StreamParser {
	if onMalformed == nil {
		onMalformed = func(line string, err error) {
			internal.DefaultLogger.Warn("[SSE] skipping malformed chunk %q: %v", line, err)
		}
	}
	return &StreamParser{onChunk: onChunk, onMalformed: onMalformed}
}

// Write feeds the next piece of the stream and handles every line it completes
func (p *StreamParser) Write(b []byte) (int, error) {
	p.buf = append(p.buf, b...)
	start := 0
	var err error
	for err == nil {
		idx := bytes.IndexByte(p.buf[start+p.scanned:], '\n')
		if idx < 0 {
			p.scanned = len(p.buf) - start
			break
		}
		end := start + p.scanned + idx
		p.scanned = 0
		err = p.handleLine(p.buf[start:end])
		start = end + 1
	}
	if start > 0 {
		// shift the unfinished line to the front, reusing the backing array
		p.buf = p.buf[:copy(p.buf, p.buf[start:])]
	}
	return len(b), err
}

// Flush handles whatever is left in the buffer as the final line
func (p *StreamParser) Flush() error {
	if len(p.buf) == 0 {
		return nil
	}
	line := p.buf
	p.buf = nil
	p.scanned = 0
	return p.handleLine(line)
}

// Consume reads r until EOF, then flushes the final line
func (p *StreamParser) Consume(r io.Reader) error {
	if _, err := io.Copy(p, r); err != nil {
		return err
	}
	return p.Flush()
}

func (p *StreamParser) handleLine(line []byte) error {
	line = bytes.TrimSuffix(line, []byte("\r"))
	if !bytes.HasPrefix(line, dataPrefix) {
		// blank separators, comments and event:/id:/retry: fields carry nothing for us
		return nil
	}
	payload := bytes.TrimSpace(line[len(dataPrefix):])
	if len(payload) == 0 {
		return nil
	}
	if !json.Valid(payload) {
		p.onMalformed(string(payload), fmt.Errorf("invalid JSON"))
		return nil
	}
	return p.onChunk(append(json.RawMessage(nil), payload...))
}

// ReadEventStream parses a complete event stream from r, calling fn once per payload
func ReadEventStream(r io.Reader, fn func(json.RawMessage) error) error {
	return NewStreamParser(fn, nil).Consume(r)
}
