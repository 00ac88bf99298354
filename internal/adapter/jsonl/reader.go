// Package jsonl reads classifier records from and writes dispatch records to
// newline-delimited JSON streams.
package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/couchcryptid/incident-triage/internal/domain"
	"github.com/jonboulle/clockwork"
)

// maxLineBytes bounds a single classification record.
const maxLineBytes = 1 << 20

// Reader consumes one JSON object per line.
// It implements pipeline.BatchExtractor.
type Reader struct {
	scanner *bufio.Scanner
	source  string
	line    int
	clock   clockwork.Clock
	logger  *slog.Logger
}

// NewReader wraps r. source names the stream in logs and raw events.
func NewReader(r io.Reader, source string, clock clockwork.Clock, logger *slog.Logger) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Reader{scanner: scanner, source: source, clock: clock, logger: logger}
}

// ExtractBatch returns up to batchSize non-blank lines. It returns io.EOF,
// with no events, once the stream is exhausted.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error) {
	batch := make([]domain.RawEvent, 0, batchSize)
	for len(batch) < batchSize {
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return batch, fmt.Errorf("read %s line %d: %w", r.source, r.line+1, err)
			}
			if len(batch) == 0 {
				r.logger.Debug("input exhausted", "source", r.source, "lines", r.line)
				return nil, io.EOF
			}
			return batch, nil
		}
		r.line++

		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		batch = append(batch, mapLineToRawEvent(line, r.source, r.line, r.clock))
	}
	return batch, nil
}

// mapLineToRawEvent copies the scanner's buffer, which is reused on the next Scan.
func mapLineToRawEvent(line []byte, source string, lineNo int, clock clockwork.Clock) domain.RawEvent {
	return domain.RawEvent{
		Value:     bytes.Clone(line),
		Source:    source,
		Line:      lineNo,
		Timestamp: clock.Now(),
	}
}
