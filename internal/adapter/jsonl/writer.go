package jsonl

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/couchcryptid/incident-triage/internal/domain"
)

// Writer emits one serialized dispatch record per line.
// It implements pipeline.BatchLoader.
type Writer struct {
	w *bufio.Writer
}

// NewWriter wraps w with a buffer that is flushed after every batch.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// LoadBatch writes the batch and flushes it.
func (w *Writer) LoadBatch(ctx context.Context, events []domain.OutputEvent) error {
	if len(events) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, ev := range events {
		if _, err := w.w.Write(ev.Value); err != nil {
			return fmt.Errorf("write dispatch %s: %w", ev.Key, err)
		}
		if err := w.w.WriteByte('\n'); err != nil {
			return fmt.Errorf("write dispatch %s: %w", ev.Key, err)
		}
	}
	return w.w.Flush()
}

// Close flushes any buffered output. It does not close the underlying writer.
func (w *Writer) Close() error {
	return w.w.Flush()
}
