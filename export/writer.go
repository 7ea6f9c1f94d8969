// Package export serializes snapshots and trade responses to the output
// directory with atomic replace semantics, so the external reader never
// observes a half-written file.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sierra_bridge/models"
	"sierra_bridge/monitoring"
)

// SnapshotWriter publishes the per-symbol market snapshot files.
type SnapshotWriter struct {
	dir string
}

func NewSnapshotWriter(dir string) (*SnapshotWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return &SnapshotWriter{dir: dir}, nil
}

// Write publishes the snapshot for its symbol, replacing any previous one.
func (w *SnapshotWriter) Write(snap models.MarketSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal snapshot: %v", ErrWriteFailed, err)
	}
	start := time.Now()
	defer func() {
		monitoring.WriteDuration.WithLabelValues("snapshot").Observe(time.Since(start).Seconds())
	}()
	return writeAtomic(w.Path(snap.Symbol), append(data, '\n'))
}

// Path returns the target file for a symbol's snapshot.
func (w *SnapshotWriter) Path(symbol string) string {
	return filepath.Join(w.dir, CleanSymbol(symbol)+".json")
}

// ResponseWriter publishes trade responses, one file per command id so
// concurrent command/response pairs never collide.
type ResponseWriter struct {
	dir string
}

func NewResponseWriter(dir string) (*ResponseWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return &ResponseWriter{dir: dir}, nil
}

// Write publishes the response keyed by its command id.
func (w *ResponseWriter) Write(resp models.TradeResponse) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal response: %v", ErrWriteFailed, err)
	}
	start := time.Now()
	defer func() {
		monitoring.WriteDuration.WithLabelValues("response").Observe(time.Since(start).Seconds())
	}()
	return writeAtomic(w.Path(resp.CommandID), append(data, '\n'))
}

// Path returns the target file for a command's response.
func (w *ResponseWriter) Path(commandID string) string {
	return filepath.Join(w.dir, "trade_response_"+CleanSymbol(commandID)+".json")
}

// CleanSymbol makes a symbol or command id safe for use in a filename.
func CleanSymbol(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '.', '/', '\\', ' ':
			return '_'
		default:
			return r
		}
	}, s)
}
