// Package trace writes a per-chunk record of what was sent to and received
// from a translation backend, namespaced under one run id, for after-the-
// fact debugging of a repair loop or a forced-translation fallback. Entries
// are structured JSON lines rather than free-form log text, so a run can be
// grepped or replayed programmatically.
package trace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Writer appends one JSON line per recorded event to a run-scoped file
// under Dir. It is safe for sequential use by a single translator run; it
// is not safe for concurrent writers (the chunked translator is driven by
// one goroutine per document).
type Writer struct {
	dir   string
	runID string
	file  *os.File
	enc   *json.Encoder
}

// Event is one recorded prompt/response pair.
type Event struct {
	Seq       int    `json:"seq"`
	Part      string `json:"part,omitempty"`
	UnitID    int    `json:"unit_id"`
	Stage     string `json:"stage"` // free-form label; the translate command records the unit's outcome ("translated", "repaired", "forced", "identity", "trivial")
	Prompt    string `json:"prompt"`
	Output    string `json:"output"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// New creates a trace file at <dir>/<runID>.jsonl. If runID is empty, a
// fresh one is generated. now is accepted but not used: the file name comes
// from runID alone, and each Event carries whatever Timestamp the caller
// sets on it.
func New(dir string, runID string, now time.Time) (*Writer, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("trace: create dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, runID+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("trace: open %s: %w", path, err)
	}
	w := &Writer{dir: dir, runID: runID, file: f, enc: json.NewEncoder(f)}
	return w, nil
}

// RunID returns the id this writer's file is namespaced under.
func (w *Writer) RunID() string { return w.runID }

// Path returns the full path of the trace file.
func (w *Writer) Path() string { return filepath.Join(w.dir, w.runID+".jsonl") }

// Record appends one event as a JSON line.
func (w *Writer) Record(ev Event) error {
	if err := w.enc.Encode(ev); err != nil {
		return fmt.Errorf("trace: write event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	return w.file.Close()
}
