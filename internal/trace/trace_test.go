package trace

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWriterRecordsEventsAsJSONLines(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, "run-1", time.Unix(0, 0))
	require.NoError(t, err)

	require.NoError(t, w.Record(Event{Seq: 1, UnitID: 5, Stage: "initial", Prompt: "p1", Output: "o1"}))
	require.NoError(t, w.Record(Event{Seq: 2, UnitID: 5, Stage: "repair", Prompt: "p2", Output: "o2"}))
	require.NoError(t, w.Close())

	require.Equal(t, filepath.Join(dir, "run-1.jsonl"), w.Path())

	f, err := os.Open(w.Path())
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines []Event
	for scanner.Scan() {
		var ev Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		lines = append(lines, ev)
	}
	require.Len(t, lines, 2)
	require.Equal(t, "initial", lines[0].Stage)
	require.Equal(t, "repair", lines[1].Stage)
}

func TestNewGeneratesRunIDWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, "", time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, w.RunID())
	require.NoError(t, w.Close())
}
