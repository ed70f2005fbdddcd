package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedJourney walks the upload intent through a short journey so trace and
// replay commands have a journal to read.
func seedJourney(t *testing.T, dbPath, journey string) {
	t.Helper()

	steps := [][2]string{
		{"upload", "start"},
		{"upload", "progress"},
		{"upload", "complete"},
	}
	for _, step := range steps {
		_, err := runInvokeCommand(t, "text", dbPath, journey, step[0], step[1])
		require.NoError(t, err)
	}
}

func TestTraceTimeline(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "wimi.db")
	seedJourney(t, dbPath, "j-trace-1")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--journey", "j-trace-1"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Journey: j-trace-1")
	assert.Contains(t, output, "upload start: idle -> started")
	assert.Contains(t, output, "upload progress: started -> in-progress")
	assert.Contains(t, output, "upload complete: in-progress -> completed")
	assert.Contains(t, output, "upload: completed")
	assert.Contains(t, output, "Transitions: 3, intents: 1, consistent: true")
}

func TestTraceJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "wimi.db")
	seedJourney(t, dbPath, "j-trace-2")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--journey", "j-trace-2"})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)

	var result TraceResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "j-trace-2", result.JourneyToken)
	require.Len(t, result.Timeline, 3)
	assert.Equal(t, int64(1), result.Timeline[0].Seq)
	assert.Equal(t, "start", result.Timeline[0].Op)
	assert.Equal(t, "completed", result.FinalStates["upload"])
	assert.True(t, result.Stats.Consistent)
}

func TestTraceIntentFilter(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "wimi.db")
	seedJourney(t, dbPath, "j-trace-3")

	// Advance a second intent in the same journey.
	_, err := runInvokeCommand(t, "text", dbPath, "j-trace-3", "checkout", "start")
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--journey", "j-trace-3", "--intent", "checkout"})

	err = cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)

	var result TraceResult
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result.Timeline, 1)
	assert.Equal(t, "checkout", result.Timeline[0].Intent)
	assert.Equal(t, int64(4), result.Timeline[0].Seq)
}

func TestTraceEmptyJourney(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "wimi.db")
	seedJourney(t, dbPath, "j-trace-4")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--journey", "no-such-journey"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No transitions found for journey: no-such-journey")
}

func TestTraceMissingDatabase(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--journey", "j"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db")
}
