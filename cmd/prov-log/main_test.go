package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buddypal/wifiprov/pkg/log"
)

func writeLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "device.plog")
	logger, err := log.NewFileLogger(path)
	require.NoError(t, err)
	logger.Log(log.Event{
		Timestamp: time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC),
		SessionID: "session-1",
		Layer:     log.LayerOrchestrator,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity: log.StateEntityDevice, OldState: "NORMAL", NewState: "ENTERING_CONFIG_MODE",
		},
	})
	require.NoError(t, logger.Close())
	return path
}

func TestRunCommands(t *testing.T) {
	path := writeLog(t)

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"view", "--category", "state", path}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "NORMAL -> ENTERING_CONFIG_MODE")

	stdout.Reset()
	assert.Equal(t, 0, run([]string{"stats", path}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "Total Events: 1")

	stdout.Reset()
	assert.Equal(t, 0, run([]string{"export", "--format", "csv", path}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "ENTERING_CONFIG_MODE")

	out := filepath.Join(t.TempDir(), "copy.plog")
	stdout.Reset()
	assert.Equal(t, 0, run([]string{"filter", "-o", out, path}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "Filtered 1 events")
}

func TestRunErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run(nil, &stdout, &stderr))
	assert.Equal(t, 1, run([]string{"bogus"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Unknown command: bogus")

	stderr.Reset()
	assert.Equal(t, 1, run([]string{"view"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "log file path required")

	assert.Equal(t, 0, run([]string{"stats", "--help"}, &stdout, &stderr))
	assert.Equal(t, 0, run([]string{"help"}, &stdout, &stderr))
}
