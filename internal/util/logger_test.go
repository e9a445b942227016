// internal/util/logger_test.go
package util

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger(t *testing.T) {
	t.Cleanup(func() { _ = CloseLogger() })

	t.Run("Should emit JSON records at or above the level", func(t *testing.T) {
		var buf bytes.Buffer
		log := InitLogger(LogOptions{Level: "warn", JSON: true, Output: &buf})

		log.Info("hidden")
		log.Warn("shown", "wallet_id", 7)

		lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
		require.Len(t, lines, 1)
		var record map[string]any
		require.NoError(t, json.Unmarshal(lines[0], &record))
		assert.Equal(t, "shown", record["msg"])
		assert.EqualValues(t, 7, record["wallet_id"])
	})

	t.Run("Should also write to the rotated file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "ledger.log")
		var buf bytes.Buffer
		log := InitLogger(LogOptions{Level: "info", File: path, MaxSizeMB: 1, Output: &buf})

		log.Info("to both")
		require.NoError(t, CloseLogger())

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "to both")
		assert.Contains(t, buf.String(), "to both")
	})

	t.Run("Should fall back to info for unknown levels", func(t *testing.T) {
		var buf bytes.Buffer
		log := InitLogger(LogOptions{Level: "chatty", Output: &buf})
		log.Debug("hidden")
		log.Info("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})
}

func TestGetLogger(t *testing.T) {
	t.Cleanup(func() { _ = CloseLogger() })

	t.Run("Should return the logger set by InitLogger", func(t *testing.T) {
		var buf bytes.Buffer
		log := InitLogger(LogOptions{Level: "info", Output: &buf})

		assert.Same(t, log, GetLogger())
		GetLogger().Info("through the process logger")
		assert.Contains(t, buf.String(), "through the process logger")
	})
}
