package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupJSONLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)
	var buf bytes.Buffer
	logger, err := Setup(Options{Level: "warn", JSON: true, Out: &buf})
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Str("sid", "abc").Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "shown", rec["message"])
	assert.Equal(t, "abc", rec["sid"])
	assert.Equal(t, "warn", rec["level"])
}

func TestSetupDebugOverridesLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)
	var buf bytes.Buffer
	logger, err := Setup(Options{Level: "error", Debug: true, Out: &buf})
	require.NoError(t, err)
	logger.Debug().Msg("details")
	assert.Contains(t, buf.String(), "details")
}

func TestSetupFile(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)
	path := filepath.Join(t.TempDir(), "logs", "sheetlens.log")
	logger, err := Setup(Options{File: path, Out: &bytes.Buffer{}})
	require.NoError(t, err)
	logger.Info().Msg("to file")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"message":"to file"`)
}

func TestSetupRejectsLevel(t *testing.T) {
	_, err := Setup(Options{Level: "loud", Out: &bytes.Buffer{}})
	assert.Error(t, err)
}
