package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/stablefit/pkg/errors"
)

func TestTestLogger_LevelsAndFields(t *testing.T) {
	logger, buffer := NewTestLogger(LevelInfo)

	logger.Debug("hidden")
	logger.Info("slopes computed", ModelNameKey, "OLS", SamplesKey, 3)
	logger.Error("solve failed", ErrAttrKey, fmt.Errorf("boom"))

	assert.NotContains(t, buffer.String(), "hidden")
	assert.True(t, logger.ContainsMessage("slopes computed"))
	assert.True(t, logger.ContainsField(ModelNameKey, "OLS"))
	assert.True(t, logger.ContainsField(SamplesKey, 3.0))
	assert.True(t, logger.ContainsField(ErrAttrKey, "boom"))

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ERROR", entries[1]["level"])

	logger.Clear()
	assert.Empty(t, buffer.String())
}

func TestTestLogger_With(t *testing.T) {
	logger, _ := NewTestLogger(LevelDebug)
	child := logger.With(ComponentKey, "network", ModelNameKey, "AlgebraicNetwork")
	child.Debug("redraw", IterationKey, 2)

	assert.True(t, logger.ContainsField(ComponentKey, "network"))
	assert.True(t, logger.ContainsField(IterationKey, 2.0))
	assert.False(t, logger.Enabled(context.Background(), Level(-8)))
	assert.True(t, child.Enabled(context.Background(), LevelDebug))
}

func TestSetLogger(t *testing.T) {
	logger, _ := NewTestLogger(LevelDebug)
	SetLogger(logger)
	defer SetLogger(nil)

	GetLogger().Info("through the default")
	assert.True(t, logger.ContainsMessage("through the default"))

	SetLogger(nil)
	_, isSlog := GetLogger().(*slogLogger)
	assert.True(t, isSlog)
}

func TestSetupLoggerTo_AddsStacktrace(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	SetupLoggerTo(&buf, "debug")

	GetLogger().Error("regression failed", ErrAttrKey, errors.New("singular"))

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "ERROR", record["severity"])
	assert.Equal(t, "regression failed", record["message"])
	assert.Contains(t, record, StacktraceAttrKey)
}

func TestToLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, ToLogLevel("warn"))
	assert.Panics(t, func() { ToLogLevel("verbose") })
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelInfo)

	logger.Debug("dropped")
	logger.With(ComponentKey, "lp").Info("solved", ObjectiveKey, 1.5, ErrAttrKey, fmt.Errorf("none"))

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, `"ml.component":"lp"`)
	assert.Contains(t, out, `"lp.objective":1.5`)
	assert.Contains(t, out, `"error":"none"`)

	assert.True(t, logger.Enabled(context.Background(), LevelError))
	assert.False(t, logger.Enabled(context.Background(), LevelDebug))
}

func TestInstallZerologWarnings(t *testing.T) {
	var buf bytes.Buffer
	InstallZerologWarnings(NewZerologLogger(&buf, LevelDebug))
	defer errors.SetZerologWarnFunc(nil)

	errors.Warn(errors.NewConvergenceWarning("AlgebraicNetwork", 10, "rank 2 < 3"))

	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, `"level":"warn"`)
	assert.Contains(t, line, `"algorithm":"AlgebraicNetwork"`)
	assert.Contains(t, line, `"iterations":10`)
}

func TestInstallZerologWarnings_MarkedWarning(t *testing.T) {
	var buf bytes.Buffer
	InstallZerologWarnings(NewZerologLogger(&buf, LevelDebug))
	defer errors.SetZerologWarnFunc(nil)

	w := errors.NewConvergenceWarning("AlgebraicNetwork", 4, "rank 1 < 3")
	errors.Warn(errors.Mark(w, errors.ErrRankDeficient))

	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, `"type":"ConvergenceWarning"`)
	assert.Contains(t, line, `"iterations":4`)
}
