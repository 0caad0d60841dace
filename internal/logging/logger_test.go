package logging

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nhle/sharedspace/internal/model"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(model.LogConfig{File: filepath.Join(t.TempDir(), "x.log"), Level: "chatty"})
	assert.Error(t, err)
}

func TestNewCreatesLogger(t *testing.T) {
	logger, err := New(model.LogConfig{
		File:       filepath.Join(t.TempDir(), "logs", "app.log"),
		Level:      "debug",
		MaxSizeMB:  1,
		MaxBackups: 1,
	})
	require.NoError(t, err)
	logger.Info("started")
	_ = logger.Sync()
}

func TestCoreWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := zap.New(newCore(zapcore.AddSync(&buf), zapcore.InfoLevel))

	logger.Debug("hidden")
	logger.Error("create task failed", zap.String("task_id", "task_1"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "create task failed", record["msg"])
	assert.Equal(t, "error", record["level"])
	assert.Equal(t, "task_1", record["task_id"])
	assert.Equal(t, "sharedspace", record["service"])
}
