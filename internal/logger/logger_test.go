package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestNew_LevelFallback(t *testing.T) {
	l := New(Config{Level: "chatty"})
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())

	l = New(Config{Level: "debug"})
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
}

func TestNew_JSONFormat(t *testing.T) {
	l := New(Config{Level: "info", Format: "json"})
	var buf bytes.Buffer
	l.SetOutput(&buf)

	Component(l, "collector").WithField("symbol", "TCS.NS").Info("fetched")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "collector", entry["component"])
	assert.Equal(t, "TCS.NS", entry["symbol"])
	assert.Equal(t, "fetched", entry["msg"])
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")
	l := New(Config{Output: "file", Filename: path})

	rotating, ok := l.Out.(*lumberjack.Logger)
	require.True(t, ok, "file output should rotate")
	assert.Equal(t, path, rotating.Filename)

	l.Info("hello")
	require.NoError(t, rotating.Close())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}
