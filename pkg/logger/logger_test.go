package logger

import (
	"path/filepath"
	"testing"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
}

func TestHlogLevel(t *testing.T) {
	assert.Equal(t, hlog.LevelDebug, hlogLevel(zapcore.DebugLevel))
	assert.Equal(t, hlog.LevelWarn, hlogLevel(zapcore.WarnLevel))
	assert.Equal(t, hlog.LevelFatal, hlogLevel(zapcore.DPanicLevel))
}

func TestFileWriteSyncer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.log")
	ws := newWriteSyncer(path)
	t.Cleanup(func() {
		if logClose != nil {
			_ = logClose.Close()
			logClose = nil
		}
	})

	_, err := ws.Write([]byte("hello\n"))
	require.NoError(t, err)
	assert.NotNil(t, logClose)
	assert.FileExists(t, path)
}
