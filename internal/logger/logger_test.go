package logger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	require.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	require.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelInfo)

	l.Debug("hidden")
	l.Info("created", "path", "jffs2/bin")
	l.With("ino", 3).Warn("skipping file", "reason", "no fragments")
	l.WithGroup("node").Error("bad", "offset", 12)

	require.Equal(t,
		"[INFO] created path=jffs2/bin\n"+
			"[WARN] skipping file ino=3 reason=\"no fragments\"\n"+
			"[ERROR] bad node.offset=12\n",
		buf.String())
}

func TestDiscard(t *testing.T) {
	require.False(t, Discard().Enabled(context.Background(), slog.LevelError))
}

func TestSetupLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")

	l, f, err := Setup(os.Stdout, path, slog.LevelDebug)
	require.NoError(t, err)
	require.NotNil(t, f)

	l.Debug("scan started", "image", "flash.bin")
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "msg=\"scan started\"")
	require.Contains(t, string(data), "image=flash.bin")
}
