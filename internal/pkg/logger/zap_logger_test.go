package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLines(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return path
}

func TestGetLogs(t *testing.T) {
	path := writeLines(t,
		`{"level":"INFO","timestamp":"2026-01-01T00:00:00Z","message":"first","module":"cleanup"}`,
		`not json`,
		`{"level":"ERROR","timestamp":"2026-01-01T00:00:01Z","message":"second","module":"chat"}`,
		`{"level":"INFO","timestamp":"2026-01-01T00:00:02Z","message":"third","module":"cleanup"}`,
	)
	l := &ZapLogger{filePath: path}

	t.Run("newest first and skips garbage", func(t *testing.T) {
		logs, err := l.GetLogs("", 10, 0)
		require.NoError(t, err)
		require.Len(t, logs, 3)
		assert.Equal(t, "third", logs[0].Message)
		assert.Equal(t, "first", logs[2].Message)
		assert.NotEmpty(t, logs[0].Id)
	})

	t.Run("filters by level", func(t *testing.T) {
		logs, err := l.GetLogs("ERROR", 10, 0)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, "chat", logs[0].Module)
	})

	t.Run("paginates", func(t *testing.T) {
		logs, err := l.GetLogs("", 1, 1)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, "second", logs[0].Message)

		logs, err = l.GetLogs("", 5, 10)
		require.NoError(t, err)
		assert.Empty(t, logs)
	})
}

func TestGetLogsMissingFile(t *testing.T) {
	l := &ZapLogger{filePath: filepath.Join(t.TempDir(), "missing.log")}
	logs, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
