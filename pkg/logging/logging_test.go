package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestFileLogger_WritesJSONToRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	closer, logger, err := FileLogger(logrus.InfoLevel, path)
	require.NoError(t, err)
	logger.WithField("component", "test").Info("hello")
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"component":"test"`)
	require.Contains(t, string(raw), `"msg":"hello"`)
}

func TestNop_DropsEntries(t *testing.T) {
	entry := Nop()
	require.Equal(t, logrus.PanicLevel, entry.Logger.GetLevel())
	entry.Error("ignored")
}
