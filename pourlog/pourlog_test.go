package pourlog

import (
	"io"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newTestLogger(hook log.Hook) *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(log.DebugLevel)
	logger.AddHook(hook)
	return logger
}

func messages(lines []Line) []string {
	var res []string
	for _, line := range lines {
		res = append(res, line.Message)
	}
	return res
}

func TestLinesKeepsMostRecent(t *testing.T) {
	pl := NewSize(3)
	logger := newTestLogger(pl)

	require.Empty(t, pl.Lines(0))

	logger.Info("one")
	logger.Info("two")
	require.Equal(t, []string{"one", "two"}, messages(pl.Lines(0)))

	logger.Info("three")
	logger.Warn("four")
	require.Equal(t, []string{"two", "three", "four"}, messages(pl.Lines(0)))
	require.Equal(t, []string{"three", "four"}, messages(pl.Lines(2)))
	require.Equal(t, []string{"two", "three", "four"}, messages(pl.Lines(10)))

	last := pl.Lines(1)[0]
	require.Equal(t, "warning", last.Level)
}

func TestSystemField(t *testing.T) {
	pl := New()
	logger := newTestLogger(pl)

	logger.WithField("system", "dispenser").Debug("Dispensing")

	lines := pl.Lines(0)
	require.Len(t, lines, 1)
	require.Equal(t, "dispenser", lines[0].System)
	require.Equal(t, "debug", lines[0].Level)
	require.False(t, lines[0].Time.IsZero())
}
