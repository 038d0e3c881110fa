// Package pourlog keeps the most recent log entries in memory so the kiosk
// can show them without shell access.
package pourlog

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultSize is the number of lines kept by New.
const DefaultSize = 256

// Line is a single formatted log entry.
type Line struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	System  string    `json:"system,omitempty"`
	Message string    `json:"message"`
}

// PourLog is a logrus hook storing entries in a ring buffer.
type PourLog struct {
	mu    sync.Mutex
	lines []Line
	ptr   int
	count int
}

// Compile time check for protocol compatibility
var _ log.Hook = (*PourLog)(nil)

func New() *PourLog {
	return NewSize(DefaultSize)
}

func NewSize(size int) *PourLog {
	if size < 1 {
		size = 1
	}

	return &PourLog{
		lines: make([]Line, size),
	}
}

func (l *PourLog) Levels() []log.Level {
	return log.AllLevels
}

func (l *PourLog) Fire(entry *log.Entry) error {
	line := Line{
		Time:    entry.Time,
		Level:   entry.Level.String(),
		Message: entry.Message,
	}

	if system, ok := entry.Data["system"].(string); ok {
		line.System = system
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.lines[l.ptr] = line
	l.ptr = (l.ptr + 1) % len(l.lines)
	if l.count < len(l.lines) {
		l.count++
	}

	return nil
}

// Lines returns up to n of the most recent lines, oldest first. A
// non-positive n returns everything kept.
func (l *PourLog) Lines(n int) []Line {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 || n > l.count {
		n = l.count
	}

	res := make([]Line, n)

	start := l.ptr - n
	for i := 0; i < n; i++ {
		pos := start + i
		if pos < 0 {
			pos += len(l.lines)
		}
		res[i] = l.lines[pos]
	}

	return res
}
