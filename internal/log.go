package internal

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Logger writes timestamped lines to a log file. Mirror, when set, receives the
// same lines (used by --verbose). A nil *Logger discards everything.
type Logger struct {
	mu     sync.Mutex
	w      io.Writer
	c      io.Closer
	Mirror io.Writer
}

// NewLogger truncates path and logs into it. An empty path logs nowhere.
func NewLogger(path string) (*Logger, error) {
	if path == "" {
		return &Logger{w: io.Discard}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Logger{w: f, c: f}, nil
}

func NewLoggerTo(w io.Writer) *Logger {
	return &Logger{w: w}
}

func (l *Logger) Log(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	line := time.Now().Format("2006-01-02 15:04:05") + " " + fmt.Sprintf(format, args...) + "\n"
	io.WriteString(l.w, line)
	if l.Mirror != nil {
		io.WriteString(l.Mirror, line)
	}
}

func (l *Logger) Close() error {
	if l == nil || l.c == nil {
		return nil
	}
	return l.c.Close()
}
