package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

const defaultHistory = 32

// Message is one status report.
type Message struct {
	Level log.Level
	Text  string
	Time  time.Time
}

// Diagnostics is the status channel shared by the preview subsystem and the
// render loop. Reports are forwarded to the logger and the most recent ones
// are kept for display. All methods are safe on a nil receiver.
type Diagnostics struct {
	mu      sync.RWMutex
	logger  *log.Logger
	history []Message
	limit   int
	closed  bool
}

// NewDiagnostics creates a diagnostics sink that keeps up to limit messages.
func NewDiagnostics(logger *log.Logger, limit int) *Diagnostics {
	if logger == nil {
		logger = Discard()
	}
	if limit <= 0 {
		limit = defaultHistory
	}
	return &Diagnostics{logger: logger, limit: limit}
}

// Report logs msg with keyvals and records it as the latest status.
func (d *Diagnostics) Report(level log.Level, msg string, keyvals ...interface{}) {
	if d == nil {
		return
	}
	d.logger.Log(level, msg, keyvals...)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.history = append(d.history, Message{
		Level: level,
		Text:  formatStatus(msg, keyvals),
		Time:  time.Now(),
	})
	if over := len(d.history) - d.limit; over > 0 {
		d.history = append(d.history[:0], d.history[over:]...)
	}
}

// Infof records an informational status line.
func (d *Diagnostics) Infof(format string, args ...interface{}) {
	d.Report(log.InfoLevel, fmt.Sprintf(format, args...))
}

// Warnf records a warning status line.
func (d *Diagnostics) Warnf(format string, args ...interface{}) {
	d.Report(log.WarnLevel, fmt.Sprintf(format, args...))
}

// Latest returns the most recent message.
func (d *Diagnostics) Latest() (Message, bool) {
	if d == nil {
		return Message{}, false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.history) == 0 {
		return Message{}, false
	}
	return d.history[len(d.history)-1], true
}

// History returns a copy of the retained messages, oldest first.
func (d *Diagnostics) History() []Message {
	if d == nil {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Message(nil), d.history...)
}

// Close stops recording. Later reports still reach the logger.
func (d *Diagnostics) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	d.closed = true
	d.history = nil
	d.mu.Unlock()
}

func formatStatus(msg string, keyvals []interface{}) string {
	if len(keyvals) == 0 {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(keyvals); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keyvals[i], keyvals[i+1])
	}
	return b.String()
}
