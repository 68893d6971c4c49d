package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestDiagnosticsKeepsLatestAndForwardsToLogger(t *testing.T) {
	var buf bytes.Buffer
	d := NewDiagnostics(New(&buf, "debug"), 2)

	d.Report(log.InfoLevel, "first")
	d.Report(log.WarnLevel, "preview failed", "path", "/tmp/x")
	d.Infof("third %d", 3)

	latest, ok := d.Latest()
	if !ok || latest.Text != "third 3" {
		t.Fatalf("Latest() = %+v, %v", latest, ok)
	}
	history := d.History()
	if len(history) != 2 {
		t.Fatalf("expected history capped at 2, got %d", len(history))
	}
	if history[0].Text != "preview failed path=/tmp/x" {
		t.Fatalf("unexpected formatted status %q", history[0].Text)
	}
	if !strings.Contains(buf.String(), "preview failed") {
		t.Fatalf("expected report forwarded to logger, got %q", buf.String())
	}
}

func TestDiagnosticsNilAndClosed(t *testing.T) {
	var d *Diagnostics
	d.Infof("ignored")
	if _, ok := d.Latest(); ok {
		t.Fatalf("nil diagnostics should report nothing")
	}

	live := NewDiagnostics(nil, 0)
	live.Close()
	live.Warnf("after close")
	if _, ok := live.Latest(); ok {
		t.Fatalf("closed diagnostics should not record")
	}
}
