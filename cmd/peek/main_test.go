package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kk-code-lab/peek/internal/config"
	"github.com/kk-code-lab/peek/internal/logging"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want cliOptions
	}{
		{"empty", nil, cliOptions{}},
		{"help", []string{"--help"}, cliOptions{help: true}},
		{"config short", []string{"-c", "/etc/peek.yaml"}, cliOptions{config: "/etc/peek.yaml"}},
		{"config equals", []string{"--config=/x.yaml"}, cliOptions{config: "/x.yaml"}},
		{"preview", []string{"-p", "main.go"}, cliOptions{preview: "main.go"}},
		{"preview equals and dir", []string{"--preview=a.txt", "/tmp"}, cliOptions{preview: "a.txt", startDir: "/tmp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseArgs(tt.args)
			if err != nil {
				t.Fatalf("parseArgs(%v) error: %v", tt.args, err)
			}
			if got != tt.want {
				t.Fatalf("parseArgs(%v) = %+v, want %+v", tt.args, got, tt.want)
			}
		})
	}
}

func TestParseArgsErrors(t *testing.T) {
	for _, args := range [][]string{
		{"-c"},
		{"--preview"},
		{"--bogus"},
		{"one", "two"},
	} {
		if _, err := parseArgs(args); !errors.Is(err, errUsage) {
			t.Fatalf("parseArgs(%v) error = %v, want usage error", args, err)
		}
	}
}

func TestPrintPreviewText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("first\nsecond\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.Preview.TempDir = dir

	var out bytes.Buffer
	if err := printPreview(context.Background(), &out, cfg, logging.Discard(), path); err != nil {
		t.Fatalf("printPreview: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "[text]") || !strings.Contains(got, "first\nsecond\n") {
		t.Fatalf("unexpected output:\n%s", got)
	}
}

func TestPrintPreviewDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "inside.txt"), nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.Preview.TempDir = t.TempDir()

	var out bytes.Buffer
	if err := printPreview(context.Background(), &out, cfg, logging.Discard(), dir); err != nil {
		t.Fatalf("printPreview: %v", err)
	}
	if !strings.Contains(out.String(), "[tree]") || !strings.Contains(out.String(), "inside.txt") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestPrintPreviewMissingFile(t *testing.T) {
	cfg := config.DefaultConfig()
	err := printPreview(context.Background(), &bytes.Buffer{}, cfg, logging.Discard(), filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want not exist", err)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Preview.CacheCapacity != config.DefaultConfig().Preview.CacheCapacity {
		t.Fatalf("expected default capacity, got %d", cfg.Preview.CacheCapacity)
	}
}
