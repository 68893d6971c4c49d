// Package plugin loads native preview plugins and lets them claim paths
// before the built-in strategies run.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/kk-code-lab/peek/internal/config"
	"github.com/kk-code-lab/peek/internal/logging"
	"github.com/kk-code-lab/peek/internal/preview"
)

var (
	// ErrSymbolMissing means a library lacks one of the required exports.
	ErrSymbolMissing = errors.New("plugin symbol missing")
	// ErrUnsupportedPlatform is returned where native loading is unavailable.
	ErrUnsupportedPlatform = errors.New("native plugins are not supported on this platform")
	// ErrInvalidOutput means a plugin returned a null or non-UTF-8 string.
	ErrInvalidOutput = errors.New("plugin returned invalid text")
)

// Plugin is one preview provider.
type Plugin interface {
	Name() string
	Matches(path string) bool
	Preview(path string) (string, error)
}

// Opener loads the plugin described by spec.
type Opener func(spec config.PluginSpec) (Plugin, error)

// Result is the outcome of loading one plugin.
type Result struct {
	Name   string
	Plugin Plugin
	Err    error
}

// Load opens every spec concurrently. Results keep the order of specs and a
// failure never stops the others.
func Load(ctx context.Context, specs []config.PluginSpec, open Opener) []Result {
	results := make([]Result, len(specs))
	g, _ := errgroup.WithContext(ctx)
	for i, spec := range specs {
		g.Go(func() error {
			name := spec.Name
			if name == "" {
				name = filepath.Base(spec.Path)
			}
			p, err := open(spec)
			if err != nil {
				results[i] = Result{Name: name, Err: fmt.Errorf("load %s: %w", spec.Path, err)}
				return nil
			}
			if spec.Name == "" {
				name = p.Name()
			}
			results[i] = Result{Name: name, Plugin: p}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Registry holds the loaded plugins in registration order. It is read-only
// after construction.
type Registry struct {
	plugins []named
	logger  *log.Logger
}

type named struct {
	name string
	Plugin
}

// NewRegistry keeps the successfully loaded plugins and reports each
// failure once.
func NewRegistry(results []Result, logger *log.Logger, diag *logging.Diagnostics) *Registry {
	if logger == nil {
		logger = logging.Discard()
	}
	r := &Registry{logger: logger}
	for _, res := range results {
		if res.Err != nil {
			diag.Report(log.WarnLevel, "plugin skipped", "plugin", res.Name, "err", res.Err)
			continue
		}
		r.plugins = append(r.plugins, named{name: res.Name, Plugin: res.Plugin})
		logger.Info("plugin loaded", "plugin", res.Name)
	}
	return r
}

// LoadAll loads specs with the native loader and builds a registry.
func LoadAll(ctx context.Context, specs []config.PluginSpec, logger *log.Logger, diag *logging.Diagnostics) *Registry {
	return NewRegistry(Load(ctx, specs, OpenNative), logger, diag)
}

// Len returns the number of loaded plugins.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.plugins)
}

// Names lists the loaded plugins in registration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, len(r.plugins))
	for i, p := range r.plugins {
		names[i] = p.name
	}
	return names
}

// TryMatch asks each plugin in order whether it claims path. The first
// claimant builds the preview; a failing claimant yields an Empty preview.
func (r *Registry) TryMatch(_ context.Context, path string) (preview.Preview, bool) {
	if r == nil {
		return nil, false
	}
	for _, p := range r.plugins {
		if !p.Matches(path) {
			continue
		}
		out, err := p.Preview(path)
		if err != nil {
			r.logger.Warn("plugin preview failed", "plugin", p.name, "path", path, "err", err)
			return preview.NewEmpty(err.Error()), true
		}
		return preview.NewCommandOutput(p.name, []byte(out)), true
	}
	return nil, false
}
