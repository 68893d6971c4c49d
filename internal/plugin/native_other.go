//go:build !linux && !darwin

package plugin

import "github.com/kk-code-lab/peek/internal/config"

// OpenNative is unavailable on this platform.
func OpenNative(config.PluginSpec) (Plugin, error) {
	return nil, ErrUnsupportedPlatform
}
