package state

import (
	fsutil "github.com/kk-code-lab/peek/internal/fs"
)

// LoadDirectory reads path into state and resets the selection.
func LoadDirectory(state *AppState, path string) error {
	entries, err := fsutil.ReadDirectory(path, state.HideHiddenFiles)
	if err != nil {
		return err
	}
	state.CurrentPath = path
	state.Files = entries
	state.SelectedIndex = 0
	state.ScrollOffset = 0
	state.PreviewScroll = 0
	state.PreviewOverride = ""
	return nil
}
