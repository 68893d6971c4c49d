package state

import (
	"path/filepath"
)

// StateReducer applies actions to AppState. It owns the per-directory
// selection memory.
type StateReducer struct {
	selectionHistory map[string]int
}

// NewStateReducer creates a reducer with empty selection memory.
func NewStateReducer() *StateReducer {
	return &StateReducer{selectionHistory: make(map[string]int)}
}

// Reduce applies an action to state and returns it.
func (r *StateReducer) Reduce(state *AppState, action Action) (*AppState, error) {
	switch a := action.(type) {

	// ===== NAVIGATION =====

	case NavigateDownAction:
		r.moveSelection(state, state.SelectedIndex+1)
	case NavigateUpAction:
		r.moveSelection(state, state.SelectedIndex-1)
	case ScrollPageDownAction:
		r.moveSelection(state, state.SelectedIndex+state.ListHeight())
	case ScrollPageUpAction:
		r.moveSelection(state, state.SelectedIndex-state.ListHeight())
	case SelectFirstAction:
		r.moveSelection(state, 0)
	case SelectLastAction:
		r.moveSelection(state, len(state.Files)-1)

	case EnterDirectoryAction:
		file := state.CurrentFile()
		if file == nil || !file.IsDir {
			return state, nil
		}
		return state, r.changeDirectory(state, state.CurrentFilePath(), "")

	case GoUpAction:
		parent := filepath.Dir(state.CurrentPath)
		if parent == state.CurrentPath {
			return state, nil
		}
		return state, r.changeDirectory(state, parent, filepath.Base(state.CurrentPath))

	case GoToPathAction:
		if a.Path == "" || a.Path == state.CurrentPath {
			return state, nil
		}
		return state, r.changeDirectory(state, filepath.Clean(a.Path), "")

	case RefreshDirectoryAction, ListingChangedAction:
		return state, r.reload(state)

	case ToggleHiddenFilesAction:
		state.HideHiddenFiles = !state.HideHiddenFiles
		return state, r.reload(state)

	// ===== PREVIEW =====

	case PreviewScrollDownAction:
		state.PreviewScroll++
	case PreviewScrollUpAction:
		state.PreviewScroll = max(0, state.PreviewScroll-1)
	case PreviewScrollPageDownAction:
		state.PreviewScroll += state.ListHeight()
	case PreviewScrollPageUpAction:
		state.PreviewScroll = max(0, state.PreviewScroll-state.ListHeight())

	case ShowPreviewAction:
		state.PreviewOverride = a.Path
		state.PreviewScroll = 0
	case ClearPreviewAction:
		if state.PreviewOverride != "" {
			state.PreviewOverride = ""
			state.PreviewScroll = 0
		}

	// ===== SECOND PANE =====

	case ToggleDualPaneAction:
		state.DualPane = !state.DualPane
		if !state.DualPane {
			state.Second = PaneState{}
		}
	case PinSecondPaneAction:
		if state.CurrentFile() == nil {
			return state, nil
		}
		state.DualPane = true
		state.Second = PaneState{Path: state.CurrentFilePath(), Pending: true}
	case SecondPaneResultAction:
		if a.Pane != SecondPane || !state.DualPane || a.Path != state.Second.Path {
			return state, nil
		}
		state.Second.Preview = a.Preview
		state.Second.Pending = false
		state.Second.Scroll = 0

	case ResizeAction:
		state.ScreenWidth = a.Width
		state.ScreenHeight = a.Height
		state.updateScrollVisibility()
	}

	return state, nil
}

func (r *StateReducer) moveSelection(state *AppState, idx int) {
	if len(state.Files) == 0 {
		return
	}
	idx = max(0, min(idx, len(state.Files)-1))
	if idx == state.SelectedIndex {
		return
	}
	state.SelectedIndex = idx
	state.PreviewScroll = 0
	state.PreviewOverride = ""
	state.updateScrollVisibility()
}

// changeDirectory loads path and restores the remembered selection, or
// selects the entry named focus.
func (r *StateReducer) changeDirectory(state *AppState, path, focus string) error {
	r.selectionHistory[state.CurrentPath] = state.SelectedIndex
	if err := LoadDirectory(state, path); err != nil {
		return err
	}
	if idx := state.indexOf(focus); focus != "" && idx >= 0 {
		state.SelectedIndex = idx
	} else if saved, ok := r.selectionHistory[path]; ok && saved < len(state.Files) {
		state.SelectedIndex = saved
	}
	state.centerScrollOnSelection()
	return nil
}

// reload re-reads the current directory and keeps the selection on the
// same name when it still exists.
func (r *StateReducer) reload(state *AppState) error {
	var name string
	if file := state.CurrentFile(); file != nil {
		name = file.Name
	}
	override := state.PreviewOverride
	if err := LoadDirectory(state, state.CurrentPath); err != nil {
		return err
	}
	if idx := state.indexOf(name); idx >= 0 {
		state.SelectedIndex = idx
	}
	state.PreviewOverride = override
	state.centerScrollOnSelection()
	return nil
}
