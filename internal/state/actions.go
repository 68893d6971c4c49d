package state

import "github.com/kk-code-lab/peek/internal/preview"

// Action represents any user or system action.
type Action interface{}

// Navigation
type NavigateUpAction struct{}
type NavigateDownAction struct{}
type ScrollPageUpAction struct{}
type ScrollPageDownAction struct{}
type SelectFirstAction struct{}
type SelectLastAction struct{}
type EnterDirectoryAction struct{}
type GoUpAction struct{}
type GoToPathAction struct {
	Path string
}
type RefreshDirectoryAction struct{}

// ListingChangedAction reloads the listing after files changed on disk.
// Cached previews are kept.
type ListingChangedAction struct{}

type ToggleHiddenFilesAction struct{}

// Preview
type PreviewScrollUpAction struct{}
type PreviewScrollDownAction struct{}
type PreviewScrollPageUpAction struct{}
type PreviewScrollPageDownAction struct{}

// ShowPreviewAction shows a synthetic preview (help, command output) in the
// main pane until ClearPreviewAction.
type ShowPreviewAction struct {
	Path string
}
type ClearPreviewAction struct{}

// Second pane
type ToggleDualPaneAction struct{}
type PinSecondPaneAction struct{}

// SecondPaneResultAction carries a finished second-pane build back to the
// state. It is applied only if the pane still shows Path.
type SecondPaneResultAction struct {
	Path    string
	Pane    int
	Preview preview.Preview
}

// Application-level actions handled outside the reducer
type ShowHelpAction struct{}
type RunCommandAction struct {
	Index int
}
type OpenEditorAction struct{}
type ResizeAction struct {
	Width  int
	Height int
}
type SuspendAction struct{}
type QuitAction struct{}
