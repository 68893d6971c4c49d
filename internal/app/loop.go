package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"

	"github.com/kk-code-lab/peek/internal/preview"
	statepkg "github.com/kk-code-lab/peek/internal/state"
	renderui "github.com/kk-code-lab/peek/internal/ui/render"
)

// statusTTL is how long a diagnostic stays on the status line.
const statusTTL = 5 * time.Second

// Run drives the application until the user quits or ctx is cancelled.
// Input is handled on the calling goroutine; drawing happens on a separate
// displayer goroutine at a fixed tick.
func (app *Application) Run(ctx context.Context) {
	defer app.Close()

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.display(ctx)
	}()

	eventChan := make(chan tcell.Event)
	go func() {
		for {
			ev := app.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case eventChan <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	var sigContCh chan os.Signal
	if sigs := contSignals(); len(sigs) > 0 {
		sigContCh = make(chan os.Signal, 1)
		signal.Notify(sigContCh, sigs...)
		defer signal.Stop(sigContCh)
	}

	for !app.shouldQuit {
		select {
		case <-ctx.Done():
			app.shouldQuit = true
		case ev := <-eventChan:
			app.handleEvent(ev)
		case action := <-app.actionCh:
			app.handleAction(action)
		case <-sigContCh:
			app.mu.Lock()
			app.resumeAfterStop()
			app.mu.Unlock()
		}
		app.processActions()
	}

	cancel()
	wg.Wait()
}

// display is the render loop. It never waits on a preview build: a cache
// miss shows a placeholder and a later tick picks up the result.
func (app *Application) display(ctx context.Context) {
	ticker := time.NewTicker(app.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.applySecondPaneResults()
			app.draw()
		}
	}
}

func (app *Application) draw() {
	app.mu.RLock()
	defer app.mu.RUnlock()

	frame := renderui.Frame{State: app.state}
	if path := app.state.PreviewPath(); path != "" {
		frame.Preview = app.lookupPreview(path)
	}
	if msg, ok := app.diag.Latest(); ok && time.Since(msg.Time) < statusTTL {
		frame.Status = msg
		frame.HasStatus = true
	}
	app.renderer.Render(frame)
}

// lookupPreview returns the cached preview for path, or nil while it is
// being built. A shown thumbnail whose image was overwritten by another
// file's build is re-rendered in the background.
func (app *Application) lookupPreview(path string) preview.Preview {
	if p, ok := app.cache.Get(path); ok {
		if t, ok := p.(*preview.Thumbnail); ok && t.Stale() {
			app.cache.RequestThumbnail(path)
		}
		return p
	}
	if statepkg.IsSynthetic(path) {
		return preview.NewEmpty("no longer cached")
	}
	app.cache.RequestBuild(path)
	return nil
}

// applySecondPaneResults drains finished second-pane builds. The reducer
// discards results for a pane that has moved on.
func (app *Application) applySecondPaneResults() {
	if app.second == nil {
		return
	}
	for {
		res, ok := app.second.Poll()
		if !ok {
			return
		}
		app.mu.Lock()
		_, _ = app.reducer.Reduce(app.state, statepkg.SecondPaneResultAction{
			Path:    res.Path,
			Pane:    res.Pane,
			Preview: res.Preview,
		})
		app.mu.Unlock()
	}
}

func (app *Application) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if !app.input.ProcessEvent(ev) {
			app.shouldQuit = true
		}
	case *tcell.EventResize:
		app.screen.Sync()
		app.input.ProcessEvent(ev)
	}
}

func (app *Application) processActions() {
	for {
		select {
		case action := <-app.actionCh:
			app.handleAction(action)
		default:
			return
		}
	}
}

func (app *Application) handleAction(action statepkg.Action) {
	if action == nil {
		return
	}

	switch a := action.(type) {
	case statepkg.QuitAction:
		app.shouldQuit = true
	case statepkg.SuspendAction:
		app.mu.Lock()
		app.suspendToShell()
		app.resumeAfterStop()
		app.mu.Unlock()
	case statepkg.ShowHelpAction:
		app.cache.PutLiteral(statepkg.HelpPath, app.helpPreview())
		app.reduce(statepkg.ShowPreviewAction{Path: statepkg.HelpPath})
	case statepkg.RunCommandAction:
		app.runCommand(a.Index)
	case statepkg.OpenEditorAction:
		app.handleEditorOpen()
	default:
		app.reduce(action)
	}
}

// reduce applies action under the state lock and then keeps the preview
// subsystem in step with what is on screen.
func (app *Application) reduce(action statepkg.Action) {
	app.mu.Lock()
	defer app.mu.Unlock()

	prevDir := app.state.CurrentPath
	prevSelection := app.state.CurrentFilePath()

	app.state.LastError = nil
	if _, err := app.reducer.Reduce(app.state, action); err != nil {
		app.state.LastError = err
		app.logger.Warn("action failed", "action", actionName(action), "err", err)
		return
	}

	switch action.(type) {
	case statepkg.RefreshDirectoryAction, statepkg.ToggleHiddenFilesAction:
		app.enterDirectory()
	case statepkg.PinSecondPaneAction:
		app.requestSecondPane()
	default:
		if app.state.CurrentPath != prevDir {
			app.enterDirectory()
		} else if path := app.state.CurrentFilePath(); path != prevSelection && app.state.CurrentFile() != nil {
			app.cache.RequestThumbnail(path)
		}
	}
}

// enterDirectory rebuilds the cache for the listing and moves the watcher.
// Callers hold mu, or run before the loops start.
func (app *Application) enterDirectory() {
	app.cache.RequestBuildMany(app.state.FilePaths())
	if app.watcher == nil {
		return
	}
	if err := app.watcher.Watch(app.state.CurrentPath); err != nil {
		app.diag.Report(log.WarnLevel, "cannot watch directory", "path", app.state.CurrentPath, "err", err)
	}
}

func (app *Application) requestSecondPane() {
	pane := &app.state.Second
	if !pane.Pending {
		return
	}
	if app.second == nil || !app.second.Request(pane.Path, statepkg.SecondPane) {
		pane.Pending = false
		pane.Preview = preview.NewEmpty("second pane busy")
	}
}
