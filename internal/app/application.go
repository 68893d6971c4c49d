package app

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"

	"github.com/kk-code-lab/peek/internal/config"
	"github.com/kk-code-lab/peek/internal/logging"
	"github.com/kk-code-lab/peek/internal/pool"
	"github.com/kk-code-lab/peek/internal/preview"
	"github.com/kk-code-lab/peek/internal/previewer"
	statepkg "github.com/kk-code-lab/peek/internal/state"
	inputui "github.com/kk-code-lab/peek/internal/ui/input"
	renderui "github.com/kk-code-lab/peek/internal/ui/render"
)

// PreviewCache is the part of the preview cache the application drives.
type PreviewCache interface {
	Get(path string) (preview.Preview, bool)
	RequestBuild(path string) bool
	RequestThumbnail(path string) bool
	RequestBuildMany(paths []string) int
	PutLiteral(path string, p preview.Preview)
	Invalidate(path string)
}

// SecondPane is the second-pane request router.
type SecondPane interface {
	Request(path string, pane int) bool
	Poll() (previewer.Result, bool)
	Stop()
}

// DirWatcher follows the directory being shown.
type DirWatcher interface {
	Watch(dir string) error
}

// Submitter runs background jobs such as user commands.
type Submitter interface {
	Submit(job pool.Job) error
}

// Options wires the application to the preview subsystem.
type Options struct {
	Screen      tcell.Screen
	StartDir    string
	Cache       PreviewCache
	SecondPane  SecondPane
	Watcher     DirWatcher
	Pool        Submitter
	Diagnostics *logging.Diagnostics
	Logger      *log.Logger
	Commands    []config.CommandSpec
	Tick        time.Duration
	HideHidden  bool
}

type shellRunner func(ctx context.Context, dir, script string, env []string) ([]byte, error)

// Application represents the running app.
type Application struct {
	screen   tcell.Screen
	reducer  *statepkg.StateReducer
	renderer *renderui.Renderer
	input    *inputui.InputHandler
	actionCh chan statepkg.Action

	// mu guards state. The displayer reads under RLock on every tick; the
	// event loop mutates under Lock.
	mu    sync.RWMutex
	state *statepkg.AppState

	cache    PreviewCache
	second   SecondPane
	watcher  DirWatcher
	jobs     Submitter
	diag     *logging.Diagnostics
	logger   *log.Logger
	commands []config.CommandSpec
	tick     time.Duration

	editorCmd []string
	runShell  shellRunner

	shouldQuit bool
	closeOnce  sync.Once
}

// New builds the application and loads the start directory. The screen
// must already be initialised.
func New(opts Options) (*Application, error) {
	if opts.Screen == nil {
		return nil, errors.New("app: screen is required")
	}
	if opts.Cache == nil {
		return nil, errors.New("app: preview cache is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = config.DefaultRenderTick
	}
	startDir := opts.StartDir
	if startDir == "" {
		cwd, err := GetCwd()
		if err != nil {
			return nil, err
		}
		startDir = cwd
	}

	editorCmd, _ := detectEditorCommand()

	state := &statepkg.AppState{HideHiddenFiles: opts.HideHidden}
	state.ScreenWidth, state.ScreenHeight = opts.Screen.Size()
	if err := statepkg.LoadDirectory(state, startDir); err != nil {
		return nil, err
	}

	keys := make([]string, len(opts.Commands))
	for i, cmd := range opts.Commands {
		keys[i] = cmd.Key
	}
	actionCh := make(chan statepkg.Action, 16)

	app := &Application{
		screen:    opts.Screen,
		reducer:   statepkg.NewStateReducer(),
		renderer:  renderui.NewRenderer(opts.Screen),
		input:     inputui.NewInputHandler(actionCh, keys),
		actionCh:  actionCh,
		state:     state,
		cache:     opts.Cache,
		second:    opts.SecondPane,
		watcher:   opts.Watcher,
		jobs:      opts.Pool,
		diag:      opts.Diagnostics,
		logger:    logger,
		commands:  opts.Commands,
		tick:      tick,
		editorCmd: editorCmd,
		runShell:  runShellCommand,
	}
	app.enterDirectory()
	return app, nil
}

// dispatch queues an action from a background goroutine without blocking.
func (app *Application) dispatch(action statepkg.Action) {
	select {
	case app.actionCh <- action:
	default:
		go func() { app.actionCh <- action }()
	}
}

// ListingChanged is the watcher callback. The listing is reloaded on the
// event loop; the watcher has already refreshed the affected previews.
func (app *Application) ListingChanged([]string) {
	app.dispatch(statepkg.ListingChangedAction{})
}

// Close cleans up resources.
func (app *Application) Close() error {
	app.closeOnce.Do(func() {
		if app.second != nil {
			app.second.Stop()
		}
		app.screen.Fini()
	})
	return nil
}

// GetCurrentPath returns the directory being shown.
func (app *Application) GetCurrentPath() string {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.state.CurrentPath
}

// GetCwd returns current working directory.
func GetCwd() (string, error) {
	return os.Getwd()
}
