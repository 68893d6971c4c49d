package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kk-code-lab/peek/internal/preview"
	statepkg "github.com/kk-code-lab/peek/internal/state"
	"github.com/kk-code-lab/peek/internal/textutil"
	inputui "github.com/kk-code-lab/peek/internal/ui/input"
)

const commandTimeout = 30 * time.Second

func actionName(action statepkg.Action) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", action), "state.")
}

func (app *Application) helpPreview() preview.Preview {
	const keyColumn = 16
	pad := func(keys string) string {
		return keys + strings.Repeat(" ", max(keyColumn-textutil.DisplayWidth(keys), 1))
	}

	lines := make([]string, 0, len(inputui.Bindings)+len(app.commands)+2)
	for _, b := range inputui.Bindings {
		lines = append(lines, pad(b.Keys)+b.Description)
	}
	if len(app.commands) > 0 {
		lines = append(lines, "", "commands")
		for _, cmd := range app.commands {
			lines = append(lines, pad(cmd.Key)+cmd.Name)
		}
	}
	return preview.NewText(preview.KindText, "keys", lines)
}

// runCommand runs user command idx on the pool. Its output is stored as a
// literal preview and shown once ready.
func (app *Application) runCommand(idx int) {
	if idx < 0 || idx >= len(app.commands) {
		return
	}
	command := app.commands[idx]
	if app.jobs == nil {
		app.diag.Report(log.WarnLevel, "commands unavailable", "command", command.Name)
		return
	}

	app.mu.RLock()
	dir := app.state.CurrentPath
	file := app.state.CurrentFilePath()
	app.mu.RUnlock()

	env := []string{"PEEK_FILE=" + file, "PEEK_DIR=" + dir}
	err := app.jobs.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		out, err := app.runShell(ctx, dir, command.Run, env)
		if err != nil {
			app.diag.Report(log.WarnLevel, "command failed", "command", command.Name, "err", err)
			if len(out) == 0 {
				out = []byte(err.Error())
			}
		}
		path := statepkg.CommandPrefix + command.Name
		app.cache.PutLiteral(path, preview.NewCommandOutput(command.Name, out))
		app.dispatch(statepkg.ShowPreviewAction{Path: path})
	})
	if err != nil {
		app.diag.Report(log.WarnLevel, "cannot run command", "command", command.Name, "err", err)
	}
}

func runShellCommand(ctx context.Context, dir, script string, env []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", script)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s: %w", script, err)
	}
	return out, nil
}

// handleEditorOpen edits the selected file and rebuilds its preview
// afterwards. Drawing is paused while the editor owns the terminal.
func (app *Application) handleEditorOpen() {
	app.mu.Lock()
	defer app.mu.Unlock()

	file := app.state.CurrentFile()
	if file == nil || file.IsDir {
		return
	}
	path := app.state.CurrentFilePath()
	if err := app.openFileInEditor(path); err != nil {
		app.state.LastError = err
		app.logger.Warn("editor failed", "path", path, "err", err)
	}
	_ = flushInput()
	app.cache.Invalidate(path)
	app.cache.RequestBuild(path)
}

func (app *Application) openFileInEditor(filePath string) error {
	if len(app.editorCmd) == 0 {
		return errors.New("no editor configured; set $VISUAL or $EDITOR")
	}

	editorArgs := app.editorArgsWithFile(filePath)
	useTTY := runtime.GOOS != "windows"
	var tty *os.File
	var err error

	if useTTY {
		tty, err = os.OpenFile("/dev/tty", os.O_RDWR, 0)
		if err != nil {
			return app.openFileInEditorFallback(editorArgs)
		}
		defer func() {
			_ = tty.Close()
		}()
	}

	if err := app.screen.Suspend(); err != nil {
		return fmt.Errorf("failed to suspend screen: %w", err)
	}

	cmd := exec.Command(editorArgs[0], editorArgs[1:]...)
	if useTTY {
		cmd.Stdin = tty
		cmd.Stdout = tty
		cmd.Stderr = tty
	} else {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	runErr := cmd.Run()

	if err := app.screen.Resume(); err != nil {
		return fmt.Errorf("failed to resume screen: %w", err)
	}
	app.screen.Sync()
	return runErr
}

func (app *Application) openFileInEditorFallback(args []string) error {
	if err := app.screen.Suspend(); err != nil {
		return fmt.Errorf("failed to suspend screen: %w", err)
	}
	defer func() {
		_ = app.screen.Resume()
		app.screen.Sync()
	}()

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func (app *Application) editorArgsWithFile(filePath string) []string {
	args := make([]string, len(app.editorCmd)+1)
	copy(args, app.editorCmd)
	args[len(app.editorCmd)] = filePath
	return args
}
