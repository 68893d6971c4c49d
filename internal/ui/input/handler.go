package input

import (
	"github.com/gdamore/tcell/v2"

	statepkg "github.com/kk-code-lab/peek/internal/state"
)

// Binding documents one key for the help screen.
type Binding struct {
	Keys        string
	Description string
}

// Bindings lists the built-in keys in help order.
var Bindings = []Binding{
	{"↑/k ↓/j", "move selection"},
	{"PgUp PgDn", "page through the list"},
	{"g G", "first / last entry"},
	{"→/l Enter", "enter directory"},
	{"←/h Backspace", "parent directory"},
	{"K J", "scroll preview"},
	{"Ctrl-U Ctrl-D", "page preview"},
	{".", "toggle hidden files"},
	{"r", "reload directory"},
	{"v", "toggle dual pane"},
	{"p", "pin selection to second pane"},
	{"e", "open in editor"},
	{"?", "this help"},
	{"Esc", "back to file preview"},
	{"Ctrl-Z", "suspend"},
	{"q Ctrl-C", "quit"},
}

// InputHandler converts tcell events to Actions
type InputHandler struct {
	actionChan chan statepkg.Action
	commands   map[rune]int
}

// NewInputHandler creates a new input handler. commandKeys[i] is the key
// bound to user command i; keys already used by a built-in are ignored.
func NewInputHandler(actionChan chan statepkg.Action, commandKeys []string) *InputHandler {
	ih := &InputHandler{
		actionChan: actionChan,
		commands:   make(map[rune]int),
	}
	for i, key := range commandKeys {
		runes := []rune(key)
		if len(runes) != 1 || isBuiltinRune(runes[0]) {
			continue
		}
		if _, taken := ih.commands[runes[0]]; !taken {
			ih.commands[runes[0]] = i
		}
	}
	return ih
}

// ProcessEvent converts a tcell event into an Action. It returns false when
// the application should quit.
func (ih *InputHandler) ProcessEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return ih.processKeyEvent(ev)
	case *tcell.EventResize:
		w, h := ev.Size()
		ih.actionChan <- statepkg.ResizeAction{Width: w, Height: h}
		return true
	default:
		return true
	}
}

func (ih *InputHandler) processKeyEvent(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		ih.actionChan <- statepkg.QuitAction{}
		return false
	case tcell.KeyCtrlZ:
		ih.actionChan <- statepkg.SuspendAction{}
	case tcell.KeyEscape:
		ih.actionChan <- statepkg.ClearPreviewAction{}
	case tcell.KeyUp:
		ih.actionChan <- statepkg.NavigateUpAction{}
	case tcell.KeyDown:
		ih.actionChan <- statepkg.NavigateDownAction{}
	case tcell.KeyPgUp:
		ih.actionChan <- statepkg.ScrollPageUpAction{}
	case tcell.KeyPgDn:
		ih.actionChan <- statepkg.ScrollPageDownAction{}
	case tcell.KeyHome:
		ih.actionChan <- statepkg.SelectFirstAction{}
	case tcell.KeyEnd:
		ih.actionChan <- statepkg.SelectLastAction{}
	case tcell.KeyRight, tcell.KeyEnter:
		ih.actionChan <- statepkg.EnterDirectoryAction{}
	case tcell.KeyLeft, tcell.KeyBackspace, tcell.KeyBackspace2:
		ih.actionChan <- statepkg.GoUpAction{}
	case tcell.KeyCtrlD:
		ih.actionChan <- statepkg.PreviewScrollPageDownAction{}
	case tcell.KeyCtrlU:
		ih.actionChan <- statepkg.PreviewScrollPageUpAction{}
	case tcell.KeyRune:
		return ih.processRune(ev.Rune())
	}
	return true
}

func (ih *InputHandler) processRune(r rune) bool {
	if action := builtinRuneAction(r); action != nil {
		ih.actionChan <- action
		_, quit := action.(statepkg.QuitAction)
		return !quit
	}
	if idx, ok := ih.commands[r]; ok {
		ih.actionChan <- statepkg.RunCommandAction{Index: idx}
	}
	return true
}

func builtinRuneAction(r rune) statepkg.Action {
	switch r {
	case 'q':
		return statepkg.QuitAction{}
	case 'k':
		return statepkg.NavigateUpAction{}
	case 'j':
		return statepkg.NavigateDownAction{}
	case 'g':
		return statepkg.SelectFirstAction{}
	case 'G':
		return statepkg.SelectLastAction{}
	case 'l':
		return statepkg.EnterDirectoryAction{}
	case 'h':
		return statepkg.GoUpAction{}
	case 'K':
		return statepkg.PreviewScrollUpAction{}
	case 'J':
		return statepkg.PreviewScrollDownAction{}
	case '.':
		return statepkg.ToggleHiddenFilesAction{}
	case 'r':
		return statepkg.RefreshDirectoryAction{}
	case 'v':
		return statepkg.ToggleDualPaneAction{}
	case 'p':
		return statepkg.PinSecondPaneAction{}
	case 'e':
		return statepkg.OpenEditorAction{}
	case '?':
		return statepkg.ShowHelpAction{}
	}
	return nil
}

func isBuiltinRune(r rune) bool {
	return builtinRuneAction(r) != nil
}
