// Package input maps pointer, wheel, keyboard and toolbar events to viewport
// changes. The controller never keeps viewport state of its own: each call to
// Handle takes a state and returns the next one.
package input

import (
	"image"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/passportframe/internal/viewport"
)

// Action names a user-triggerable operation.
type Action int

const (
	ActionNone Action = iota
	ActionUpload
	ActionRotateLeft
	ActionRotateRight
	ActionZoomIn
	ActionZoomOut
	ActionReset
	ActionSave
	ActionCopy
	ActionPaste
	ActionQuit
)

var actionNames = map[Action]string{
	ActionUpload:      "upload",
	ActionRotateLeft:  "rotate-left",
	ActionRotateRight: "rotate-right",
	ActionZoomIn:      "zoom-in",
	ActionZoomOut:     "zoom-out",
	ActionReset:       "reset",
	ActionSave:        "save",
	ActionCopy:        "copy",
	ActionPaste:       "paste",
	ActionQuit:        "quit",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "none"
}

// ParseAction resolves an action by its String name.
func ParseAction(name string) (Action, bool) {
	for a, n := range actionNames {
		if n == name {
			return a, true
		}
	}
	return ActionNone, false
}

// Toolbar lists the actions shown as buttons, in display order.
var Toolbar = []Action{
	ActionUpload,
	ActionRotateLeft,
	ActionRotateRight,
	ActionZoomIn,
	ActionZoomOut,
	ActionReset,
	ActionSave,
}

// Command is a side effect the caller must perform after Handle returns.
type Command int

const (
	CommandNone Command = iota
	CommandUpload
	CommandSave
	CommandCopy
	CommandPaste
	CommandQuit
)

// Outcome describes what the caller should do after an event.
type Outcome struct {
	// Redraw is set when the canvas must be repainted.
	Redraw bool
	// Intercepted is set when the event was consumed and its default
	// behaviour, such as scrolling, must be suppressed.
	Intercepted bool
	Command     Command
}

// ButtonEvent is sent when a toolbar button is clicked.
type ButtonEvent struct {
	Action Action
}

// LeaveEvent is sent when the pointer leaves the canvas.
type LeaveEvent struct{}

// Source yields input events. shiny's screen.Window satisfies it.
type Source interface {
	NextEvent() interface{}
}

type actionFunc func(st *viewport.State) Outcome

// Controller translates events into viewport changes.
type Controller struct {
	// Canvas is the canvas area in event coordinates. Pointer presses and
	// wheel events outside it are ignored. An empty rectangle accepts all
	// positions.
	Canvas image.Rectangle

	actions map[Action]actionFunc
	keys    map[KeyShortcut]Action
}

// NewController returns a controller with the default actions and shortcuts
// registered.
func NewController(canvas image.Rectangle) *Controller {
	c := &Controller{
		Canvas:  canvas,
		actions: map[Action]actionFunc{},
		keys:    map[KeyShortcut]Action{},
	}

	command := func(cmd Command) actionFunc {
		return func(*viewport.State) Outcome { return Outcome{Intercepted: true, Command: cmd} }
	}

	c.Register(ActionUpload, ctrl('o', key.CodeO), command(CommandUpload))
	c.Register(ActionPaste, ctrl('v', key.CodeV), command(CommandPaste))
	c.Register(ActionQuit, ctrl('q', key.CodeQ), command(CommandQuit))
	c.Register(ActionSave, ctrl('s', key.CodeS), command(CommandSave))
	c.Register(ActionCopy, ctrl('c', key.CodeC), command(CommandCopy))

	c.Register(ActionRotateLeft, shortcutList{{Rune: '['}}, func(st *viewport.State) Outcome {
		st.Rotate(-viewport.RotateStep)
		return Outcome{Redraw: true, Intercepted: true}
	})
	c.Register(ActionRotateRight, shortcutList{{Rune: ']'}}, func(st *viewport.State) Outcome {
		st.Rotate(viewport.RotateStep)
		return Outcome{Redraw: true, Intercepted: true}
	})
	c.Register(ActionZoomIn, shortcutList{{Rune: '+'}, {Rune: '='}, {Code: key.CodeKeypadPlusSign}}, func(st *viewport.State) Outcome {
		st.ZoomBy(viewport.ButtonZoomStep)
		return Outcome{Redraw: true, Intercepted: true}
	})
	c.Register(ActionZoomOut, shortcutList{{Rune: '-'}, {Code: key.CodeKeypadHyphenMinus}}, func(st *viewport.State) Outcome {
		st.ZoomBy(1 / viewport.ButtonZoomStep)
		return Outcome{Redraw: true, Intercepted: true}
	})
	c.Register(ActionReset, shortcutList{{Rune: '0'}}, func(st *viewport.State) Outcome {
		st.Reset()
		return Outcome{Redraw: true, Intercepted: true}
	})
	return c
}

// Register binds fn and the given shortcuts to an action, replacing any
// earlier binding of the same action.
func (c *Controller) Register(a Action, keys KeyboardShortcuts, fn func(st *viewport.State) Outcome) {
	c.actions[a] = fn
	if keys != nil {
		for _, sc := range keys.KeyboardShortcuts() {
			c.keys[sc] = a
		}
	}
}

// ActionForKey returns the action bound to a key event.
func (c *Controller) ActionForKey(e key.Event) (Action, bool) {
	for _, ks := range lookupKeys(e) {
		if a, ok := c.keys[ks]; ok {
			return a, true
		}
	}
	return ActionNone, false
}

// Enabled reports whether an action may run in st.
func Enabled(a Action, st viewport.State) bool {
	switch a {
	case ActionUpload, ActionPaste, ActionQuit:
		return true
	case ActionZoomIn:
		return st.CanZoomIn()
	case ActionZoomOut:
		return st.CanZoomOut()
	case ActionNone:
		return false
	}
	return st.HasImage()
}

// Trigger runs an action against st. Disabled actions are ignored.
func (c *Controller) Trigger(st viewport.State, a Action) (viewport.State, Outcome) {
	fn, ok := c.actions[a]
	if !ok || !Enabled(a, st) {
		return st, Outcome{}
	}
	out := fn(&st)
	return st, out
}

// Handle applies a single event to st and returns the resulting state.
// Unknown events are returned unchanged with a zero Outcome.
func (c *Controller) Handle(st viewport.State, ev interface{}) (viewport.State, Outcome) {
	switch e := ev.(type) {
	case ButtonEvent:
		return c.Trigger(st, e.Action)
	case key.Event:
		if e.Direction == key.DirRelease {
			return st, Outcome{}
		}
		if a, ok := c.ActionForKey(e); ok {
			return c.Trigger(st, a)
		}
	case mouse.Event:
		return c.pointer(st, e)
	case LeaveEvent:
		st.EndDrag()
	}
	return st, Outcome{}
}

func (c *Controller) inCanvas(p image.Point) bool {
	return c.Canvas.Empty() || p.In(c.Canvas)
}

func (c *Controller) pointer(st viewport.State, e mouse.Event) (viewport.State, Outcome) {
	p := image.Pt(int(e.X), int(e.Y))
	if e.Button.IsWheel() {
		return c.wheel(st, e, p)
	}
	switch e.Direction {
	case mouse.DirPress:
		if e.Button == mouse.ButtonLeft && st.HasImage() && c.inCanvas(p) {
			st.BeginDrag(p)
			return st, Outcome{Intercepted: true}
		}
	case mouse.DirRelease:
		if e.Button == mouse.ButtonLeft && st.Dragging() {
			st.EndDrag()
			return st, Outcome{Intercepted: true}
		}
	case mouse.DirNone:
		if !st.Dragging() {
			break
		}
		if !c.inCanvas(p) {
			st.EndDrag()
			break
		}
		if st.DragTo(p) {
			return st, Outcome{Redraw: true, Intercepted: true}
		}
	}
	return st, Outcome{}
}

func (c *Controller) wheel(st viewport.State, e mouse.Event, p image.Point) (viewport.State, Outcome) {
	if e.Direction == mouse.DirRelease {
		return st, Outcome{}
	}
	if e.Modifiers&key.ModControl == 0 || !st.HasImage() || !c.inCanvas(p) {
		return st, Outcome{}
	}
	switch e.Button {
	case mouse.ButtonWheelUp:
		st.ZoomBy(viewport.WheelZoomStep)
	case mouse.ButtonWheelDown:
		st.ZoomBy(1 / viewport.WheelZoomStep)
	default:
		return st, Outcome{}
	}
	return st, Outcome{Redraw: true, Intercepted: true}
}
