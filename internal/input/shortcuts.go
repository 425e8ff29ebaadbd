package input

import (
	"unicode"

	"golang.org/x/mobile/event/key"
)

// KeyShortcut describes a keyboard combination that triggers an action.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// KeyboardShortcuts returns the shortcuts associated with an action.
type KeyboardShortcuts interface {
	KeyboardShortcuts() []KeyShortcut
}

// shortcutList is a helper to easily satisfy the KeyboardShortcuts interface.
type shortcutList []KeyShortcut

func (s shortcutList) KeyboardShortcuts() []KeyShortcut { return []KeyShortcut(s) }

// ctrl registers both the rune and the key code so ctrl combinations match
// whether or not the driver reports a rune.
func ctrl(r rune, code key.Code) shortcutList {
	return shortcutList{
		{Rune: r, Modifiers: key.ModControl},
		{Code: code, Modifiers: key.ModControl},
	}
}

const modMask = key.ModControl | key.ModAlt | key.ModMeta

// lookupKeys returns the shortcut keys an event can match, rune first.
// Shift is ignored so that '+' matches with or without it.
func lookupKeys(e key.Event) []KeyShortcut {
	mods := e.Modifiers & modMask
	var out []KeyShortcut
	if e.Rune > 0 {
		out = append(out, KeyShortcut{Rune: unicode.ToLower(e.Rune), Modifiers: mods})
	}
	if e.Code != key.CodeUnknown {
		out = append(out, KeyShortcut{Code: e.Code, Modifiers: mods})
	}
	return out
}
