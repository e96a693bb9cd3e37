// Package hotkey registers the global dictation shortcut and turns its
// key presses into start/stop edges.
package hotkey

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

var ErrInvalidCombo = errors.New("invalid hotkey")

type Mod string

const (
	ModCtrl  Mod = "ctrl"
	ModShift Mod = "shift"
	ModAlt   Mod = "alt"
	ModSuper Mod = "super"
)

// modOrder fixes the canonical spelling, e.g. "ctrl+shift+space".
var modOrder = []Mod{ModCtrl, ModAlt, ModShift, ModSuper}

var modAliases = map[string]Mod{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"shift":   ModShift,
	"alt":     ModAlt,
	"opt":     ModAlt,
	"option":  ModAlt,
	"cmd":     ModSuper,
	"command": ModSuper,
	"super":   ModSuper,
	"win":     ModSuper,
	"meta":    ModSuper,
}

var keyAliases = map[string]string{
	"enter": "return",
	"esc":   "escape",
}

// Combo is a parsed key combination.
type Combo struct {
	Mods []Mod
	Key  string
}

// Parse reads combos like "ctrl+shift+space" or "cmd+opt+d".
func Parse(s string) (Combo, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	var c Combo
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return Combo{}, fmt.Errorf("%w %q: empty key", ErrInvalidCombo, s)
		}
		if m, ok := modAliases[p]; ok {
			if slices.Contains(c.Mods, m) {
				return Combo{}, fmt.Errorf("%w %q: %s repeated", ErrInvalidCombo, s, m)
			}
			c.Mods = append(c.Mods, m)
			continue
		}
		if c.Key != "" {
			return Combo{}, fmt.Errorf("%w %q: more than one key", ErrInvalidCombo, s)
		}
		if a, ok := keyAliases[p]; ok {
			p = a
		}
		if !validKey(p) {
			return Combo{}, fmt.Errorf("%w %q: unknown key %q", ErrInvalidCombo, s, p)
		}
		c.Key = p
	}
	if c.Key == "" {
		return Combo{}, fmt.Errorf("%w %q: no key", ErrInvalidCombo, s)
	}
	slices.SortFunc(c.Mods, func(a, b Mod) int {
		return slices.Index(modOrder, a) - slices.Index(modOrder, b)
	})
	return c, nil
}

func MustParse(s string) Combo {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Combo) Has(m Mod) bool { return slices.Contains(c.Mods, m) }

func (c Combo) String() string {
	parts := make([]string, 0, len(c.Mods)+1)
	for _, m := range c.Mods {
		parts = append(parts, string(m))
	}
	return strings.Join(append(parts, c.Key), "+")
}

// Label is the human form shown in menus, e.g. "Ctrl+Shift+Space".
func (c Combo) Label() string {
	parts := strings.Split(c.String(), "+")
	for i, p := range parts {
		if len(p) > 1 && p[0] == 'f' && p[1] >= '0' && p[1] <= '9' {
			parts[i] = strings.ToUpper(p)
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "+")
}

func validKey(k string) bool {
	switch k {
	case "space", "return", "escape", "tab":
		return true
	}
	if len(k) == 1 {
		return (k[0] >= 'a' && k[0] <= 'z') || (k[0] >= '0' && k[0] <= '9')
	}
	if k[0] == 'f' {
		for i := 1; i <= 12; i++ {
			if k == fmt.Sprintf("f%d", i) {
				return true
			}
		}
	}
	return false
}
