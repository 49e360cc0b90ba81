package keyboard

import (
	"strings"

	evdev "github.com/holoplot/go-evdev"
)

type domKey struct {
	code string
	key  string
}

var letters = [...]struct {
	code evdev.EvCode
	char string
}{
	{evdev.KEY_A, "a"}, {evdev.KEY_B, "b"}, {evdev.KEY_C, "c"}, {evdev.KEY_D, "d"},
	{evdev.KEY_E, "e"}, {evdev.KEY_F, "f"}, {evdev.KEY_G, "g"}, {evdev.KEY_H, "h"},
	{evdev.KEY_I, "i"}, {evdev.KEY_J, "j"}, {evdev.KEY_K, "k"}, {evdev.KEY_L, "l"},
	{evdev.KEY_M, "m"}, {evdev.KEY_N, "n"}, {evdev.KEY_O, "o"}, {evdev.KEY_P, "p"},
	{evdev.KEY_Q, "q"}, {evdev.KEY_R, "r"}, {evdev.KEY_S, "s"}, {evdev.KEY_T, "t"},
	{evdev.KEY_U, "u"}, {evdev.KEY_V, "v"}, {evdev.KEY_W, "w"}, {evdev.KEY_X, "x"},
	{evdev.KEY_Y, "y"}, {evdev.KEY_Z, "z"},
}

// domKeys translates kernel key codes to DOM KeyboardEvent code/key pairs
// for a US layout.
var domKeys = func() map[evdev.EvCode]domKey {
	m := map[evdev.EvCode]domKey{
		evdev.KEY_UP:         {"ArrowUp", "ArrowUp"},
		evdev.KEY_DOWN:       {"ArrowDown", "ArrowDown"},
		evdev.KEY_LEFT:       {"ArrowLeft", "ArrowLeft"},
		evdev.KEY_RIGHT:      {"ArrowRight", "ArrowRight"},
		evdev.KEY_SPACE:      {"Space", " "},
		evdev.KEY_LEFTSHIFT:  {"ShiftLeft", "Shift"},
		evdev.KEY_RIGHTSHIFT: {"ShiftRight", "Shift"},
		evdev.KEY_LEFTCTRL:   {"ControlLeft", "Control"},
		evdev.KEY_RIGHTCTRL:  {"ControlRight", "Control"},
		evdev.KEY_ENTER:      {"Enter", "Enter"},
		evdev.KEY_ESC:        {"Escape", "Escape"},
		evdev.KEY_TAB:        {"Tab", "Tab"},
	}
	for _, l := range letters {
		m[l.code] = domKey{code: "Key" + strings.ToUpper(l.char), key: l.char}
	}
	return m
}()

// Translate returns the DOM code and key for a kernel key code.
func Translate(code evdev.EvCode) (string, string, bool) {
	k, ok := domKeys[code]
	return k.code, k.key, ok
}
