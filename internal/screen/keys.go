package screen

import (
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

type domKey struct {
	code string
	key  string
}

var namedKeys = map[ebiten.Key]domKey{
	ebiten.KeyArrowUp:    {"ArrowUp", "ArrowUp"},
	ebiten.KeyArrowDown:  {"ArrowDown", "ArrowDown"},
	ebiten.KeyArrowLeft:  {"ArrowLeft", "ArrowLeft"},
	ebiten.KeyArrowRight: {"ArrowRight", "ArrowRight"},
	ebiten.KeySpace:      {"Space", " "},
	ebiten.KeyShiftLeft:  {"ShiftLeft", "Shift"},
	ebiten.KeyShiftRight: {"ShiftRight", "Shift"},
	ebiten.KeyEnter:      {"Enter", "Enter"},
	ebiten.KeyEscape:     {"Escape", "Escape"},
	ebiten.KeyTab:        {"Tab", "Tab"},
}

// translateKey returns the DOM code and key for an ebiten key on a US layout.
func translateKey(k ebiten.Key) (string, string, bool) {
	if k >= ebiten.KeyA && k <= ebiten.KeyZ {
		letter := string(rune('A' + int(k-ebiten.KeyA)))
		return "Key" + letter, strings.ToLower(letter), true
	}
	if d, ok := namedKeys[k]; ok {
		return d.code, d.key, true
	}
	return "", "", false
}
