package input

import "github.com/luciancaetano/kephasview"

type binding struct {
	code   string
	key    string
	action kephasview.Action
}

// bindings maps DOM KeyboardEvent code/key values to actions. An event matches
// a binding if either its code or its key equals the binding's non-empty value.
var bindings = [...]binding{
	{code: "KeyW", key: "ArrowUp", action: kephasview.MoveForward},
	{code: "KeyS", key: "ArrowDown", action: kephasview.MoveBackward},
	{code: "KeyA", key: "ArrowLeft", action: kephasview.MoveLeft},
	{code: "KeyD", key: "ArrowRight", action: kephasview.MoveRight},
	{code: "Space", action: kephasview.MoveUp},
	{code: "ShiftLeft", action: kephasview.MoveDown},
}

// Lookup returns the action bound to a key event, if any.
func Lookup(code, key string) (kephasview.Action, bool) {
	for _, b := range bindings {
		if (b.code != "" && code == b.code) || (b.key != "" && key == b.key) {
			return b.action, true
		}
	}
	return "", false
}
