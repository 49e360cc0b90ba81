package nopanic

import (
	"fmt"

	"github.com/lattesec/log"
)

// Run calls fn and converts a panic into an error so that a faulty callback
// cannot take down the caller's loop.
func Run(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				WithMeta("scope", "nopanic").
				Msgf("panic in %s: %v", name, r).Send()
			err = fmt.Errorf("panic in %s: %v", name, r)
		}
	}()

	return fn()
}

// RunVoid is Run for callbacks without an error result.
func RunVoid(name string, fn func()) error {
	return Run(name, func() error {
		fn()
		return nil
	})
}
