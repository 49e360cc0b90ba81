package keyboard

import (
	"context"
	"errors"
	"sync"

	evdev "github.com/holoplot/go-evdev"
	"github.com/lattesec/log"
	"golang.org/x/sync/errgroup"

	"github.com/luciancaetano/kephasview"
)

var ErrNoKeyboard = errors.New("no keyboard found")

// Kernel key event values.
const (
	valueRelease = 0
	valuePress   = 1
	valueRepeat  = 2
)

// Evdev reads keys straight from Linux input devices, for sessions run
// without a window.
type Evdev struct {
	path string
	ops  DeviceOps
}

// NewEvdev returns a source reading path, or every detected keyboard when
// path is empty.
func NewEvdev(path string) *Evdev {
	return &Evdev{path: path, ops: realDeviceOps{}}
}

// Run reads until ctx is cancelled or a device fails.
func (e *Evdev) Run(ctx context.Context, emit func(kephasview.KeyEvent)) error {
	devices, err := e.open()
	if err != nil {
		return err
	}

	var closeOnce sync.Once
	closeAll := func() {
		closeOnce.Do(func() {
			for _, d := range devices {
				d.Close()
			}
		})
	}
	defer closeAll()

	g, gctx := errgroup.WithContext(ctx)
	for _, d := range devices {
		g.Go(func() error {
			return e.read(gctx, d, emit)
		})
	}

	// ReadOne has no deadline; closing the devices unblocks it.
	go func() {
		<-gctx.Done()
		closeAll()
	}()

	err = g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (e *Evdev) open() ([]InputDevice, error) {
	if e.path != "" {
		dev, err := e.ops.Open(e.path)
		if err != nil {
			return nil, err
		}
		return []InputDevice{dev}, nil
	}

	all, err := e.ops.ListInputDevices()
	if err != nil {
		return nil, err
	}

	var keyboards []InputDevice
	for _, dev := range all {
		if !isKeyboard(dev) {
			dev.Close()
			continue
		}
		log.Info().
			WithMeta("scope", "keyboard").
			WithMeta("device", dev.Path()).
			Msgf("attaching to keyboard: %s", dev.Name()).Send()
		keyboards = append(keyboards, dev)
	}

	if len(keyboards) == 0 {
		return nil, ErrNoKeyboard
	}
	return keyboards, nil
}

func (e *Evdev) read(ctx context.Context, dev InputDevice, emit func(kephasview.KeyEvent)) error {
	for {
		event, err := dev.ReadOne()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn().
				WithMeta("scope", "keyboard").
				WithMeta("device", dev.Path()).
				Msgf("read failed: %v", err).Send()
			return err
		}

		if ev, ok := keyEvent(event); ok {
			emit(ev)
		}
	}
}

// keyEvent converts a kernel event to a key transition. Autorepeat is dropped;
// a held key is already active.
func keyEvent(event *evdev.InputEvent) (kephasview.KeyEvent, bool) {
	if event == nil || event.Type != evdev.EV_KEY {
		return kephasview.KeyEvent{}, false
	}

	var down bool
	switch event.Value {
	case valuePress:
		down = true
	case valueRelease:
		down = false
	case valueRepeat:
		return kephasview.KeyEvent{}, false
	default:
		return kephasview.KeyEvent{}, false
	}

	code, key, ok := Translate(event.Code)
	if !ok {
		return kephasview.KeyEvent{}, false
	}
	return kephasview.KeyEvent{Code: code, Key: key, Down: down}, true
}
