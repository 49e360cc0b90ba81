package keyboard

import (
	"strings"

	evdev "github.com/holoplot/go-evdev"
)

// InputDevice is the part of evdev.InputDevice a key source reads from.
type InputDevice interface {
	ReadOne() (*evdev.InputEvent, error)
	Close() error
	Name() string
	Path() string
	Capabilities() map[evdev.EvType][]evdev.EvCode
}

// DeviceOps finds and opens input devices.
type DeviceOps interface {
	ListInputDevices() ([]InputDevice, error)
	Open(path string) (InputDevice, error)
}

type realInputDevice struct {
	dev *evdev.InputDevice
}

func (r *realInputDevice) ReadOne() (*evdev.InputEvent, error) { return r.dev.ReadOne() }
func (r *realInputDevice) Close() error                        { return r.dev.Close() }
func (r *realInputDevice) Path() string                        { return r.dev.Path() }
func (r *realInputDevice) Name() string {
	name, _ := r.dev.Name()
	return name
}
func (r *realInputDevice) Capabilities() map[evdev.EvType][]evdev.EvCode {
	caps := make(map[evdev.EvType][]evdev.EvCode)
	for _, t := range r.dev.CapableTypes() {
		caps[t] = r.dev.CapableEvents(t)
	}
	return caps
}

type realDeviceOps struct{}

func (realDeviceOps) ListInputDevices() ([]InputDevice, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, err
	}
	var ret []InputDevice
	for _, p := range paths {
		d, err := evdev.Open(p.Path)
		if err != nil {
			continue // unreadable without permissions
		}
		ret = append(ret, &realInputDevice{dev: d})
	}
	return ret, nil
}

func (realDeviceOps) Open(path string) (InputDevice, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, err
	}
	return &realInputDevice{dev: dev}, nil
}

// isKeyboard reports whether dev can produce letter keys.
func isKeyboard(dev InputDevice) bool {
	for capType, codes := range dev.Capabilities() {
		if capType != evdev.EV_KEY {
			continue
		}
		for _, code := range codes {
			if code == evdev.KEY_A {
				return true
			}
		}
	}
	return strings.Contains(strings.ToLower(dev.Name()), "keyboard")
}
