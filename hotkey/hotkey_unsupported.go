//go:build !linux && !darwin && !windows

package hotkey

import (
	"errors"
	"runtime"
)

var errUnsupported = errors.New("global hotkeys are not supported on " + runtime.GOOS)

func New(Combo) (Hotkey, error) { return nil, errUnsupported }

func Diagnose(Combo) (string, error) { return "", errUnsupported }
