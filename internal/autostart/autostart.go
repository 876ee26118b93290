// Package autostart registers the agent to run on login/boot, which is how
// the "environment ready" signal reaches picup.
package autostart

import (
	"errors"
	"fmt"
	"runtime"
)

var ErrUnsupported = errors.New("autostart is not supported on this platform")

type AutoStarter interface {
	Install(execPath string) error
	Uninstall() error
	IsInstalled() (bool, error)
}

func New() AutoStarter {
	return forOS(runtime.GOOS)
}

func forOS(goos string) AutoStarter {
	switch goos {
	case "windows":
		return &WindowsAutoStarter{}
	case "linux":
		return &LinuxAutoStarter{}
	default:
		return unsupported{goos: goos}
	}
}

// unsupported refuses to install, so `picup install` fails loudly instead of
// pretending the agent will come back after a reboot.
type unsupported struct {
	goos string
}

func (u unsupported) Install(string) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, u.goos)
}

func (u unsupported) Uninstall() error {
	return fmt.Errorf("%w: %s", ErrUnsupported, u.goos)
}

func (u unsupported) IsInstalled() (bool, error) {
	return false, nil
}
