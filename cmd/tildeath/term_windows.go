//go:build windows

package main

import (
	"golang.org/x/sys/windows"
)

// makeRaw disables line input and echo on the console handle backing fd, so
// ReadFile returns after a single keypress instead of waiting for Enter.
func makeRaw(fd int) (func(), error) {
	handle := windows.Handle(fd)

	var orig uint32
	if err := windows.GetConsoleMode(handle, &orig); err != nil {
		return nil, err
	}

	raw := orig &^ (windows.ENABLE_ECHO_INPUT | windows.ENABLE_LINE_INPUT | windows.ENABLE_PROCESSED_INPUT)
	if err := windows.SetConsoleMode(handle, raw); err != nil {
		return nil, err
	}

	return func() {
		_ = windows.SetConsoleMode(handle, orig)
	}, nil
}
