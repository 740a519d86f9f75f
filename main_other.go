//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	// The hotkey listener requires the OS main thread on macOS/Windows.
	mainthread.Init(run)
}
