// Package hotkey raises press/release intents from a global
// hold-to-record key combination.
package hotkey

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}
