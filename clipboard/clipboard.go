// Package clipboard inserts text at the focused input field by
// copying it to the system clipboard and synthesizing a paste
// keystroke.
package clipboard

import cb "github.com/atotto/clipboard"

func Read() (string, error) {
	return cb.ReadAll()
}

func Copy(text string) error {
	return cb.WriteAll(text)
}
