package clipboard

import (
	"fmt"
	"sync"
	"time"
)

// restoreDelay gives the focused app time to consume the paste before
// the user's previous clipboard contents come back.
const restoreDelay = 600 * time.Millisecond

// Inserter implements text insertion via copy-and-paste while
// preserving whatever the user had on the clipboard.
type Inserter struct {
	copyFn  func(string) error
	pasteFn func() error
	readFn  func() (string, error)
	restore time.Duration

	mu      sync.Mutex
	pending *time.Timer
}

func NewInserter() *Inserter {
	return &Inserter{
		copyFn:  Copy,
		pasteFn: Paste,
		readFn:  Read,
		restore: restoreDelay,
	}
}

func (i *Inserter) Insert(text string) error {
	// A restore still scheduled from the previous insertion would land
	// after this one's copy and overwrite it. Cancel it first.
	i.mu.Lock()
	if i.pending != nil {
		i.pending.Stop()
		i.pending = nil
	}
	i.mu.Unlock()

	prev, readErr := i.readFn()

	if err := i.copyFn(text); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	if err := i.pasteFn(); err != nil {
		return fmt.Errorf("paste: %w", err)
	}

	if readErr == nil && prev != "" {
		i.mu.Lock()
		i.pending = time.AfterFunc(i.restore, func() {
			i.copyFn(prev)
		})
		i.mu.Unlock()
	}
	return nil
}
