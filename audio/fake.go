package audio

import "sync"

// FakeContext backs tests with a scripted capture device.
type FakeContext struct {
	StartErr error
	capture  *FakeCapture
}

func NewFakeContext() *FakeContext { return &FakeContext{} }

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake0", Name: "fake mic"}}, nil
}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	f.capture = &FakeCapture{StartErr: f.StartErr}
	return f.capture, nil
}

func (f *FakeContext) Close() {}

// Capture returns the last device handed out by NewCapture.
func (f *FakeContext) Capture() *FakeCapture { return f.capture }

// FakeCapture records Start/Stop calls and lets tests push PCM through
// the registered callback with Feed.
type FakeCapture struct {
	StartErr error

	mu       sync.Mutex
	cb       DataCallback
	started  bool
	StartCnt int
	StopCnt  int
}

func (f *FakeCapture) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.StartErr != nil {
		return f.StartErr
	}
	f.started = true
	f.StartCnt++
	return nil
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = false
	f.StopCnt++
}

func (f *FakeCapture) Close() {}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return "fake mic" }

func (f *FakeCapture) Started() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

// Feed pushes raw PCM to the registered callback, as the platform
// capture thread would.
func (f *FakeCapture) Feed(pcm []byte) {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	if cb != nil {
		cb(pcm, uint32(len(pcm)/2))
	}
}
