// Package doctor runs interactive end-to-end diagnostics: config,
// hotkey, microphone capture, transcription, and paste output.
package doctor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"voicekey/audio"
	"voicekey/clipboard"
	"voicekey/config"
	"voicekey/hotkey"
	"voicekey/transcriber"
)

// Run executes the diagnostic checks and returns an exit code
// (0=all pass, 1=any fail).
func Run(configFile string) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("voicekey doctor - interactive system diagnostics")
	fmt.Println("================================================")

	cfg, ok := checkConfig(configFile)
	allPass := ok

	if allPass && !checkHotkey() {
		allPass = false
	}
	if allPass && !checkMicAndTranscription(cfg) {
		allPass = false
	}
	if allPass && !checkPaste() {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkConfig(configFile string) (*config.Config, bool) {
	fmt.Println()
	fmt.Println("[1/4] Configuration")

	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		fmt.Println("  Set VOICEKEY_API_KEY (or GROQ_API_KEY) and retry.")
		return nil, false
	}

	fmt.Printf("  PASS: endpoint %s, model %s\n", cfg.Endpoint, cfg.Model)
	return cfg, true
}

func checkHotkey() bool {
	fmt.Println()
	fmt.Println("[2/4] Hotkey detection")
	fmt.Println("Press Ctrl+Shift+Space...")

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		fmt.Printf("  FAIL: could not register hotkey: %v\n", err)
		return false
	}
	defer hk.Unregister()

	select {
	case <-hk.Keydown():
		fmt.Println("  PASS: hotkey detected")
		// Wait for keyup to avoid triggering next step
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		// Reset terminal after hotkey - it may leave terminal in raw mode
		resetTerminal()
		return true
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for hotkey")
		return false
	}
}

func checkMicAndTranscription(cfg *config.Config) bool {
	fmt.Println()
	fmt.Println("[3/4] Microphone and transcription")

	reader := bufio.NewReader(os.Stdin)

	actx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer actx.Close()

	device, err := pickDevice(actx, reader)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("Using device: %s\n", device.Name)

	captureDevice, err := actx.NewCapture(device, audio.CaptureConfig{
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
	})
	if err != nil {
		fmt.Printf("  FAIL: cannot open device: %v\n", err)
		return false
	}
	defer captureDevice.Close()

	session := audio.NewCaptureSession(captureDevice, nil)

	fmt.Println()
	fmt.Print("Press Enter and speak for 3 seconds...")
	reader.ReadString('\n')

	if err := session.Start(func(db float64) {}); err != nil {
		fmt.Printf("  FAIL: recording error: %v\n", err)
		return false
	}

	fmt.Print("  Recording")
	for i := 0; i < 6; i++ {
		time.Sleep(500 * time.Millisecond)
		fmt.Print(".")
	}
	fmt.Println(" done")

	artifact, err := session.Stop()
	if err != nil {
		fmt.Printf("  FAIL: recording error: %v\n", err)
		return false
	}
	defer artifact.Remove()

	fmt.Printf("  Recorded %.1f KB, transcribing...\n", float64(artifact.Bytes)/1024)

	client := transcriber.NewGroq(transcriber.Config{
		APIKey:   cfg.APIKey,
		URL:      cfg.Endpoint,
		Model:    cfg.Model,
		Language: cfg.Language,
		Timeout:  cfg.Timeout,
		MinBytes: cfg.MinBytes,
	})

	text, err := client.Transcribe(context.Background(), artifact)
	if err != nil {
		if errors.Is(err, transcriber.ErrNoSpeech) {
			text = "(no speech detected)"
		} else {
			fmt.Printf("  FAIL: transcription error: %v\n", err)
			return false
		}
	}

	fmt.Printf("\n  Transcribed text: %s\n\n", text)

	// Fresh reader to clear any buffered input
	confirmReader := bufio.NewReader(os.Stdin)
	fmt.Print("Is this correct? [y/n]: ")
	confirm, _ := confirmReader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))

	if confirm == "y" || confirm == "yes" {
		fmt.Println("  PASS: transcription verified by user")
		return true
	}

	fmt.Println("  FAIL: transcription not confirmed")
	return false
}

func pickDevice(actx audio.Context, reader *bufio.Reader) (*audio.DeviceInfo, error) {
	devices, err := actx.Devices()
	if err != nil {
		return nil, fmt.Errorf("cannot list devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no capture devices found")
	}
	if len(devices) == 1 {
		return &devices[0], nil
	}

	fmt.Println()
	fmt.Println("Select input device:")
	for i, d := range devices {
		fmt.Printf("  %d. %s\n", i+1, d.Name)
	}
	fmt.Printf("Choice [1-%d]: ", len(devices))

	choice, _ := reader.ReadString('\n')
	choice = strings.TrimSpace(choice)
	idx := 0
	if choice != "" {
		fmt.Sscanf(choice, "%d", &idx)
		idx--
	}
	if idx < 0 || idx >= len(devices) {
		return nil, fmt.Errorf("invalid choice")
	}
	return &devices[idx], nil
}

func checkPaste() bool {
	fmt.Println()
	fmt.Println("[4/4] Clipboard and paste")

	if msg, err := clipboard.Verify(); err != nil {
		fmt.Printf("  FAIL: paste init: %v\n", err)
		return false
	} else {
		fmt.Printf("  %s\n", msg)
	}

	fmt.Println("Focus on a text editor window...")
	for i := 5; i > 0; i-- {
		fmt.Printf("  %d...\n", i)
		time.Sleep(1 * time.Second)
	}

	testStr := "voicekey-doctor-test"
	if err := clipboard.Copy(testStr); err != nil {
		fmt.Printf("  FAIL: clipboard copy failed: %v\n", err)
		return false
	}
	if err := clipboard.Paste(); err != nil {
		fmt.Printf("  FAIL: paste failed: %v\n", err)
		return false
	}

	resetTerminal()
	confirmReader := bufio.NewReader(os.Stdin)
	fmt.Println()
	fmt.Print("Did the text \"voicekey-doctor-test\" appear? [y/n]: ")
	confirm, _ := confirmReader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))

	if confirm != "y" && confirm != "yes" {
		fmt.Println("  FAIL: clipboard/paste not confirmed")
		return false
	}
	fmt.Println("  PASS: clipboard and paste verified by user")
	return true
}
