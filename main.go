package main

import (
	"flag"
	"fmt"
	"os"
	"sync"

	"voicekey/audio"
	"voicekey/clipboard"
	"voicekey/config"
	"voicekey/doctor"
	"voicekey/hotkey"
	"voicekey/keyboard"
	"voicekey/log"
	"voicekey/permission"
	"voicekey/shutdown"
	"voicekey/transcriber"
)

var version = "dev"

var (
	shutdownOnce sync.Once
	sink         = &tuiSink{}
	controller   *keyboard.Controller
)

func gracefulShutdown() {
	shutdownOnce.Do(func() {
		if controller != nil {
			controller.Close()
		}
		if n := sink.InsertedCount(); n > 0 {
			log.SessionEnd(n)
		}
		log.Close()
		tuiMu.Lock()
		p := tuiProgram
		tuiMu.Unlock()
		if p != nil {
			p.Quit()
		}
		os.Exit(0)
	})
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT!)"
		}
	}
	return "mic: " + name + suffix
}

func run() {
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	configFlag := flag.String("config", "", "Config file path (default: searches ./ and the user config dir)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	logPathFlag := flag.String("logpath", "", "Log directory path (default: OS-specific location, use ./ for current dir)")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("voicekey %s\n", version)
		os.Exit(0)
	}

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if *doctorFlag {
		os.Exit(doctor.Run(*configFlag))
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Set VOICEKEY_API_KEY (or GROQ_API_KEY) and retry.")
		os.Exit(1)
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer actx.Close()

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		devices, err := actx.Devices()
		if err == nil {
			for i := range devices {
				if devices[i].Name == *deviceFlag {
					selectedDevice = &devices[i]
					break
				}
			}
		}
		if selectedDevice == nil {
			fmt.Fprintf(os.Stderr, "Error: device %q not found\n", *deviceFlag)
			os.Exit(1)
		}
	} else if *setupFlag {
		selectedDevice, err = audio.SelectDevice(actx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: device selection failed: %v\n", err)
			fmt.Fprintln(os.Stderr, "Falling back to default device")
			selectedDevice = nil
		}
	}

	captureConfig := audio.CaptureConfig{
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
	}
	captureDevice, err := actx.NewCapture(selectedDevice, captureConfig)
	if err != nil {
		log.Errorf("capture device init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing capture device: %v\n", err)
		os.Exit(1)
	}
	defer captureDevice.Close()

	// Microphone permission is granted iff the device can actually be
	// opened; probe once with a short start/stop round trip.
	prober := permission.NewProber(func() error {
		probe, err := actx.NewCapture(selectedDevice, captureConfig)
		if err != nil {
			return err
		}
		defer probe.Close()
		if err := probe.Start(); err != nil {
			return err
		}
		probe.Stop()
		return nil
	})
	permDone := make(chan permission.State, 1)
	prober.Request(func(s permission.State) { permDone <- s })
	if s := <-permDone; s == permission.Denied {
		log.Warn("microphone permission denied")
		fmt.Fprintln(os.Stderr, "Warning: microphone unavailable; recording is disabled")
	}

	session := audio.NewCaptureSession(captureDevice, func() bool {
		return prober.Current() == permission.Granted
	})

	client := transcriber.NewGroq(transcriber.Config{
		APIKey:   cfg.APIKey,
		URL:      cfg.Endpoint,
		Model:    cfg.Model,
		Language: cfg.Language,
		Timeout:  cfg.Timeout,
		MinBytes: cfg.MinBytes,
	})
	go client.Warm()

	if err := clipboard.Init(); err != nil {
		log.Warnf("paste init failed: %v", err)
		fmt.Fprintf(os.Stderr, "Warning: paste init failed: %v\n", err)
	}

	controller = keyboard.NewController(session, client, clipboard.NewInserter(), prober, sink, keyboard.Config{
		MinArtifactBytes: cfg.MinBytes,
	})

	if !*tuiFlag {
		tuiReadyOnce.Do(func() { close(tuiReady) })
	} else {
		tuiMu.Lock()
		tuiProgram = NewTUIProgram()
		tuiMu.Unlock()

		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
				os.Exit(1)
			}
			gracefulShutdown()
		}()

		<-tuiReady
	}

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		gracefulShutdown()
	}()

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		log.Errorf("hotkey register error: %v", err)
		fmt.Fprintf(os.Stderr, "Error registering hotkey: %v\n", err)
		os.Exit(1)
	}
	defer hk.Unregister()

	log.SessionStart("groq", cfg.Model, captureDevice.DeviceName())
	tuiSend(ModeLineMsg{Text: fmt.Sprintf("[%s | groq]", cfg.Model)})
	tuiSend(DeviceLineMsg{Text: deviceLineText(selectedDevice)})

	pumpEvents(hk, controller, nil)
}

// pumpEvents translates hotkey transitions into controller intents:
// press starts a session, release stops it. Runs until done closes; a
// nil done runs forever.
func pumpEvents(hk hotkey.Hotkey, ctrl *keyboard.Controller, done <-chan struct{}) {
	for {
		select {
		case <-hk.Keydown():
			ctrl.Start()
		case <-hk.Keyup():
			ctrl.Stop()
		case <-done:
			return
		}
	}
}
