package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"voicekey/audio"
)

// TUI message types
type RecordingStartMsg struct{}
type RecordingStopMsg struct{}
type LevelMsg struct{ DB float64 }
type StatusMsg struct{ Text string }
type BusyMsg struct{ Busy bool }
type TranscriptionMsg struct{ Text string }
type NoVoiceWarningMsg struct{ Active bool }
type DeviceLineMsg struct{ Text string }
type ModeLineMsg struct{ Text string }
type tickMsg time.Time

type tuiState int

const (
	tuiStateIdle tuiState = iota
	tuiStateRecording
)

type tuiModel struct {
	state          tuiState
	busy           bool
	frame          int
	recordingStart time.Time
	levelDB        float64 // smoothed, audio.LevelFloorDB..0
	status         string
	noVoice        bool
	width, height  int
	modeLine       string  // "[whisper-large-v3 | groq]"
	deviceLine     string  // microphone device name
	lastText       string  // last inserted text (scratch area)
	msgCount       int
}

var (
	tuiProgram   *tea.Program
	tuiMu        sync.Mutex
	tuiReady     = make(chan struct{})
	tuiReadyOnce sync.Once
)

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

var (
	statusRecStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	statusIdleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusBusyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	warnStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	meterOnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	meterHotStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	meterOffStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	grayStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpBoldStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	titleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	textStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
)

func NewTUIProgram() *tea.Program {
	m := tuiModel{status: "Ready to record", levelDB: audio.LevelFloorDB}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	tuiReadyOnce.Do(func() { close(tuiReady) })
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case RecordingStartMsg:
		m.state = tuiStateRecording
		m.recordingStart = time.Now()
		m.levelDB = audio.LevelFloorDB
		m.noVoice = false

	case RecordingStopMsg:
		m.state = tuiStateIdle
		m.levelDB = audio.LevelFloorDB

	case LevelMsg:
		if m.state == tuiStateRecording {
			m.levelDB = m.levelDB*0.6 + msg.DB*0.4
		}

	case StatusMsg:
		m.status = msg.Text

	case BusyMsg:
		m.busy = msg.Busy

	case TranscriptionMsg:
		m.msgCount++
		m.lastText = msg.Text

	case NoVoiceWarningMsg:
		m.noVoice = msg.Active

	case DeviceLineMsg:
		m.deviceLine = msg.Text

	case ModeLineMsg:
		m.modeLine = msg.Text
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString("\n")

	// Status line
	switch {
	case m.state == tuiStateRecording:
		b.WriteString("  " + statusRecStyle.Render(fmt.Sprintf("● REC %.1fs", time.Since(m.recordingStart).Seconds())) + "\n")
	case m.busy:
		b.WriteString("  " + statusBusyStyle.Render("◌ "+m.status) + "\n")
	default:
		b.WriteString("  " + statusIdleStyle.Render("○ "+m.status) + "\n")
	}

	// Level meter, only meaningful while recording
	b.WriteString("  " + renderMeter(m.levelDB, m.state == tuiStateRecording) + "\n")

	if m.noVoice {
		b.WriteString("  " + warnStyle.Render("⚠ no voice detected") + "\n")
	} else {
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.modeLine != "" {
		b.WriteString("  " + dimStyle.Render(m.modeLine) + "\n")
	}
	if m.deviceLine != "" {
		b.WriteString("  " + grayStyle.Render(m.deviceLine) + "\n")
	}

	// Scratch area: last inserted text
	b.WriteString("\n")
	if m.lastText != "" {
		b.WriteString("  " + titleStyle.Render(fmt.Sprintf("Last transcription (#%d)", m.msgCount)) + "\n\n")
		wrapWidth := m.width - 4
		if wrapWidth < 10 {
			wrapWidth = 10
		}
		for _, line := range wrapText(m.lastText, wrapWidth) {
			b.WriteString("  " + textStyle.Render(line) + "\n")
		}
	} else {
		b.WriteString("  " + grayStyle.Render("No transcriptions yet") + "\n")
	}

	// Help footer
	b.WriteString("\n")
	b.WriteString("  " + helpBoldStyle.Render("Hold Ctrl+Shift+Space") + helpStyle.Render(" to record, release to insert") + "\n")
	b.WriteString("  " + helpStyle.Render("Transcribed text is pasted at the cursor of the focused window") + "\n")
	b.WriteString("  " + helpStyle.Render("voicekey "+version) + "\n")

	return b.String()
}

const meterWidth = 30

// renderMeter maps dBFS in LevelFloorDB..0 onto a fixed-width bar. The
// top quarter of the bar renders hot to flag near-clipping input.
func renderMeter(db float64, active bool) string {
	frac := (db - audio.LevelFloorDB) / -audio.LevelFloorDB
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	lit := int(frac * meterWidth)

	var b strings.Builder
	for i := 0; i < meterWidth; i++ {
		switch {
		case !active || i >= lit:
			b.WriteString(meterOffStyle.Render("▁"))
		case i >= meterWidth*3/4:
			b.WriteString(meterHotStyle.Render("▇"))
		default:
			b.WriteString(meterOnStyle.Render("▇"))
		}
	}
	if active {
		return b.String() + grayStyle.Render(fmt.Sprintf(" %5.1f dB", db))
	}
	return b.String()
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}
