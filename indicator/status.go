package indicator

import (
	"strings"

	"voicemode/hotkey"
	"voicemode/state"
)

// Hint tells the user how to start dictating in the given hotkey mode.
func Hint(mode string, c hotkey.Combo) string {
	label := c.Label()
	switch mode {
	case "toggle":
		return "Press " + label + " to record"
	case "hybrid":
		return "Tap or hold " + label + " to record"
	}
	return "Hold " + label + " to record"
}

// Help is the usage text behind the Help menu entry.
func Help(mode string, c hotkey.Combo, configPath string) string {
	lines := []string{
		Hint(mode, c) + ". The text is copied to the clipboard when you stop.",
		"Pause releases the hotkey until you resume.",
		"Copy Last Transcription puts the previous result back on the clipboard.",
	}
	if configPath != "" {
		lines = append(lines, "Settings: "+configPath)
	}
	return strings.Join(lines, "\n")
}

// Status is the one-line status shown in the menu and the terminal.
func Status(s state.AppState, errMsg, hint string) string {
	switch s {
	case state.Idle:
		if hint != "" {
			return hint
		}
	case state.Error:
		if errMsg != "" {
			return "Error: " + errMsg
		}
	}
	return s.Description()
}

// Menu is the enabled/label state of every menu entry for one app state.
type Menu struct {
	Status        string
	RecordLabel   string
	RecordEnabled bool
	PauseLabel    string
	PauseEnabled  bool
	ShowDismiss   bool
	CopyEnabled   bool
}

func MenuFor(s state.AppState, status string, hasLast bool) Menu {
	m := Menu{
		Status:      status,
		RecordLabel: "Start Dictation",
		PauseLabel:  "Pause",
		ShowDismiss: s == state.Error,
		CopyEnabled: hasLast,
	}
	switch s {
	case state.Idle:
		m.RecordEnabled = true
		m.PauseEnabled = true
	case state.Recording:
		m.RecordLabel = "Stop Dictation"
		m.RecordEnabled = true
		m.PauseEnabled = true
	case state.Paused:
		m.PauseLabel = "Resume"
		m.PauseEnabled = true
	case state.Error:
		m.PauseEnabled = true
	}
	return m
}
