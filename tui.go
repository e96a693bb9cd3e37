package main

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"voicemode/indicator"
	"voicemode/state"
	"voicemode/uibridge"
)

type tuiController interface {
	State() state.AppState
	Status() string
	LastText() string
	NoVoice() bool
	ToggleRecording()
	TogglePause()
	Dismiss()
	CopyLast()
	Quit()
}

type tickMsg time.Time
type refreshMsg struct{}

type tuiModel struct {
	ctrl   tuiController
	bridge *uibridge.Bridge

	frame         int
	level         indicator.Level
	active        bool
	width, height int

	st       state.AppState
	status   string
	lastText string
	noVoice  bool
	modeLine string
	help     string
}

// Pre-computed pixel styles to avoid allocations in render loop
var (
	pixelColorsRec  = [indicator.PaletteSize]string{"", "226", "220", "214", "208", "196", "160", "124", "88", "52", "236", "236", "236", "236", "255", "249"}
	pixelColorsIdle = [indicator.PaletteSize]string{"", "231", "224", "217", "210", "160", "124", "88", "52", "236", "236", "236", "236", "236", "255", "249"}
	pixelStylesRec  [indicator.PaletteSize]lipgloss.Style
	pixelStylesIdle [indicator.PaletteSize]lipgloss.Style
	pixelBgRec      [indicator.PaletteSize][indicator.PaletteSize]lipgloss.Style
	pixelBgIdle     [indicator.PaletteSize][indicator.PaletteSize]lipgloss.Style
)

var stateColors = map[state.AppState]string{
	state.Initializing: "241",
	state.Idle:         "42",
	state.Recording:    "196",
	state.Processing:   "214",
	state.Refining:     "214",
	state.Copying:      "214",
	state.Error:        "201",
	state.Paused:       "245",
}

func init() {
	buildStyles(&pixelColorsRec, &pixelStylesRec, &pixelBgRec)
	buildStyles(&pixelColorsIdle, &pixelStylesIdle, &pixelBgIdle)
}

func buildStyles(colors *[indicator.PaletteSize]string, fg *[indicator.PaletteSize]lipgloss.Style, bg *[indicator.PaletteSize][indicator.PaletteSize]lipgloss.Style) {
	for i, c := range colors {
		if c == "" {
			continue
		}
		fg[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(c))
		for j, b := range colors {
			if b != "" {
				bg[i][j] = lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Background(lipgloss.Color(b))
			}
		}
	}
}

func newTUIModel(ctrl tuiController, bridge *uibridge.Bridge, modeLine string) tuiModel {
	return tuiModel{
		ctrl:     ctrl,
		bridge:   bridge,
		modeLine: modeLine,
		help:     "enter record · p pause · c copy last · r dismiss · q quit",
	}
}

func NewTUIProgram(m tuiModel) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen())
}

// tuiFrontend forwards refreshes into the program. Send blocks until the
// event loop takes the message, so it is never called inline: a refresh
// can originate from a command the loop is waiting on.
type tuiFrontend struct {
	p *tea.Program
}

func (f tuiFrontend) Refresh() { go f.p.Send(refreshMsg{}) }
func (f tuiFrontend) Quit()    { f.p.Quit() }

func tuiTick() tea.Cmd {
	return tea.Tick(uibridge.DefaultInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func refreshCmd() tea.Msg { return refreshMsg{} }

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(tuiTick(), refreshCmd)
}

// async wraps a controller action so it executes off the event loop.
func async(fn func()) tea.Cmd {
	return func() tea.Msg {
		fn()
		return nil
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.ctrl.Quit()
			return m, tea.Quit
		case "enter":
			return m, async(m.ctrl.ToggleRecording)
		case "p":
			return m, async(m.ctrl.TogglePause)
		case "c":
			return m, async(m.ctrl.CopyLast)
		case "r":
			return m, async(m.ctrl.Dismiss)
		}

	case tickMsg:
		m.frame++
		m.apply(m.bridge.Drain())
		return m, tuiTick()

	case refreshMsg:
		m.st = m.ctrl.State()
		m.status = m.ctrl.Status()
		m.lastText = m.ctrl.LastText()
		m.noVoice = m.ctrl.NoVoice()
	}
	return m, nil
}

// apply runs on the event loop, the only place the bridge is drained.
func (m *tuiModel) apply(ops uibridge.Ops) {
	if ops.Show {
		m.active = true
	}
	if ops.Hide {
		m.active = false
		m.level.Reset()
	}
	if ops.HasLevel && m.active {
		m.level.Update(ops.Level)
	}
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	const eyeWidth = indicator.Width + 1
	eye := renderRings(m.frame, m.level.Value(), m.active)

	var info []string
	color := stateColors[m.st]
	info = append(info, lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true).Render("● "+m.status))
	if m.active {
		bar := indicator.Bar(m.level.Value(), 30, '█', '·')
		info = append(info, lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(bar))
		if m.noVoice {
			info = append(info, lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Render("  ⚠ no voice detected"))
		}
	}
	if m.modeLine != "" {
		info = append(info, lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render(m.modeLine))
	}
	info = append(info, "", lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Render(m.help))
	info = append(info, lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Render("voicemode "+version))

	eye += strings.Join(info, "\n")
	eyeLines := strings.Split(eye, "\n")

	logWidth := max(m.width-eyeWidth-1, 20)
	wrapWidth := max(logWidth-2, 10)

	var right strings.Builder
	if m.lastText != "" {
		right.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Render("Last transcription") + "\n\n")
		textStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
		for _, line := range wrapText(m.lastText, wrapWidth) {
			right.WriteString(textStyle.Render(line) + "\n")
		}
	} else {
		right.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("No transcriptions yet"))
	}

	logPanel := lipgloss.NewStyle().
		Width(logWidth).
		Height(m.height).
		PaddingLeft(1).
		Render(right.String())

	padded := make([]string, m.height)
	for i := range padded {
		if i < len(eyeLines) {
			padded[i] = eyeLines[i]
		} else {
			padded[i] = strings.Repeat(" ", eyeWidth-1)
		}
	}
	eyePanel := lipgloss.NewStyle().
		Width(eyeWidth - 1).
		Height(m.height).
		Render(strings.Join(padded, "\n"))

	return lipgloss.JoinHorizontal(lipgloss.Top, eyePanel, logPanel)
}

func renderRings(frame int, level float64, active bool) string {
	styles, bgStyles := &pixelStylesIdle, &pixelBgIdle
	if active {
		styles, bgStyles = &pixelStylesRec, &pixelBgRec
	}

	var b strings.Builder
	for _, row := range indicator.Cells(indicator.Pixels(frame, level, active)) {
		for _, c := range row {
			top, bot := c[0], c[1]
			switch {
			case top == 0 && bot == 0:
				b.WriteString(" ")
			case top == bot:
				b.WriteString(styles[top].Render("█"))
			case bot == 0:
				b.WriteString(styles[top].Render("▀"))
			case top == 0:
				b.WriteString(styles[bot].Render("▄"))
			default:
				b.WriteString(bgStyles[top][bot].Render("▀"))
			}
		}
		b.WriteString("\n")
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
		// last space within width
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
