//go:build gui

package gui

import (
	"context"
	"net/url"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/go-gl/glfw/v3.3/glfw"

	"voicemode/indicator"
	"voicemode/log"
	"voicemode/state"
	"voicemode/uibridge"
)

const appID = "com.voicemode.app"

// Controller is what the menu drives. Every method may be called on the
// UI goroutine, so none of them may block on a transcription.
type Controller interface {
	State() state.AppState
	Status() string
	HasLast() bool
	ToggleRecording()
	TogglePause()
	Dismiss()
	CopyLast()
	LaunchAtLogin() bool
	SetLaunchAtLogin(on bool)
	Preferences() (string, error)
	Help() string
	Quit()
}

type App struct {
	ctrl    Controller
	bridge  *uibridge.Bridge
	onReady func()

	fyneApp fyne.App
	desk    desktop.App
	window  fyne.Window
	meter   *Meter
	posX    int
	posY    int

	menu      *fyne.Menu
	status    *fyne.MenuItem
	record    *fyne.MenuItem
	pause     *fyne.MenuItem
	dismiss   *fyne.MenuItem
	copyLast  *fyne.MenuItem
	login     *fyne.MenuItem
	iconState state.AppState
}

func NewApp(ctrl Controller, bridge *uibridge.Bridge, onReady func()) *App {
	return &App{ctrl: ctrl, bridge: bridge, onReady: onReady, iconState: -1}
}

// Run takes over the calling (main) goroutine until Quit.
func Run(a *App) error {
	a.fyneApp = app.NewWithID(appID)
	a.fyneApp.Settings().SetTheme(meterTheme{})

	if desk, ok := a.fyneApp.(desktop.App); ok {
		a.desk = desk
		a.buildMenu()
		desk.SetSystemTrayMenu(a.menu)
		a.refreshMenu()
	}

	var screenW, screenH int
	if monitor := glfw.GetPrimaryMonitor(); monitor != nil {
		_, _, screenW, screenH = monitor.GetWorkarea()
	} else {
		screenW, screenH = 1920, 1080
	}

	if drv, ok := a.fyneApp.Driver().(desktop.Driver); ok {
		a.window = drv.CreateSplashWindow()
	} else {
		a.window = a.fyneApp.NewWindow("Voice Mode")
	}
	a.meter = NewMeter()
	a.window.SetContent(a.meter)
	a.window.SetFixedSize(true)
	a.window.SetPadded(false)
	size := a.meter.MinSize()
	a.window.Resize(size)

	// bottom-center, clear of the dock
	a.posX = (screenW - int(size.Width)) / 2
	a.posY = screenH - int(size.Height) - 20

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.bridge.Poll(ctx, uibridge.DefaultInterval, func(ops uibridge.Ops) {
		fyne.Do(func() { a.apply(ops) })
	})

	go a.onReady()

	// the indicator stays hidden until the first recording
	a.fyneApp.Run()
	return nil
}

func (a *App) buildMenu() {
	a.status = fyne.NewMenuItem(a.ctrl.Status(), nil)
	a.status.Disabled = true
	a.record = fyne.NewMenuItem("Start Dictation", a.ctrl.ToggleRecording)
	a.pause = fyne.NewMenuItem("Pause", a.ctrl.TogglePause)
	a.dismiss = fyne.NewMenuItem("Dismiss Error", a.ctrl.Dismiss)
	a.copyLast = fyne.NewMenuItem("Copy Last Transcription", a.ctrl.CopyLast)
	a.login = fyne.NewMenuItem("Launch at Login", func() {
		a.ctrl.SetLaunchAtLogin(!a.ctrl.LaunchAtLogin())
		a.refreshMenu()
	})
	prefs := fyne.NewMenuItem("Preferences...", a.openPreferences)
	help := fyne.NewMenuItem("Help", func() {
		a.fyneApp.SendNotification(fyne.NewNotification("Voice Mode Help", a.ctrl.Help()))
	})
	quit := fyne.NewMenuItem("Quit Voice Mode", func() {
		a.ctrl.Quit()
		a.fyneApp.Quit()
	})
	quit.IsQuit = true

	a.menu = fyne.NewMenu("Voice Mode",
		a.status,
		fyne.NewMenuItemSeparator(),
		a.record,
		a.pause,
		a.dismiss,
		a.copyLast,
		fyne.NewMenuItemSeparator(),
		a.login,
		prefs,
		help,
		fyne.NewMenuItemSeparator(),
		quit,
	)
}

// openPreferences hands settings.yaml to the system's default editor.
func (a *App) openPreferences() {
	path, err := a.ctrl.Preferences()
	if err != nil {
		log.Errorf("preferences: %v", err)
		return
	}
	if err := a.fyneApp.OpenURL(&url.URL{Scheme: "file", Path: path}); err != nil {
		log.Errorf("open %s: %v", path, err)
	}
}

// Refresh re-reads the controller. Safe from any goroutine.
func (a *App) Refresh() {
	fyne.Do(a.refreshMenu)
}

func (a *App) refreshMenu() {
	if a.menu == nil {
		return
	}
	s := a.ctrl.State()
	m := indicator.MenuFor(s, a.ctrl.Status(), a.ctrl.HasLast())

	a.status.Label = m.Status
	a.record.Label = m.RecordLabel
	a.record.Disabled = !m.RecordEnabled
	a.pause.Label = m.PauseLabel
	a.pause.Disabled = !m.PauseEnabled
	a.dismiss.Disabled = !m.ShowDismiss
	a.copyLast.Disabled = !m.CopyEnabled
	a.login.Checked = a.ctrl.LaunchAtLogin()
	a.menu.Refresh()

	if s != a.iconState {
		a.iconState = s
		a.desk.SetSystemTrayIcon(fyne.NewStaticResource("tray-"+s.String()+".png", indicator.TrayIcon(s)))
	}
}

func (a *App) apply(ops uibridge.Ops) {
	if a.window == nil {
		return
	}
	if ops.Show {
		a.meter.SetActive(true)
		a.show()
	}
	if ops.Hide {
		a.meter.SetActive(false)
		a.window.Hide()
	}
	if ops.HasLevel {
		a.meter.SetLevel(ops.Level)
	}
}

func (a *App) show() {
	// configure before showing so the indicator never steals focus
	if w := glfw.GetCurrentContext(); w != nil {
		w.SetPos(a.posX, a.posY)
		w.SetAttrib(glfw.FocusOnShow, glfw.False)
		w.SetAttrib(glfw.Floating, glfw.True)
		w.Show()
		return
	}
	a.window.Show()
}

func (a *App) Quit() {
	if a.fyneApp != nil {
		fyne.Do(a.fyneApp.Quit)
	}
}
