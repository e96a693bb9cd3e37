package main

// frontend is the display layer: the terminal UI, the menu-bar app, or
// nothing when running headless. Refresh may be called from any
// goroutine, including from inside a state hook.
type frontend interface {
	Refresh()
	Quit()
}

type nopFrontend struct{}

func (nopFrontend) Refresh() {}
func (nopFrontend) Quit()    {}
