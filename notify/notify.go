// Package notify posts desktop notifications.
package notify

import (
	"sync"

	"github.com/gen2brain/beeep"
)

// Desktop shows notifications through the OS notification center.
type Desktop struct {
	icon any
}

func New(appName string, icon any) *Desktop {
	beeep.AppName = appName
	return &Desktop{icon: icon}
}

// Notify folds subtitle into the title, since not every platform
// notification has a separate subtitle line.
func (d *Desktop) Notify(title, subtitle, message string) error {
	return beeep.Notify(Title(title, subtitle), message, d.icon)
}

func Title(title, subtitle string) string {
	switch {
	case subtitle == "":
		return title
	case title == "":
		return subtitle
	}
	return title + ": " + subtitle
}

type Notification struct {
	Title    string
	Subtitle string
	Message  string
}

// Recorder keeps notifications in memory instead of showing them.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

// FailWith makes Notify return err after recording the call.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func (r *Recorder) Notify(title, subtitle, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Notification{title, subtitle, message})
	return r.err
}

func (r *Recorder) Sent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.sent...)
}
