package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"voicemode/audio"
)

var (
	errNoDevices    = errors.New("no capture devices found")
	errPickCanceled = errors.New("device selection canceled")
)

type pickAction int

const (
	pickNone pickAction = iota
	pickMove
	pickDone
	pickCancel
)

// devicePicker is the cursor state behind the -setup prompt.
type devicePicker struct {
	names  []string
	cursor int
}

// key applies one read from a raw terminal.
func (p *devicePicker) key(buf []byte) pickAction {
	if len(buf) == 3 && buf[0] == 0x1b && buf[1] == '[' {
		switch buf[2] {
		case 'A':
			return p.move(-1)
		case 'B':
			return p.move(1)
		}
		return pickNone
	}
	if len(buf) != 1 {
		return pickNone
	}
	switch buf[0] {
	case '\r', '\n':
		return pickDone
	case 3, 'q', 0x1b: // ctrl+c
		return pickCancel
	case 'k':
		return p.move(-1)
	case 'j':
		return p.move(1)
	}
	return pickNone
}

func (p *devicePicker) move(d int) pickAction {
	next := min(max(p.cursor+d, 0), len(p.names)-1)
	if next == p.cursor {
		return pickNone
	}
	p.cursor = next
	return pickMove
}

func (p *devicePicker) render(w io.Writer) {
	fmt.Fprint(w, "\r\x1b[J")
	fmt.Fprint(w, "Select input device (↑/↓, Enter to confirm, q to cancel):\r\n\r\n")
	for i, name := range p.names {
		if i == p.cursor {
			fmt.Fprintf(w, "  \x1b[1;36m▶ %s\x1b[0m\r\n", name)
		} else {
			fmt.Fprintf(w, "    %s\r\n", name)
		}
	}
}

func selectDevice(ctx audio.Context) (*audio.DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	switch len(devices) {
	case 0:
		return nil, errNoDevices
	case 1:
		fmt.Printf("Using device: %s\n", devices[0].Name)
		return &devices[0], nil
	}

	p := &devicePicker{names: make([]string, len(devices))}
	for i, d := range devices {
		p.names[i] = d.Name
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	p.render(os.Stdout)
	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		switch p.key(buf[:n]) {
		case pickDone:
			fmt.Print("\r\n")
			return &devices[p.cursor], nil
		case pickCancel:
			fmt.Print("\r\n")
			return nil, errPickCanceled
		case pickMove:
			fmt.Printf("\x1b[%dA", len(p.names)+2)
			p.render(os.Stdout)
		}
	}
}
