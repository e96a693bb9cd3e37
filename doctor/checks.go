package doctor

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrPermission = errors.New("permission check failed")

type Status int

const (
	Unknown Status = iota
	Granted
	Denied
)

func (s Status) String() string {
	switch s {
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	}
	return "unknown"
}

type Check struct {
	Name   string
	Status Status
	Detail string
}

func (c Check) String() string {
	if c.Detail == "" {
		return fmt.Sprintf("%s: %s", c.Name, c.Status)
	}
	return fmt.Sprintf("%s: %s (%s)", c.Name, c.Status, c.Detail)
}

// Policy decides how checks that could not be determined are treated.
type Policy int

const (
	FailClosed Policy = iota // Unknown blocks startup
	FailOpen                 // Unknown is logged and ignored
)

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail_closed", "closed":
		return FailClosed, nil
	case "fail_open", "open":
		return FailOpen, nil
	}
	return FailClosed, fmt.Errorf("unknown permissions policy %q", s)
}

func (p Policy) String() string {
	if p == FailOpen {
		return "fail_open"
	}
	return "fail_closed"
}

// Evaluate returns nil when every check passes under p, otherwise an
// error wrapping ErrPermission that names each failing check.
func Evaluate(checks []Check, p Policy) error {
	var failed []string
	for _, c := range checks {
		switch {
		case c.Status == Denied:
		case c.Status == Unknown && p == FailClosed:
		default:
			continue
		}
		failed = append(failed, c.String())
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrPermission, strings.Join(failed, "; "))
}

// Probe runs fn and classifies the outcome. A probe that has not
// returned within timeout is Unknown; platform permission prompts can
// block indefinitely.
func Probe(name string, timeout time.Duration, fn func() (string, error)) Check {
	type result struct {
		detail string
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		d, err := fn()
		ch <- result{d, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return Check{Name: name, Status: Denied, Detail: r.err.Error()}
		}
		return Check{Name: name, Status: Granted, Detail: r.detail}
	case <-time.After(timeout):
		return Check{Name: name, Status: Unknown, Detail: fmt.Sprintf("no answer after %v", timeout)}
	}
}
