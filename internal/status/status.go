// Package status models the order lifecycle as a closed enum with an
// explicit allowed-edges graph. Adding a status without listing its edges
// leaves it unreachable, so gaps show up immediately instead of slipping
// through a blocklist.
package status

import (
	"errors"
	"fmt"
	"strings"
)

// Status is an order lifecycle stage.
type Status string

const (
	Pending   Status = "pending"
	Confirmed Status = "confirmed"
	Preparing Status = "preparing"
	Ready     Status = "ready"
	Delivered Status = "delivered"
	Cancelled Status = "cancelled"
)

// All lists every known status in lifecycle order.
var All = []Status{Pending, Confirmed, Preparing, Ready, Delivered, Cancelled}

// ErrUnknown reports an unrecognized status string.
var ErrUnknown = errors.New("status: unknown status")

// Parse converts a raw string into a Status.
func Parse(s string) (Status, error) {
	candidate := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range All {
		if candidate == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknown, s)
}

// Terminal reports whether the status ends the lifecycle.
func (s Status) Terminal() bool {
	return s == Delivered || s == Cancelled
}

// allowed enumerates every legal transition. delivered keeps only its
// self-edge; cancelled may be reopened to any stage short of delivered.
// Self-edges are legal no-ops (the update path stamps the timestamp but
// skips notification).
var allowed = map[Status]map[Status]bool{
	Pending:   edges(Pending, Confirmed, Preparing, Ready, Delivered, Cancelled),
	Confirmed: edges(Pending, Confirmed, Preparing, Ready, Delivered, Cancelled),
	Preparing: edges(Pending, Confirmed, Preparing, Ready, Delivered, Cancelled),
	Ready:     edges(Pending, Confirmed, Preparing, Ready, Delivered, Cancelled),
	Delivered: edges(Delivered),
	Cancelled: edges(Pending, Confirmed, Preparing, Ready, Cancelled),
}

func edges(targets ...Status) map[Status]bool {
	m := make(map[Status]bool, len(targets))
	for _, t := range targets {
		m[t] = true
	}
	return m
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	targets, ok := allowed[from]
	if !ok {
		return false
	}
	return targets[to]
}
