// Package deadline tracks application deadlines of saved programs and turns
// them into notifications.
package deadline

import (
	"math"
	"time"
)

type Urgency string

const (
	UrgencyRolling Urgency = "rolling"
	UrgencyExpired Urgency = "expired"
	UrgencyUrgent  Urgency = "urgent"
	UrgencyWarning Urgency = "warning"
	UrgencyActive  Urgency = "active"
)

const day = 24 * time.Hour

// Evaluation is the state of one deadline at one instant.
type Evaluation struct {
	Due      bool
	DaysLeft *int
	Urgency  Urgency
	Overdue  bool
}

// DaysLeft is the number of whole days until deadline, rounded up, so any
// part of a remaining day counts as a day.
func DaysLeft(now, deadline time.Time) int {
	return int(math.Ceil(float64(deadline.Sub(now)) / float64(day)))
}

// Evaluate classifies deadline at now. An alert is due only when the day
// count equals one of offsets exactly; overdue does not depend on offsets.
func Evaluate(now time.Time, deadline time.Time, rolling bool, offsets []int) Evaluation {
	if rolling {
		return Evaluation{Urgency: UrgencyRolling}
	}
	d := DaysLeft(now, deadline)
	ev := Evaluation{
		DaysLeft: &d,
		Urgency:  classify(d),
		Overdue:  d < 0,
	}
	for _, o := range offsets {
		if d == o {
			ev.Due = true
			break
		}
	}
	return ev
}

func classify(daysLeft int) Urgency {
	switch {
	case daysLeft < 0:
		return UrgencyExpired
	case daysLeft <= 7:
		return UrgencyUrgent
	case daysLeft <= 30:
		return UrgencyWarning
	default:
		return UrgencyActive
	}
}
