package application

var statuses = map[Status]bool{
	StatusPending:            true,
	StatusUnderReview:        true,
	StatusInterviewScheduled: true,
	StatusFinalReview:        true,
	StatusAccepted:           true,
	StatusDeclined:           true,
	StatusWaitlisted:         true,
}

func (s Status) Valid() bool {
	return statuses[s]
}

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusDeclined
}

// CanTransition reports whether an application in from may move to to.
// The review pipeline is usually walked in order, but staff may jump to any
// status, including a decision, until a decision has been made.
func CanTransition(from, to Status) bool {
	return from.Valid() && to.Valid() && from != to && !from.Terminal()
}
