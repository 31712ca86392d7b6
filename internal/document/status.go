package document

type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

var transitions = map[Status][]Status{
	StatusQueued:     {StatusInProgress},
	StatusInProgress: {StatusDone, StatusFailed},
}

func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusInProgress, StatusDone, StatusFailed:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// CanTransition reports whether a task may move from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, to := range transitions[s] {
		if to == next {
			return true
		}
	}
	return false
}
