package reader

// State is the reveal state of an Engine.
type State int

const (
	Idle State = iota
	Playing
	Paused
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// EventKind names an engine transition.
type EventKind int

const (
	EventLoaded EventKind = iota
	EventStarted
	EventAdvanced
	EventPaused
	EventResumed
	EventFinished
	EventStopped
	EventReset
)

func (k EventKind) String() string {
	switch k {
	case EventLoaded:
		return "loaded"
	case EventStarted:
		return "started"
	case EventAdvanced:
		return "advanced"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	case EventFinished:
		return "finished"
	case EventStopped:
		return "stopped"
	case EventReset:
		return "reset"
	}
	return "unknown"
}

// Event reports a transition along with the session state right after it.
// Start and End bound the visible chunk, end exclusive.
type Event struct {
	Kind     EventKind
	Session  string
	State    State
	Cursor   int
	Start    int
	End      int
	Progress float64
}

// Snapshot is a consistent copy of an engine's session.
type Snapshot struct {
	Session  string
	State    State
	Cursor   int
	Start    int
	End      int
	Chunk    int
	Len      int
	Progress float64
	Config   Config
}
