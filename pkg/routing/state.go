package routing

import "fmt"

type State uint8

const (
	NotStarted State = iota
	Snapping
	Searching
	Found
	NoRoute
	Terminal
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Snapping:
		return "snapping"
	case Searching:
		return "searching"
	case Found:
		return "found"
	case NoRoute:
		return "no_route"
	case Terminal:
		return "terminal"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

var transitions = map[State][]State{
	NotStarted: {Snapping},
	Snapping:   {Searching, Terminal},
	Searching:  {Found, NoRoute, Terminal},
	Found:      {Terminal},
	NoRoute:    {Terminal},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// lifecycle records the states a query went through.
type lifecycle struct {
	state State
	trace []State
}

func newLifecycle() lifecycle {
	return lifecycle{state: NotStarted, trace: []State{NotStarted}}
}

// advance panics on an illegal transition.
func (l *lifecycle) advance(to State) {
	if !canTransition(l.state, to) {
		panic(fmt.Sprintf("routing: illegal query transition %s -> %s", l.state, to))
	}
	l.state = to
	l.trace = append(l.trace, to)
}
