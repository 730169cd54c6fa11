package sonic

import "fmt"

// Mode selects the command vocabulary of a channel.
// It is fixed when the channel starts.
type Mode int

const (
	ModeSearch Mode = iota
	ModeIngest
	ModeControl
)

// String returns the name sent in START.
func (m Mode) String() string {
	switch m {
	case ModeSearch:
		return "search"
	case ModeIngest:
		return "ingest"
	case ModeControl:
		return "control"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "search":
		return ModeSearch, nil
	case "ingest":
		return ModeIngest, nil
	case "control":
		return ModeControl, nil
	default:
		return 0, fmt.Errorf("sonic: unknown mode %q", s)
	}
}

// State is the lifecycle position of a channel.
type State int

const (
	StateConnecting State = iota
	StateAwaitingGreeting
	StateNegotiating
	StateAuthenticating
	StateReady
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAwaitingGreeting:
		return "awaiting greeting"
	case StateNegotiating:
		return "negotiating"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}
