package core

import "fmt"

// State is the controller's lifecycle state.
type State int

const (
	// StateEmpty means no dataset is loaded. It is the initial state.
	StateEmpty State = iota
	// StateLoaded means a dataset is present and idle.
	StateLoaded
	// StateProcessing means an operation is running against the dataset.
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StateProcessing:
		return "processing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name written by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "empty":
		*s = StateEmpty
	case "loaded":
		*s = StateLoaded
	case "processing":
		*s = StateProcessing
	default:
		return fmt.Errorf("unknown state %q", text)
	}
	return nil
}
