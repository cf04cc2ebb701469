package query

// State is the lifecycle position of a query handle.
type State int32

const (
	// Configured is the state of a handle that has not run.
	Configured State = iota
	// Running means workers have been dispatched.
	Running
	// Completed means every element was attempted and none failed.
	Completed
	// Faulted means at least one element failed.
	Faulted
	// Cancelled means the query stopped before draining.
	Cancelled
)

var stateNames = map[State]string{
	Configured: "configured",
	Running:    "running",
	Completed:  "completed",
	Faulted:    "faulted",
	Cancelled:  "cancelled",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether s is final.
func (s State) Terminal() bool {
	return s == Completed || s == Faulted || s == Cancelled
}
