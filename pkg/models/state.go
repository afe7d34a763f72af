package models

// State is the lifecycle state of a session actor.
type State string

const (
	Init     State = "init"
	Thinking State = "thinking"
	Idle     State = "idle"
	Failed   State = "failed" // dead state
	Finished State = "finished"
)
