package types

// Environment is a discrete task a tabular agent learns on.
// States are StateKeys and actions are indices into the table rows.
type Environment interface {
	// ActionSpace is the length of a table row
	ActionSpace() int
	// Reset starts a new episode and returns the initial state
	Reset() (StateKey, error)
	// Step applies the action and returns the next state, the reward
	// and whether the episode terminated
	Step(int) (StateKey, float64, bool, error)
	// ValidActions lists the actions allowed in the current state
	ValidActions() []int
}
