package types

import (
	"encoding/json"
	"fmt"
)

// Trace of an episode as quadruplets (state, action, reward, nextState)
type Trace struct {
	states     []StateKey
	actions    []int
	rewards    []float64
	nextStates []StateKey
}

func NewTrace() *Trace {
	return &Trace{
		states:     make([]StateKey, 0),
		actions:    make([]int, 0),
		rewards:    make([]float64, 0),
		nextStates: make([]StateKey, 0),
	}
}

func (t *Trace) Append(state StateKey, action int, reward float64, nextState StateKey) {
	t.states = append(t.states, state)
	t.actions = append(t.actions, action)
	t.rewards = append(t.rewards, reward)
	t.nextStates = append(t.nextStates, nextState)
}

func (t *Trace) Len() int {
	return len(t.states)
}

func (t *Trace) Get(i int) (StateKey, int, float64, StateKey, bool) {
	if i < 0 || i >= len(t.states) {
		return StateKey{}, -1, 0, StateKey{}, false
	}
	return t.states[i], t.actions[i], t.rewards[i], t.nextStates[i], true
}

func (t *Trace) Last() (StateKey, int, float64, StateKey, bool) {
	return t.Get(len(t.states) - 1)
}

// Return sums the rewards of the trace
func (t *Trace) Return() float64 {
	total := 0.0
	for _, r := range t.rewards {
		total += r
	}
	return total
}

type traceStep struct {
	State     string  `json:"state"`
	Action    int     `json:"action"`
	Reward    float64 `json:"reward"`
	NextState string  `json:"next_state"`
}

func (t *Trace) MarshalJSON() ([]byte, error) {
	steps := make([]traceStep, t.Len())
	for i := range steps {
		steps[i] = traceStep{
			State:     t.states[i].String(),
			Action:    t.actions[i],
			Reward:    t.rewards[i],
			NextState: t.nextStates[i].String(),
		}
	}
	return json.Marshal(steps)
}

// Rollout follows the greedy action of the table from a fresh episode until
// the episode terminates, no valid action remains or horizon steps were taken.
// The table is not modified.
func Rollout(env Environment, table *QTable, horizon int) (*Trace, error) {
	trace := NewTrace()
	state, err := env.Reset()
	if err != nil {
		return trace, err
	}
	for horizon <= 0 || trace.Len() < horizon {
		valid := env.ValidActions()
		row := make([]float64, table.ActionSpace())
		if table.Has(state) {
			copy(row, table.Get(state))
		}
		action := Greedy(row, valid)
		if action < 0 {
			break
		}
		next, reward, done, err := env.Step(action)
		if err != nil {
			return trace, fmt.Errorf("rollout step %d: %w", trace.Len()+1, err)
		}
		trace.Append(state, action, reward, next)
		if done {
			break
		}
		state = next
	}
	return trace, nil
}
