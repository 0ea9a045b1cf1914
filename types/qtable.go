package types

import (
	"math"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// QTable maps a discrete state to the values of every action.
// Rows always hold exactly ActionSpace values; unknown states read as zeros.
type QTable struct {
	actions int
	table   map[StateKey][]float64
}

// NewQTable creates an empty table for the given number of actions
func NewQTable(actions int) *QTable {
	return &QTable{
		actions: actions,
		table:   make(map[StateKey][]float64),
	}
}

// ActionSpace returns the number of actions per state
func (q *QTable) ActionSpace() int {
	return q.actions
}

// Len returns the number of states stored
func (q *QTable) Len() int {
	return len(q.table)
}

// Has reports whether the state was touched before
func (q *QTable) Has(state StateKey) bool {
	_, ok := q.table[state]
	return ok
}

// Get returns the action values of the state, creating a zero row on first access.
// The row is owned by the table.
func (q *QTable) Get(state StateKey) []float64 {
	row, ok := q.table[state]
	if !ok {
		row = make([]float64, q.actions)
		q.table[state] = row
	}
	return row
}

// Row returns a copy of the action values of a stored state without creating it
func (q *QTable) Row(state StateKey) ([]float64, bool) {
	row, ok := q.table[state]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(row))
	copy(out, row)
	return out, true
}

// Value returns the value of a single state/action pair
func (q *QTable) Value(state StateKey, action int) float64 {
	return q.Get(state)[action]
}

// Update sets the value of a state/action pair
func (q *QTable) Update(state StateKey, action int, val float64) {
	q.Get(state)[action] = val
}

// Keys returns the stored states in tuple order
func (q *QTable) Keys() []StateKey {
	keys := maps.Keys(q.table)
	slices.SortFunc(keys, func(a, b StateKey) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	return keys
}

// Predict returns the best action of a state or -1 for states never seen.
// A two part key (route, scenario) is read as (route, 0, scenario).
func (q *QTable) Predict(state StateKey) int {
	if state.Len() == 2 {
		state = Key(state.Part(0), 0, state.Part(1))
	}
	row, ok := q.table[state]
	if !ok {
		return -1
	}
	return Greedy(row, nil)
}

// Equal reports whether both tables hold the same states with exactly equal values
func (q *QTable) Equal(other *QTable) bool {
	if q.actions != other.actions || len(q.table) != len(other.table) {
		return false
	}
	for k, row := range q.table {
		otherRow, ok := other.table[k]
		if !ok {
			return false
		}
		for i := range row {
			if math.Float64bits(row[i]) != math.Float64bits(otherRow[i]) {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy of the table
func (q *QTable) Clone() *QTable {
	c := NewQTable(q.actions)
	for k, row := range q.table {
		r := make([]float64, len(row))
		copy(r, row)
		c.table[k] = r
	}
	return c
}
