package types

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxKeyParts is the largest tuple a StateKey can hold
const MaxKeyParts = 4

// StateKey is a discrete state used to index a QTable, a tuple of integers.
// The way level learner uses (way), the route level learner
// (route, deviation, scenario). StateKey is comparable and can be used as a map key.
type StateKey struct {
	n     uint8
	parts [MaxKeyParts]int64
}

// Key builds a state key out of the parts.
// Panics with more than MaxKeyParts parts.
func Key(parts ...int64) StateKey {
	if len(parts) > MaxKeyParts {
		panic(fmt.Sprintf("state key with %d parts, at most %d supported", len(parts), MaxKeyParts))
	}
	k := StateKey{n: uint8(len(parts))}
	copy(k.parts[:], parts)
	return k
}

// Len returns the number of parts
func (k StateKey) Len() int {
	return int(k.n)
}

// Part returns the i-th part
func (k StateKey) Part(i int) int64 {
	return k.parts[i]
}

// Parts returns a copy of the tuple
func (k StateKey) Parts() []int64 {
	out := make([]int64, k.n)
	copy(out, k.parts[:k.n])
	return out
}

// Less orders keys part by part, shorter keys first on a common prefix
func (k StateKey) Less(other StateKey) bool {
	for i := 0; i < int(k.n) && i < int(other.n); i++ {
		if k.parts[i] != other.parts[i] {
			return k.parts[i] < other.parts[i]
		}
	}
	return k.n < other.n
}

// String renders the key as a tuple: "(1, 0, 2)", "(5,)" or "()"
func (k StateKey) String() string {
	switch k.n {
	case 0:
		return "()"
	case 1:
		return "(" + strconv.FormatInt(k.parts[0], 10) + ",)"
	}
	s := make([]string, k.n)
	for i := 0; i < int(k.n); i++ {
		s[i] = strconv.FormatInt(k.parts[i], 10)
	}
	return "(" + strings.Join(s, ", ") + ")"
}

// ParseKey reads a key rendered by String. Whitespace is ignored.
func ParseKey(s string) (StateKey, error) {
	compact := strings.Join(strings.Fields(s), "")
	if len(compact) < 2 || compact[0] != '(' || compact[len(compact)-1] != ')' {
		return StateKey{}, fmt.Errorf("state key %q is not a tuple: %w", s, ErrMalformedTable)
	}
	inner := compact[1 : len(compact)-1]
	if inner == "" {
		return Key(), nil
	}
	fields := strings.Split(inner, ",")
	// a single element tuple carries a trailing comma
	if len(fields) == 2 && fields[1] == "" {
		fields = fields[:1]
	}
	if len(fields) > MaxKeyParts {
		return StateKey{}, fmt.Errorf("state key %q has more than %d parts: %w", s, MaxKeyParts, ErrMalformedTable)
	}
	parts := make([]int64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return StateKey{}, fmt.Errorf("state key %q part %d: %w", s, i, ErrMalformedTable)
		}
		parts[i] = v
	}
	return Key(parts...), nil
}
