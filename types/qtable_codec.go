package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path"
)

// ErrMalformedTable is returned when persisted table data cannot be read back
var ErrMalformedTable = errors.New("malformed persisted table")

// Serialize renders the table as a JSON object that maps the tuple form of
// every state key to its action values. Keys are written in sorted order.
// JSON has no NaN or infinity, so a table holding one cannot be serialized;
// learning parameters outside [0, 1] can produce such values.
func (q *QTable) Serialize() ([]byte, error) {
	out := make(map[string][]float64, len(q.table))
	for k, row := range q.table {
		for a, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("serializing q-table: state %s action %d holds %v", k, a, v)
			}
		}
		out[k.String()] = row
	}
	bs, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("serializing q-table: %w", err)
	}
	return bs, nil
}

// Deserialize replaces the content of the table with the serialized data.
// Nothing is changed when any key or row cannot be parsed. An empty table
// adopts the action space of the data.
func (q *QTable) Deserialize(data []byte) error {
	raw := make(map[string][]float64)
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding q-table: %v: %w", err, ErrMalformedTable)
	}
	return q.replace(raw)
}

// replace validates the rows and swaps them in, all or nothing
func (q *QTable) replace(rows map[string][]float64) error {
	actions := q.actions
	if len(q.table) == 0 && actions == 0 {
		actions = -1
	}
	table := make(map[StateKey][]float64, len(rows))
	for k, row := range rows {
		key, err := ParseKey(k)
		if err != nil {
			return err
		}
		if actions < 0 {
			actions = len(row)
		}
		if len(row) != actions {
			return fmt.Errorf("state %s has %d action values, expected %d: %w", k, len(row), actions, ErrMalformedTable)
		}
		if _, ok := table[key]; ok {
			return fmt.Errorf("state %s stored twice: %w", k, ErrMalformedTable)
		}
		table[key] = row
	}
	if actions >= 0 {
		q.actions = actions
	}
	q.table = table
	return nil
}

// Save writes the serialized table to a file, creating parent folders
func (q *QTable) Save(filePath string) error {
	bs, err := q.Serialize()
	if err != nil {
		return err
	}
	if dir := path.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return err
		}
	}
	return os.WriteFile(filePath, bs, 0644)
}

// Load replaces the table content with the file content
func (q *QTable) Load(filePath string) error {
	bs, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return q.Deserialize(bs)
}

// LoadQTable reads a table from file, taking the action space from the data
func LoadQTable(filePath string) (*QTable, error) {
	q := NewQTable(0)
	if err := q.Load(filePath); err != nil {
		return nil, err
	}
	return q, nil
}
