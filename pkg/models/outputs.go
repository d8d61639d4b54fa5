package models

import (
	"encoding/json"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Outputs is an insertion-ordered map of output keys to captured values.
// Keys are only ever added or overwritten.
type Outputs struct {
	values *orderedmap.OrderedMap[string, string]
}

func NewOutputs() *Outputs {
	return &Outputs{values: orderedmap.New[string, string]()}
}

func (o *Outputs) init() {
	if o.values == nil {
		o.values = orderedmap.New[string, string]()
	}
}

// Set adds a key or overwrites its value in place, keeping its original position.
func (o *Outputs) Set(key, value string) {
	o.init()
	o.values.Set(key, value)
}

func (o *Outputs) Get(key string) (string, bool) {
	if o == nil || o.values == nil {
		return "", false
	}

	return o.values.Get(key)
}

func (o *Outputs) Len() int {
	if o == nil || o.values == nil {
		return 0
	}

	return o.values.Len()
}

func (o *Outputs) Keys() []string {
	if o == nil || o.values == nil {
		return nil
	}

	keys := make([]string, 0, o.values.Len())
	for pair := o.values.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}

	return keys
}

// Merge applies the values of a step result. Keys are applied in sorted order
// so that a step producing several keys yields a stable ordering.
func (o *Outputs) Merge(values map[string]string) {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	for _, key := range keys {
		o.Set(key, values[key])
	}
}

// ToMap returns a plain copy suitable for template lookups.
func (o *Outputs) ToMap() map[string]any {
	result := make(map[string]any, o.Len())
	if o == nil || o.values == nil {
		return result
	}

	for pair := o.values.Oldest(); pair != nil; pair = pair.Next() {
		result[pair.Key] = pair.Value
	}

	return result
}

func (o *Outputs) MarshalJSON() ([]byte, error) {
	if o == nil || o.values == nil || o.values.Len() == 0 {
		return []byte("{}"), nil
	}

	return json.Marshal(o.values)
}

func (o *Outputs) UnmarshalJSON(data []byte) error {
	o.values = orderedmap.New[string, string]()

	return json.Unmarshal(data, o.values)
}
