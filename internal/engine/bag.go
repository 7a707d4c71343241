package engine

import (
	"encoding/json"
	"maps"
	"strconv"
)

// Bag holds the raw backend payload of one state.
type Bag map[string]json.RawMessage

func (b Bag) Has(key string) bool {
	raw, ok := b[key]
	return ok && len(raw) > 0 && string(raw) != "null"
}

// Decode unmarshals key into v and reports whether it was present and valid.
func (b Bag) Decode(key string, v any) bool {
	if !b.Has(key) {
		return false
	}
	return json.Unmarshal(b[key], v) == nil
}

// Int reads a numeric key, or the "id" of an object stored under key.
func (b Bag) Int(key string) int {
	if !b.Has(key) {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(b[key], &n); err == nil {
		if i, err := strconv.Atoi(n.String()); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return int(f)
		}
	}
	var obj struct {
		ID int `json:"id"`
	}
	if json.Unmarshal(b[key], &obj) == nil {
		return obj.ID
	}
	return 0
}

func (b Bag) String(key string) string {
	var s string
	if b.Decode(key, &s) {
		return s
	}
	return ""
}

func (b Bag) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b[key] = raw
	return nil
}

// Merge overwrites the keys present in data and leaves the others alone.
func (b Bag) Merge(data map[string]json.RawMessage) {
	maps.Copy(b, data)
}

func (b Bag) Clone() Bag {
	out := make(Bag, len(b))
	maps.Copy(out, b)
	return out
}

func (b Bag) Keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	return keys
}
