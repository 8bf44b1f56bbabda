package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Ordered is a string-keyed map that remembers insertion order. It encodes
// as a JSON object whose keys appear in that order, and decoding preserves
// document order. The zero value is empty and ready to use.
type Ordered[V any] struct {
	keys   []string
	values map[string]V
}

// Len returns the number of entries.
func (o *Ordered[V]) Len() int { return len(o.keys) }

// Keys returns the keys in order.
func (o *Ordered[V]) Keys() []string { return slices.Clone(o.keys) }

// Get returns the value for key.
func (o *Ordered[V]) Get(key string) (V, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Has reports whether key is present.
func (o *Ordered[V]) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Set adds key at the end, or replaces its value in place.
func (o *Ordered[V]) Set(key string, v V) {
	if o.values == nil {
		o.values = make(map[string]V)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Delete removes key and reports whether it was present.
func (o *Ordered[V]) Delete(key string) bool {
	if _, ok := o.values[key]; !ok {
		return false
	}
	delete(o.values, key)
	o.keys = slices.DeleteFunc(o.keys, func(k string) bool { return k == key })
	return true
}

// Clone copies the map, passing each value through cp.
func (o *Ordered[V]) Clone(cp func(V) V) Ordered[V] {
	out := Ordered[V]{
		keys:   slices.Clone(o.keys),
		values: make(map[string]V, len(o.values)),
	}
	for k, v := range o.values {
		out.values[k] = cp(v)
	}
	return out
}

func (o Ordered[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o *Ordered[V]) UnmarshalJSON(data []byte) error {
	*o = Ordered[V]{}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var v V
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		o.Set(key, v)
	}

	_, err = dec.Token()
	return err
}
