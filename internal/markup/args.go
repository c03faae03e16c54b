package markup

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Args holds directive arguments in declaration order. Setting a key that
// already exists replaces its value in place.
type Args struct {
	keys []string
	vals map[string]string
}

// NewArgs builds Args from alternating key, value pairs.
func NewArgs(kv ...string) *Args {
	a := &Args{}
	for i := 0; i+1 < len(kv); i += 2 {
		a.Set(kv[i], kv[i+1])
	}
	return a
}

// Set stores value under key; a repeated key keeps its first position and
// takes the last value.
func (a *Args) Set(key, value string) {
	if a.vals == nil {
		a.vals = make(map[string]string)
	}
	if _, ok := a.vals[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.vals[key] = value
}

// Get returns the value for key.
func (a *Args) Get(key string) (string, bool) {
	if a == nil {
		return "", false
	}
	v, ok := a.vals[key]
	return v, ok
}

// Value returns the value for key, or "" when absent.
func (a *Args) Value(key string) string {
	v, _ := a.Get(key)
	return v
}

// Has reports whether key is present.
func (a *Args) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

// First returns the first of keys present, with its value.
func (a *Args) First(keys ...string) (string, string, bool) {
	for _, k := range keys {
		if v, ok := a.Get(k); ok {
			return k, v, true
		}
	}
	return "", "", false
}

// Keys returns the keys in declaration order.
func (a *Args) Keys() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.keys...)
}

// Len returns the number of arguments.
func (a *Args) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Map returns a plain map copy.
func (a *Args) Map() map[string]string {
	m := make(map[string]string, a.Len())
	if a == nil {
		return m
	}
	for _, k := range a.keys {
		m[k] = a.vals[k]
	}
	return m
}

// Clone returns an independent copy.
func (a *Args) Clone() *Args {
	c := &Args{}
	if a == nil {
		return c
	}
	for _, k := range a.keys {
		c.Set(k, a.vals[k])
	}
	return c
}

// MarshalJSON writes the arguments as an object in declaration order.
func (a *Args) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if a != nil {
		for i, k := range a.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONString(&buf, k); err != nil {
				return nil, err
			}
			buf.WriteByte(':')
			if err := writeJSONString(&buf, a.vals[k]); err != nil {
				return nil, err
			}
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeJSONString writes s as a JSON string without HTML escaping, so
// heading paths keep their '>' separators.
func writeJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}

// MarshalYAML writes the arguments as a mapping in declaration order.
func (a *Args) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if a == nil {
		return node, nil
	}
	for _, k := range a.keys {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: a.vals[k]},
		)
	}
	return node, nil
}
