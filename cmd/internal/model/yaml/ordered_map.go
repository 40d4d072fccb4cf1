package yaml

import (
	"fmt"
	"gopkg.in/yaml.v3"
)

// OrderedMap is a YAML mapping that keeps its keys in insertion order. Config repository documents are read
// by people, so materials and variables are written in the order the server returned them.
type OrderedMap[T any] struct {
	keys   []string
	values map[string]T
}

func (m *OrderedMap[T]) Set(key string, value T) {
	if m.values == nil {
		m.values = map[string]T{}
	}

	if _, found := m.values[key]; !found {
		m.keys = append(m.keys, key)
	}

	m.values[key] = value
}

func (m *OrderedMap[T]) Get(key string) (T, bool) {
	value, found := m.values[key]
	return value, found
}

func (m *OrderedMap[T]) Keys() []string {
	return m.keys
}

func (m *OrderedMap[T]) Len() int {
	return len(m.keys)
}

// IsZero lets omitempty drop empty maps.
func (m OrderedMap[T]) IsZero() bool {
	return len(m.keys) == 0
}

func (m OrderedMap[T]) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	for _, key := range m.keys {
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(m.values[key]); err != nil {
			return nil, err
		}

		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, valueNode)
	}

	return node, nil
}

func (m *OrderedMap[T]) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", value.Line)
	}

	for i := 0; i+1 < len(value.Content); i += 2 {
		var item T
		if err := value.Content[i+1].Decode(&item); err != nil {
			return err
		}

		m.Set(value.Content[i].Value, item)
	}

	return nil
}
