package yml

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type (
	// Node wraps yaml.Node with navigation helpers
	Node yaml.Node
	// Nodes represents mapping or sequence content
	Nodes []*yaml.Node
)

// LookupValueNode returns value node of a mapping key, keys match case-insensitively
func (n Nodes) LookupValueNode(name string) *yaml.Node {
	for i := 0; i+1 < len(n); i += 2 {
		if strings.EqualFold(n[i].Value, name) {
			return n[i+1]
		}
	}
	return nil
}

// Root returns the document content node
func (n *Node) Root() *Node {
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		return (*Node)(n.Content[0])
	}
	return n
}

// Lookup returns value node of a mapping key or nil
func (n *Node) Lookup(name string) *Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	return (*Node)(Nodes(n.Content).LookupValueNode(name))
}

// Has reports whether a mapping defines key
func (n *Node) Has(name string) bool {
	return n.Lookup(name) != nil
}

// Items iterates sequence items
func (n *Node) Items(callback func(index int, node *Node) error) error {
	for i := 0; i < len(n.Content); i++ {
		if err := callback(i, (*Node)(n.Content[i])); err != nil {
			return err
		}
	}
	return nil
}

// Pairs iterates mapping entries in declaration order
func (n *Node) Pairs(callback func(key string, node *Node) error) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := callback(n.Content[i].Value, (*Node)(n.Content[i+1])); err != nil {
			return err
		}
	}
	return nil
}

// Decode decodes node into value
func (n *Node) Decode(value interface{}) error {
	return (*yaml.Node)(n).Decode(value)
}

// Interface converts node to plain Go values
func (n *Node) Interface() interface{} {
	switch n.Kind {
	case yaml.DocumentNode:
		return n.Root().Interface()
	case yaml.AliasNode:
		if n.Alias != nil {
			return (*Node)(n.Alias).Interface()
		}
		return nil
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!bool":
			return strings.EqualFold(n.Value, "true")
		case "!!null":
			return nil
		case "!!float":
			if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
				return f
			}
		case "!!int":
			if i, err := strconv.Atoi(n.Value); err == nil {
				return i
			}
		}
		return n.Value
	case yaml.MappingNode:
		aMap := make(map[string]interface{}, len(n.Content)/2)
		_ = n.Pairs(func(key string, value *Node) error {
			aMap[key] = value.Interface()
			return nil
		})
		return aMap
	case yaml.SequenceNode:
		aSlice := make([]interface{}, 0, len(n.Content))
		_ = n.Items(func(_ int, value *Node) error {
			aSlice = append(aSlice, value.Interface())
			return nil
		})
		return aSlice
	}
	return nil
}

// Strings returns scalar or sequence of scalars as strings
func (n *Node) Strings() []string {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Value == "" {
			return nil
		}
		var ret []string
		for _, item := range strings.Split(n.Value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				ret = append(ret, item)
			}
		}
		return ret
	case yaml.SequenceNode:
		ret := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			ret = append(ret, item.Value)
		}
		return ret
	}
	return nil
}
