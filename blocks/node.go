// Package blocks models WordPress block trees and fills their placeholders.
package blocks

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santiagomed/pagegen/errs"
)

// Attributes is the ordered attribute mapping of a block.
type Attributes = Object

// Node is one block of a template tree.
type Node struct {
	Kind       string
	Attributes *Attributes
	Children   []*Node
}

// NewNode returns a node with empty attributes and no children.
func NewNode(kind string) *Node {
	return &Node{Kind: kind, Attributes: NewObject(), Children: []*Node{}}
}

// Attr returns the attribute stored under key.
func (n *Node) Attr(key string) (Value, bool) {
	if n.Attributes == nil {
		return Value{}, false
	}
	return n.Attributes.Get(key)
}

// SetAttr stores an attribute, keeping the position of an existing key.
func (n *Node) SetAttr(key string, v Value) *Node {
	if n.Attributes == nil {
		n.Attributes = NewObject()
	}
	n.Attributes.Set(key, v)
	return n
}

// Append adds children and returns n.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n *Node) encode(buf *bytes.Buffer) error {
	name, err := json.Marshal(n.Kind)
	if err != nil {
		return err
	}
	buf.WriteString(`{"blockName":`)
	buf.Write(name)
	buf.WriteString(`,"attrs":`)
	if err := encodeObject(buf, n.Attributes); err != nil {
		return err
	}
	buf.WriteString(`,"innerBlocks":[`)
	for i, child := range n.Children {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := child.encode(buf); err != nil {
			return err
		}
	}
	buf.WriteString("]}")
	return nil
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	node, err := nodeFromValue(v, "$")
	if err != nil {
		return err
	}
	*n = *node
	return nil
}

// Marshal encodes a tree as a JSON array of blocks.
func Marshal(nodes []*Node) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, n := range nodes {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := n.encode(&buf); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// Parse decodes a block tree. The document is either an array of blocks or a
// single block object. Any malformed input is a validation error.
func Parse(data []byte) ([]*Node, error) {
	if err := ValidateTree(data); err != nil {
		return nil, err
	}

	var root Value
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, invalidTree(err)
	}

	switch root.Type() {
	case TypeObject:
		node, err := nodeFromValue(root, "$")
		if err != nil {
			return nil, invalidTree(err)
		}
		return []*Node{node}, nil
	case TypeArray:
		nodes := make([]*Node, 0, len(root.Items()))
		for i, item := range root.Items() {
			node, err := nodeFromValue(item, fmt.Sprintf("$[%d]", i))
			if err != nil {
				return nil, invalidTree(err)
			}
			nodes = append(nodes, node)
		}
		return nodes, nil
	default:
		return nil, invalidTree(fmt.Errorf("expected array or object, got %s", typeName(root.Type())))
	}
}

func invalidTree(err error) error {
	return errs.Validation(errs.CodeTemplateValidationFailed, "Template block structure is invalid.", err)
}

func nodeFromValue(v Value, path string) (*Node, error) {
	obj := v.Object()
	if obj == nil {
		return nil, fmt.Errorf("%s: block must be an object", path)
	}

	nameVal, ok := obj.Get("blockName")
	if !ok {
		return nil, fmt.Errorf("%s: missing blockName", path)
	}
	name, ok := nameVal.Str()
	if !ok || name == "" {
		return nil, fmt.Errorf("%s: blockName must be a non-empty string", path)
	}
	node := NewNode(name)

	if attrs, ok := obj.Get("attrs"); ok {
		switch attrs.Type() {
		case TypeObject:
			node.Attributes = attrs.Object()
		case TypeNull:
		case TypeArray:
			// WordPress stores an empty attribute map as [].
			if len(attrs.Items()) != 0 {
				return nil, fmt.Errorf("%s.attrs: must be an object", path)
			}
		default:
			return nil, fmt.Errorf("%s.attrs: must be an object", path)
		}
	}

	if inner, ok := obj.Get("innerBlocks"); ok && !inner.IsNull() {
		if inner.Type() != TypeArray {
			return nil, fmt.Errorf("%s.innerBlocks: must be an array", path)
		}
		for i, item := range inner.Items() {
			child, err := nodeFromValue(item, fmt.Sprintf("%s.innerBlocks[%d]", path, i))
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
		}
	}
	return node, nil
}

// Walk visits every node depth-first. Returning false skips the node's children.
func Walk(nodes []*Node, fn func(n *Node, depth int) bool) {
	walk(nodes, 0, fn)
}

func walk(nodes []*Node, depth int, fn func(n *Node, depth int) bool) {
	for _, n := range nodes {
		if fn(n, depth) {
			walk(n.Children, depth+1, fn)
		}
	}
}

func typeName(t Type) string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeBool:
		return "boolean"
	case TypeArray:
		return "array"
	case TypeObject:
		return "object"
	default:
		return "null"
	}
}
