package blocks

import "github.com/santiagomed/pagegen/placeholder"

// SubstituteValue returns a copy of v with every string resolved against ctx.
// Numbers, booleans and null are returned unchanged.
func SubstituteValue(v Value, ctx map[string]string) Value {
	switch v.typ {
	case TypeString:
		return String(placeholder.Resolve(v.str, ctx))
	case TypeArray:
		items := make([]Value, len(v.arr))
		for i, item := range v.arr {
			items[i] = SubstituteValue(item, ctx)
		}
		return Array(items...)
	case TypeObject:
		return ObjectValue(substituteObject(v.obj, ctx))
	default:
		return v
	}
}

func substituteObject(o *Object, ctx map[string]string) *Object {
	out := NewObject()
	if o == nil {
		return out
	}
	for pair := o.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, SubstituteValue(pair.Value, ctx))
	}
	return out
}

// Substitute returns a new node with placeholders resolved in its attributes
// and in every descendant. n itself is left untouched.
func (n *Node) Substitute(ctx map[string]string) *Node {
	return &Node{
		Kind:       n.Kind,
		Attributes: substituteObject(n.Attributes, ctx),
		Children:   Substitute(n.Children, ctx),
	}
}

// Substitute resolves placeholders across a whole tree.
func Substitute(nodes []*Node, ctx map[string]string) []*Node {
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Substitute(ctx)
	}
	return out
}

// Placeholders lists every placeholder name referenced by string attributes in the tree.
func Placeholders(nodes []*Node) []string {
	seen := map[string]bool{}
	var keys []string
	collect := func(s string) {
		for _, k := range placeholder.Keys(s) {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	Walk(nodes, func(n *Node, _ int) bool {
		if n.Attributes != nil {
			visitStrings(ObjectValue(n.Attributes), collect)
		}
		return true
	})
	return keys
}

func visitStrings(v Value, fn func(string)) {
	switch v.typ {
	case TypeString:
		fn(v.str)
	case TypeArray:
		for _, item := range v.arr {
			visitStrings(item, fn)
		}
	case TypeObject:
		for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
			visitStrings(pair.Value, fn)
		}
	}
}
