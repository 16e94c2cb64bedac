package blocks

import (
	"bytes"
	"strings"
)

// Markup serializes a tree into block-comment markup, the form WordPress
// stores in post_content.
func Markup(nodes []*Node) (string, error) {
	var sb strings.Builder
	for i, n := range nodes {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		if err := writeMarkup(&sb, n); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

func writeMarkup(sb *strings.Builder, n *Node) error {
	name := strings.TrimPrefix(n.Kind, "core/")

	attrs := ""
	if n.Attributes != nil && n.Attributes.Len() > 0 {
		var buf bytes.Buffer
		if err := encodeObject(&buf, n.Attributes); err != nil {
			return err
		}
		// "--" would close the surrounding HTML comment.
		attrs = strings.ReplaceAll(buf.String(), "--", `\u002d\u002d`) + " "
	}

	if len(n.Children) == 0 {
		sb.WriteString("<!-- wp:" + name + " " + attrs + "/-->")
		return nil
	}

	sb.WriteString("<!-- wp:" + name + " " + attrs + "-->\n")
	for i, child := range n.Children {
		if i > 0 {
			sb.WriteString("\n")
		}
		if err := writeMarkup(sb, child); err != nil {
			return err
		}
	}
	sb.WriteString("\n<!-- /wp:" + name + " -->")
	return nil
}
