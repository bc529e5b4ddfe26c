package reply

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// droppedTags are removed together with everything inside them
var droppedTags = map[string]bool{
	"script": true,
	"style":  true,
	"iframe": true,
}

// urlAttrs may carry a javascript: URL
var urlAttrs = map[string]bool{
	"href":       true,
	"src":        true,
	"action":     true,
	"formaction": true,
}

// Sanitize removes unsafe and structural markup from a reply fragment and
// upgrades insecure resource URLs. Document wrappers are unwrapped with their
// contents kept. Script, style, iframe and stylesheet link elements go with
// their content, and so do event handler attributes.
func Sanitize(fragment string) string {
	if fragment == "" {
		return "<p></p>"
	}
	root, err := parseFragment(fragment)
	if err == nil {
		sanitizeNode(root)
		var out string
		if out, err = renderChildren(root); err == nil {
			return out
		}
	}
	// Only markup that parsed cleanly is passed through.
	return "<p>" + html.EscapeString(fragment) + "</p>"
}

// parseFragment parses fragment in a body context and returns a detached div
// holding the resulting nodes.
func parseFragment(fragment string) (*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse reply html: %w", err)
	}
	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

func renderChildren(root *html.Node) (string, error) {
	var sb strings.Builder
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return "", fmt.Errorf("failed to render reply html: %w", err)
		}
	}
	return sb.String(), nil
}

// sanitizeNode cleans the attributes of n and walks its children, removing
// unsafe elements and unwrapping elements whose name is not a plain tag name.
func sanitizeNode(n *html.Node) {
	n.Attr = safeAttrs(n.Attr)

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case html.ElementNode:
			switch {
			case droppedElement(c):
				n.RemoveChild(c)
			case !validName(c.Data):
				first := c.FirstChild
				for gc := c.FirstChild; gc != nil; {
					gcNext := gc.NextSibling
					c.RemoveChild(gc)
					n.InsertBefore(gc, c)
					gc = gcNext
				}
				n.RemoveChild(c)
				if first != nil {
					next = first
				}
			default:
				sanitizeNode(c)
			}
		case html.CommentNode:
			n.RemoveChild(c)
		}
		c = next
	}
}

func droppedElement(n *html.Node) bool {
	name := strings.ToLower(n.Data)
	if droppedTags[name] {
		return true
	}
	if name != "link" {
		return false
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, "rel") {
			for _, rel := range strings.Fields(a.Val) {
				if strings.EqualFold(rel, "stylesheet") {
					return true
				}
			}
		}
	}
	return false
}

// safeAttrs drops event handlers, malformed keys and javascript: URLs, and
// rewrites http:// sources to https://.
func safeAttrs(attrs []html.Attribute) []html.Attribute {
	kept := attrs[:0]
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if strings.HasPrefix(key, "on") || !validName(key) {
			continue
		}
		val := strings.TrimSpace(a.Val)
		if urlAttrs[key] && hasPrefixFold(val, "javascript:") {
			continue
		}
		if key == "src" && hasPrefixFold(val, "http://") {
			a.Val = "https://" + val[len("http://"):]
		}
		kept = append(kept, a)
	}
	return kept
}

// validName reports whether s is made of the characters found in real tag and
// attribute names.
func validName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == ':', r == '.':
		default:
			return false
		}
	}
	return true
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
