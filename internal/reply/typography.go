package reply

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultFontSize is forced onto replies unless configured otherwise
const DefaultFontSize = "13pt"

// fontSizedTags get an explicit font-size when their style lacks one
var fontSizedTags = map[atom.Atom]bool{
	atom.P:      true,
	atom.Div:    true,
	atom.Span:   true,
	atom.Li:     true,
	atom.Td:     true,
	atom.Th:     true,
	atom.A:      true,
	atom.Strong: true,
	atom.Em:     true,
	atom.B:      true,
	atom.I:      true,
	atom.U:      true,
}

// rawTextTags hold text that is not rendered as markup
var rawTextTags = map[atom.Atom]bool{
	atom.Script:    true,
	atom.Style:     true,
	atom.Textarea:  true,
	atom.Title:     true,
	atom.Xmp:       true,
	atom.Noembed:   true,
	atom.Noframes:  true,
	atom.Noscript:  true,
	atom.Plaintext: true,
}

var fontSizeDecl = regexp.MustCompile(`(?i)(^|;)\s*font-size\s*:`)

// fontSizeStyle is the declaration pair appended to styles; the mso- duplicate
// is honored by Outlook's Word-based renderer.
func fontSizeStyle(size string) string {
	return fmt.Sprintf("font-size:%s; mso-bidi-font-size:%s;", size, size)
}

// EnforceFontSize gives every text-bearing element and every loose text run in
// fragment an explicit font size. Running it on its own output changes nothing.
// Unsafe markup is removed the same way Sanitize removes it.
func EnforceFontSize(fragment, size string) (string, error) {
	if fragment == "" {
		return "", nil
	}
	if size == "" {
		size = DefaultFontSize
	}

	root, err := parseFragment(fragment)
	if err != nil {
		return "", err
	}
	// Capping can split a tag, so the tree is cleaned again.
	sanitizeNode(root)

	decl := fontSizeStyle(size)
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		styleElements(c, decl)
	}
	wrapLooseText(root, decl)

	return renderChildren(root)
}

// styleElements appends decl to the style of n and its descendants where needed
func styleElements(n *html.Node, decl string) {
	if n.Type == html.ElementNode && fontSizedTags[n.DataAtom] {
		style := styleOf(n)
		if !fontSizeDecl.MatchString(style) {
			setStyle(n, appendDecl(style, decl))
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		styleElements(c, decl)
	}
}

// wrapLooseText wraps non-blank text runs whose parent has no explicit font size
// in a span carrying decl, keeping sibling order.
func wrapLooseText(parent *html.Node, decl string) {
	if rawTextTags[parent.DataAtom] {
		return
	}
	sized := fontSizeDecl.MatchString(styleOf(parent))

	for c := parent.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case html.TextNode:
			if !sized && strings.TrimSpace(c.Data) != "" {
				span := &html.Node{
					Type:     html.ElementNode,
					Data:     "span",
					DataAtom: atom.Span,
					Attr:     []html.Attribute{{Key: "style", Val: decl}},
				}
				parent.InsertBefore(span, c)
				parent.RemoveChild(c)
				span.AppendChild(c)
			}
		case html.ElementNode:
			wrapLooseText(c, decl)
		}
		c = next
	}
}

func styleOf(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, "style") {
			return a.Val
		}
	}
	return ""
}

func setStyle(n *html.Node, style string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, "style") {
			n.Attr[i].Val = style
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: style})
}

// appendDecl adds decl after the existing declarations of style
func appendDecl(style, decl string) string {
	style = strings.TrimSpace(style)
	if style == "" {
		return decl
	}
	if !strings.HasSuffix(style, ";") {
		style += ";"
	}
	return style + " " + decl
}
