package dompage

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func replaceChildrenWithText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

func options(sel *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == atom.Option {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	walk(sel)
	return out
}

func optionValue(opt *html.Node) string {
	if v, ok := getAttr(opt, "value"); ok {
		return v
	}
	return strings.TrimSpace(textContent(opt))
}

// selectOption marks the first option whose value matches and reports
// whether one did. No match leaves nothing selected, as setting an unknown
// value on a select does in browsers.
func selectOption(sel *html.Node, value string) bool {
	matched := false
	for _, opt := range options(sel) {
		removeAttr(opt, "selected")
		if !matched && optionValue(opt) == value {
			setAttr(opt, "selected", "")
			matched = true
		}
	}
	return matched
}

// selectedValue falls back to the first option unless the selection was cleared.
func selectedValue(sel *html.Node, cleared bool) string {
	opts := options(sel)
	for _, opt := range opts {
		if _, ok := getAttr(opt, "selected"); ok {
			return optionValue(opt)
		}
	}
	if cleared || len(opts) == 0 {
		return ""
	}
	return optionValue(opts[0])
}

type declaration struct {
	prop  string
	value string
}

type styleDecls []declaration

func parseStyle(n *html.Node) styleDecls {
	raw, _ := getAttr(n, "style")
	var decls styleDecls
	for _, part := range strings.Split(raw, ";") {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		value = strings.TrimSpace(value)
		if prop == "" {
			continue
		}
		decls = append(decls, declaration{prop: prop, value: value})
	}
	return decls
}

// get returns the last declared value for prop, without !important.
func (d styleDecls) get(prop string) (string, bool) {
	for i := len(d) - 1; i >= 0; i-- {
		if d[i].prop == prop {
			v := strings.TrimSpace(strings.TrimSuffix(strings.ToLower(d[i].value), "!important"))
			return v, true
		}
	}
	return "", false
}

func (d *styleDecls) set(prop, value string) {
	d.remove(prop)
	*d = append(*d, declaration{prop: prop, value: value})
}

func (d *styleDecls) remove(prop string) {
	kept := (*d)[:0]
	for _, decl := range *d {
		if decl.prop != prop {
			kept = append(kept, decl)
		}
	}
	*d = kept
}

func writeStyle(n *html.Node, d styleDecls) {
	if len(d) == 0 {
		removeAttr(n, "style")
		return
	}
	parts := make([]string, len(d))
	for i, decl := range d {
		parts[i] = decl.prop + ": " + decl.value
	}
	setAttr(n, "style", strings.Join(parts, "; "))
}

func notRendered(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Head, atom.Script, atom.Style, atom.Template, atom.Title, atom.Meta, atom.Link:
		return true
	case atom.Input:
		typ, _ := getAttr(n, "type")
		return strings.EqualFold(typ, "hidden")
	}
	return false
}

func visible(n *html.Node) bool {
	visibilityDecided := false
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if notRendered(cur) {
			return false
		}
		if _, hidden := getAttr(cur, "hidden"); hidden {
			return false
		}
		decls := parseStyle(cur)
		if display, ok := decls.get("display"); ok && display == "none" {
			return false
		}
		// visibility inherits; the nearest declaration wins.
		if !visibilityDecided {
			if vis, ok := decls.get("visibility"); ok {
				visibilityDecided = true
				if vis == "hidden" || vis == "collapse" {
					return false
				}
			}
		}
	}
	return true
}
