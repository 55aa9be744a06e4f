package dom

import (
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// element adapts a single *html.Node to the Node interface
type element struct {
	n *html.Node
}

// Parse reads an HTML document and returns its root node
func Parse(r io.Reader) (Node, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return FromDocument(doc), nil
}

// ParseString parses an HTML document held in memory
func ParseString(s string) (Node, error) {
	return Parse(strings.NewReader(s))
}

// FromDocument wraps an already-parsed goquery document
func FromDocument(doc *goquery.Document) Node {
	if doc == nil || len(doc.Nodes) == 0 {
		return nil
	}
	return &element{n: doc.Nodes[0]}
}

func (e *element) selection() *goquery.Selection {
	return &goquery.Selection{Nodes: []*html.Node{e.n}}
}

func (e *element) Tag() string {
	if e.n.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(e.n.Data)
}

func (e *element) Attr(name string) (string, bool) {
	return e.selection().Attr(name)
}

func (e *element) HasClass(class string) bool {
	return e.selection().HasClass(class)
}

func (e *element) Text() string {
	return e.selection().Text()
}

func (e *element) Children() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for c := e.n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if !yield(&element{n: c}) {
				return
			}
		}
	}
}

func (e *element) NextSibling() (Node, bool) {
	for s := e.n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return &element{n: s}, true
		}
	}
	return nil, false
}

func (e *element) Find(p Predicate) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		walk(e.n, p, yield)
	}
}

// walk visits the descendants of n in document order. It returns false once
// yield asks to stop.
func walk(n *html.Node, p Predicate, yield func(Node) bool) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		el := &element{n: c}
		if p(el) && !yield(el) {
			return false
		}
		if !walk(c, p, yield) {
			return false
		}
	}
	return true
}

// BySelector compiles a CSS selector into a Predicate. It only matches nodes
// produced by this package's parser.
func BySelector(css string) (Predicate, error) {
	sel, err := cascadia.Compile(css)
	if err != nil {
		return nil, fmt.Errorf("compiling selector %q: %w", css, err)
	}
	return func(n Node) bool {
		el, ok := n.(*element)
		if !ok {
			return false
		}
		return sel.Match(el.n)
	}, nil
}

// MustSelector is like BySelector but panics on an invalid selector.
// Intended for package-level selector constants.
func MustSelector(css string) Predicate {
	p, err := BySelector(css)
	if err != nil {
		panic(err)
	}
	return p
}
