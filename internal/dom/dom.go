package dom

import (
	"iter"
	"strings"
)

// Node is a queryable element of a parsed document
type Node interface {
	// Tag returns the lowercase element name, or "" for the document root
	Tag() string
	// Attr returns the value of the named attribute and whether it is present
	Attr(name string) (string, bool)
	// HasClass reports whether the class attribute contains class
	HasClass(class string) bool
	// Text returns the concatenated text of the node and all its descendants
	Text() string
	// Children yields the element children in document order
	Children() iter.Seq[Node]
	// NextSibling returns the next element sibling, if any
	NextSibling() (Node, bool)
	// Find yields every descendant element matching p in document order.
	// The node itself is never yielded.
	Find(p Predicate) iter.Seq[Node]
}

// Predicate selects nodes
type Predicate func(Node) bool

// ByTag matches elements with the given tag name (case-insensitive)
func ByTag(tag string) Predicate {
	tag = strings.ToLower(tag)
	return func(n Node) bool {
		return n.Tag() == tag
	}
}

// ByClass matches elements whose class list contains class
func ByClass(class string) Predicate {
	return func(n Node) bool {
		return n.HasClass(class)
	}
}

// ByAttr matches elements that carry the named attribute
func ByAttr(name string) Predicate {
	return func(n Node) bool {
		_, ok := n.Attr(name)
		return ok
	}
}

// And matches when every predicate matches
func And(ps ...Predicate) Predicate {
	return func(n Node) bool {
		for _, p := range ps {
			if !p(n) {
				return false
			}
		}
		return true
	}
}

// Or matches when any predicate matches
func Or(ps ...Predicate) Predicate {
	return func(n Node) bool {
		for _, p := range ps {
			if p(n) {
				return true
			}
		}
		return false
	}
}

// Not inverts p
func Not(p Predicate) Predicate {
	return func(n Node) bool {
		return !p(n)
	}
}

// First returns the first node of seq
func First(seq iter.Seq[Node]) (Node, bool) {
	for n := range seq {
		return n, true
	}
	return nil, false
}

// FindFirst returns the first descendant of n matching p
func FindFirst(n Node, p Predicate) (Node, bool) {
	if n == nil {
		return nil, false
	}
	return First(n.Find(p))
}

// Path follows a chain of first matches: the first descendant of n matching
// steps[0], then the first descendant of that matching steps[1], and so on.
// It stops at the first step without a match.
func Path(n Node, steps ...Predicate) (Node, bool) {
	cur := n
	for _, step := range steps {
		next, ok := FindFirst(cur, step)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, cur != nil
}

// TrimmedText returns n's text with surrounding whitespace removed
func TrimmedText(n Node) string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Text())
}
