// Package dom provides the narrow document query interface used by the bracket extractor.
//
// A Node is an element in a parsed HTML tree that can be queried by tag name and
// class predicates, inspected for attributes and flattened to text. Queries return
// lazy, restartable iter.Seq sequences in document order, so callers that only need
// the first match never walk the rest of the tree.
//
// The only concrete implementation wraps goquery; extraction code depends solely on
// the Node and Predicate types declared here.
package dom
