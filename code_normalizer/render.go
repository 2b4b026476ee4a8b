package code_normalizer

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

const indentUnit = "    "

// clauseTypes start a new line at the depth of the statement they belong to.
var clauseTypes = map[string]bool{
	"elif_clause":         true,
	"else_clause":         true,
	"except_clause":       true,
	"except_group_clause": true,
	"finally_clause":      true,
	"case_clause":         true,
}

// skippedTypes never reach the canonical text. Statements are separated by
// line breaks, so ';' is dropped as well.
var skippedTypes = map[string]bool{
	"comment":           true,
	"line_continuation": true,
	";":                 true,
}

// closingBrackets end a bracketed list; a comma right before one is dropped.
var closingBrackets = map[string]bool{
	")": true,
	"]": true,
	"}": true,
}

// atomTypes never need surrounding parentheses.
var atomTypes = map[string]bool{
	"identifier":               true,
	"integer":                  true,
	"float":                    true,
	"string":                   true,
	"concatenated_string":      true,
	"true":                     true,
	"false":                    true,
	"none":                     true,
	"ellipsis":                 true,
	"attribute":                true,
	"call":                     true,
	"subscript":                true,
	"list":                     true,
	"tuple":                    true,
	"dictionary":               true,
	"set":                      true,
	"list_comprehension":       true,
	"dictionary_comprehension": true,
	"set_comprehension":        true,
	"generator_expression":     true,
	"parenthesized_expression": true,
}

type canonicalRenderer struct {
	source    []byte
	names     identifierSet
	out       strings.Builder
	depth     int
	lineStart bool
}

// renderCanonical prints the tree back as source: one statement per line,
// four spaces per block level, single spaces between tokens and no comments.
// String literals are written in repr form, trailing commas and parentheses
// around a single atom are dropped.
// When names is non-nil, identifier tokens spelled like one of them are
// replaced by Placeholder.
func renderCanonical(root *sitter.Node, source []byte, names identifierSet) string {
	r := &canonicalRenderer{
		source:    source,
		names:     names,
		lineStart: true,
	}
	r.node(root, 0)
	return r.out.String()
}

func (r *canonicalRenderer) node(n *sitter.Node, depth int) {
	if n == nil || skippedTypes[n.Type()] {
		return
	}

	switch n.Type() {
	case "string", "concatenated_string":
		if text, ok := canonicalStringNode(n, r.source); ok {
			r.leafText(n, text)
			return
		}
		// f-strings are atomic so their content is kept verbatim
		if n.Type() == "string" {
			r.leaf(n)
			return
		}
	case "parenthesized_expression":
		if inner := soleNamedChild(n); inner != nil && atomTypes[inner.Type()] {
			r.node(inner, depth)
			return
		}
	}

	if n.ChildCount() == 0 {
		r.leaf(n)
		return
	}

	childDepth := depth
	if n.Type() == "block" {
		childDepth = depth + 1
	}
	holdsStatements := n.Type() == "module" || n.Type() == "block"

	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || skippedTypes[child.Type()] {
			continue
		}
		if !child.IsNamed() && child.Type() == "," && isTrailingComma(n, i) {
			continue
		}

		switch {
		case holdsStatements && child.IsNamed():
			r.newline(childDepth)
		case clauseTypes[child.Type()]:
			r.newline(depth)
		case n.Type() == "decorated_definition" && child.IsNamed():
			r.newline(depth)
		}

		r.node(child, childDepth)
	}
}

func (r *canonicalRenderer) leaf(n *sitter.Node) {
	r.leafText(n, n.Content(r.source))
}

func (r *canonicalRenderer) leafText(n *sitter.Node, text string) {
	if text == "" {
		return
	}

	if r.names != nil && n.Type() == "identifier" {
		if _, ok := r.names[text]; ok {
			text = Placeholder
		}
	}

	if r.lineStart {
		r.out.WriteString(strings.Repeat(indentUnit, r.depth))
		r.lineStart = false
	} else {
		r.out.WriteByte(' ')
	}
	r.out.WriteString(text)
}

// newline ends the current line, if any, and sets the indentation of the next one.
func (r *canonicalRenderer) newline(depth int) {
	if !r.lineStart {
		r.out.WriteByte('\n')
		r.lineStart = true
	}
	r.depth = depth
}

// isTrailingComma reports whether the comma at index i of n is directly
// followed by a closing bracket. The comma of a one-element tuple is kept.
func isTrailingComma(n *sitter.Node, i int) bool {
	for j := i + 1; j < int(n.ChildCount()); j++ {
		next := n.Child(j)
		if next == nil || skippedTypes[next.Type()] {
			continue
		}
		if next.IsNamed() || !closingBrackets[next.Type()] {
			return false
		}
		break
	}

	switch n.Type() {
	case "tuple", "tuple_pattern":
		return namedCount(n) > 1
	case "subscript":
		// x[i,] indexes with a tuple
		return namedCount(n) > 2
	}
	return true
}

// namedCount counts the named children of n that reach the canonical text.
func namedCount(n *sitter.Node) int {
	count := 0
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child != nil && !skippedTypes[child.Type()] {
			count++
		}
	}
	return count
}

func soleNamedChild(n *sitter.Node) *sitter.Node {
	var sole *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil || skippedTypes[child.Type()] {
			continue
		}
		if sole != nil {
			return nil
		}
		sole = child
	}
	return sole
}
