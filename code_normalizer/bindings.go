package code_normalizer

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
)

// identifierSet holds the distinct names bound in one source file.
type identifierSet map[string]struct{}

func (s identifierSet) add(name string) {
	if name != "" {
		s[name] = struct{}{}
	}
}

// sortedByLengthDesc orders names longest first so that a name which is a
// substring of a longer one is replaced after it. Equal lengths sort
// lexicographically.
func (s identifierSet) sortedByLengthDesc() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}

var exceptClauseTypes = map[string]bool{
	"except_clause":       true,
	"except_group_clause": true,
}

// collectNames gathers every name written to (assignment, loop, with, walrus
// and del targets), every function name and every parameter name.
func collectNames(root *sitter.Node, source []byte) identifierSet {
	names := make(identifierSet)

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "function_definition":
			collectTargets(n.ChildByFieldName("name"), source, names)
			collectParameters(n.ChildByFieldName("parameters"), source, names)
		case "lambda":
			collectParameters(n.ChildByFieldName("parameters"), source, names)
		case "assignment", "augmented_assignment", "for_statement", "for_in_clause":
			collectTargets(n.ChildByFieldName("left"), source, names)
		case "named_expression":
			collectTargets(n.ChildByFieldName("name"), source, names)
		case "as_pattern":
			// except ... as e binds a plain string, not a name
			if parent := n.Parent(); parent == nil || !exceptClauseTypes[parent.Type()] {
				collectTargets(n.ChildByFieldName("alias"), source, names)
			}
		case "delete_statement":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				collectTargets(n.NamedChild(i), source, names)
			}
		}

		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)

	return names
}

// collectTargets adds the names bound by an assignment-like target. Attribute
// and subscript targets bind no name of their own.
func collectTargets(n *sitter.Node, source []byte, names identifierSet) {
	if n == nil {
		return
	}

	switch n.Type() {
	case "identifier":
		names.add(n.Content(source))
	case "pattern_list", "tuple_pattern", "list_pattern", "tuple", "list",
		"expression_list", "parenthesized_expression", "list_splat_pattern",
		"list_splat", "dictionary_splat_pattern", "as_pattern_target":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			collectTargets(n.NamedChild(i), source, names)
		}
	}
}

func collectParameters(params *sitter.Node, source []byte, names identifierSet) {
	if params == nil {
		return
	}

	for i := 0; i < int(params.NamedChildCount()); i++ {
		param := params.NamedChild(i)
		switch param.Type() {
		case "default_parameter", "typed_default_parameter":
			collectTargets(param.ChildByFieldName("name"), source, names)
		case "typed_parameter":
			if param.NamedChildCount() > 0 {
				collectTargets(param.NamedChild(0), source, names)
			}
		default:
			collectTargets(param, source, names)
		}
	}
}
