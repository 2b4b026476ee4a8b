package code_normalizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/meysamhadeli/codesim/code_normalizer/contracts"
	"github.com/meysamhadeli/codesim/code_normalizer/models"
	"github.com/rs/zerolog/log"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Placeholder replaces every collapsed identifier. '~' and '$' cannot appear in
// a Python identifier, so it never collides with a real name.
const Placeholder = "~~$$eqexpr~~$$"

// ReplacementMode controls how collected names are collapsed into the placeholder.
type ReplacementMode string

const (
	// ModeToken replaces only identifier tokens spelled like a collected name.
	ModeToken ReplacementMode = "token"
	// ModeSubstring replaces every textual occurrence of a collected name in the
	// canonical source, longest name first, including inside keywords and literals.
	ModeSubstring ReplacementMode = "substring"
)

// ParseReplacementMode validates a configured replacement mode.
func ParseReplacementMode(s string) (ReplacementMode, error) {
	switch ReplacementMode(s) {
	case ModeToken, ModeSubstring:
		return ReplacementMode(s), nil
	}
	return "", fmt.Errorf("unknown replacement mode %q (want %q or %q)", s, ModeToken, ModeSubstring)
}

// ParseError reports source text that is not valid Python.
type ParseError struct {
	Path   string
	Line   int
	Column int
	Near   string
}

func (e *ParseError) Error() string {
	location := fmt.Sprintf("%d:%d", e.Line, e.Column)
	if e.Path != "" {
		location = e.Path + ":" + location
	}
	if e.Near != "" {
		return fmt.Sprintf("%s: syntax error near %q", location, e.Near)
	}
	return fmt.Sprintf("%s: syntax error", location)
}

// FileError reports a source file that could not be read.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("failed to read source file %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// CodeNormalizer turns Python source into a token sequence that ignores
// comments, formatting and the spelling of bound names.
type CodeNormalizer struct {
	mode         ReplacementMode
	cacheManager *CacheManager
}

var _ contracts.ICodeNormalizer = (*CodeNormalizer)(nil)

// NewCodeNormalizer creates a normalizer. cacheManager may be nil to disable caching.
func NewCodeNormalizer(mode ReplacementMode, cacheManager *CacheManager) *CodeNormalizer {
	if mode == "" {
		mode = ModeToken
	}
	return &CodeNormalizer{
		mode:         mode,
		cacheManager: cacheManager,
	}
}

// Mode returns the replacement mode in use.
func (n *CodeNormalizer) Mode() ReplacementMode {
	return n.mode
}

// Normalize parses source and returns its normalized token sequence.
func (n *CodeNormalizer) Normalize(ctx context.Context, source []byte) (models.TokenSequence, error) {
	canonical, err := n.Canonical(ctx, source)
	if err != nil {
		return nil, err
	}
	return models.TokenSequence(strings.Fields(canonical)), nil
}

// Canonical parses source and renders it back with comments dropped, layout
// normalized and collected names replaced by Placeholder.
func (n *CodeNormalizer) Canonical(ctx context.Context, source []byte) (string, error) {
	tree, err := parse(ctx, source)
	if err != nil {
		return "", err
	}
	root := tree.RootNode()

	names := collectNames(root, source)

	if n.mode == ModeSubstring {
		text := renderCanonical(root, source, nil)
		for _, name := range names.sortedByLengthDesc() {
			text = strings.ReplaceAll(text, name, Placeholder)
		}
		return text, nil
	}

	return renderCanonical(root, source, names), nil
}

// NormalizeFile reads path and normalizes its content, consulting the token
// cache when one is configured.
func (n *CodeNormalizer) NormalizeFile(ctx context.Context, path string) (models.TokenSequence, error) {
	file, err := readSourceFile(path)
	if err != nil {
		return nil, err
	}

	if n.cacheManager != nil {
		if tokens, found := n.cacheManager.GetTokenCache(string(n.mode), file.Text); found {
			log.Debug().Str("path", path).Int("tokens", len(tokens)).Msg("Token cache hit")
			return tokens, nil
		}
	}

	tokens, err := n.Normalize(ctx, file.Text)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			parseErr.Path = path
		}
		return nil, err
	}

	if n.cacheManager != nil {
		if err := n.cacheManager.SetTokenCache(string(n.mode), file.Text, tokens); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to store tokens in cache")
		}
	}

	return tokens, nil
}

// ClearCache removes every cached token sequence, resets the hit counters and
// returns how many entries were deleted.
func (n *CodeNormalizer) ClearCache() (int, error) {
	if n.cacheManager == nil {
		return 0, nil
	}

	deleted, err := n.cacheManager.ClearCache()
	if err != nil {
		return deleted, err
	}
	n.cacheManager.ResetPerformanceStats()

	return deleted, nil
}

// GetCacheStats reports storage and hit-rate statistics of the token cache.
func (n *CodeNormalizer) GetCacheStats() (map[string]interface{}, error) {
	if n.cacheManager == nil {
		return map[string]interface{}{"cache_enabled": false}, nil
	}

	stats, err := n.cacheManager.GetCacheStats()
	if err != nil {
		return nil, err
	}
	for key, value := range n.cacheManager.GetPerformanceStats() {
		stats[key] = value
	}
	stats["cache_enabled"] = true

	return stats, nil
}

func readSourceFile(path string) (*models.SourceFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	return &models.SourceFile{Path: path, Text: content}, nil
}

// parse builds a Python syntax tree and rejects trees with error or missing nodes.
func parse(ctx context.Context, source []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(root, source)
	}
	if legacy := firstLegacyNode(root, source); legacy != nil {
		return nil, nodeError(legacy, source, "")
	}

	return tree, nil
}

// legacyStatementTypes are Python 2 statements the grammar still accepts.
var legacyStatementTypes = map[string]bool{
	"print_statement": true,
	"exec_statement":  true,
}

// firstLegacyNode finds Python 2 only syntax: print and exec statements and
// backtick repr strings.
func firstLegacyNode(n *sitter.Node, source []byte) *sitter.Node {
	if n == nil {
		return nil
	}
	if legacyStatementTypes[n.Type()] {
		return n
	}
	if n.Type() == "string" {
		if strings.HasPrefix(strings.TrimLeft(n.Content(source), stringPrefixChars), "`") {
			return n
		}
		return nil
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if legacy := firstLegacyNode(n.NamedChild(i), source); legacy != nil {
			return legacy
		}
	}
	return nil
}

// syntaxError locates the first ERROR or MISSING node in document order.
func syntaxError(root *sitter.Node, source []byte) *ParseError {
	bad := firstErrorNode(root)
	if bad == nil {
		return &ParseError{Line: 1, Column: 1}
	}
	if bad.IsMissing() {
		return nodeError(bad, source, "missing "+bad.Type())
	}
	return nodeError(bad, source, "")
}

// nodeError reports n as a syntax error, quoting the start of its first line
// unless near is given.
func nodeError(n *sitter.Node, source []byte, near string) *ParseError {
	point := n.StartPoint()
	if near == "" {
		near = n.Content(source)
		if idx := strings.IndexByte(near, '\n'); idx >= 0 {
			near = near[:idx]
		}
		if len(near) > 40 {
			near = near[:40]
		}
	}

	return &ParseError{
		Line:   int(point.Row) + 1,
		Column: int(point.Column) + 1,
		Near:   near,
	}
}

func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if bad := firstErrorNode(n.Child(i)); bad != nil {
			return bad
		}
	}
	return nil
}
