//go:build cgo

package locator

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"vulnctx/internal/lang"
)

// TreeSitterCapability indexes method boundaries via tree-sitter.
// One instance serves a single language.
type TreeSitterCapability struct {
	language lang.Language
	parser   *lang.Parser
}

// NewTreeSitterCapability creates a tree-sitter indexing capability for
// the given language.
func NewTreeSitterCapability(language lang.Language) *TreeSitterCapability {
	return &TreeSitterCapability{
		language: language,
		parser:   lang.NewParser(),
	}
}

// DefaultRegistry returns a registry with a tree-sitter capability for
// every supported language.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, l := range lang.Supported() {
		r.Register(l, NewTreeSitterCapability(l))
	}
	return r
}

// Index parses source and returns one descriptor per method-like
// declaration, including constructors and anonymous functions.
func (c *TreeSitterCapability) Index(ctx context.Context, path string, source []byte) ([]MethodDescriptor, error) {
	root, err := c.parser.Parse(ctx, source, c.language)
	if err != nil {
		return nil, err
	}

	nodeTypes := methodNodeTypes(c.language)
	var methods []MethodDescriptor

	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		if containsType(nodeTypes, node.Type()) {
			methods = append(methods, MethodDescriptor{
				Name:      methodName(node, source, c.language),
				StartLine: int(node.StartPoint().Row) + 1,
				EndLine:   int(node.EndPoint().Row) + 1,
				Signature: signature(node, source),
				File:      path,
			})
		}
		for i := uint32(0); i < node.ChildCount(); i++ {
			walk(node.Child(int(i)))
		}
	}
	walk(root)

	return methods, nil
}

// methodNodeTypes returns the node types that bound method bodies for a
// language. Anonymous function forms are included so nested closures
// resolve to their own innermost descriptor.
func methodNodeTypes(language lang.Language) []string {
	switch language {
	case lang.LangGo:
		return []string{"function_declaration", "method_declaration", "func_literal"}
	case lang.LangJavaScript, lang.LangTypeScript, lang.LangTSX:
		return []string{"function_declaration", "function_expression", "arrow_function", "method_definition", "generator_function_declaration"}
	case lang.LangPython:
		return []string{"function_definition"}
	case lang.LangRust:
		return []string{"function_item", "closure_expression"}
	case lang.LangJava:
		return []string{"method_declaration", "constructor_declaration", "lambda_expression"}
	case lang.LangKotlin:
		return []string{"function_declaration", "anonymous_function"}
	default:
		return nil
	}
}

// methodName extracts the declared name from a method node.
func methodName(node *sitter.Node, source []byte, language lang.Language) string {
	var nameNode *sitter.Node

	switch language {
	case lang.LangKotlin:
		for i := uint32(0); i < node.ChildCount(); i++ {
			child := node.Child(int(i))
			if child != nil && child.Type() == "simple_identifier" {
				nameNode = child
				break
			}
		}
	default:
		nameNode = node.ChildByFieldName("name")
		if nameNode == nil {
			for i := uint32(0); i < node.ChildCount(); i++ {
				child := node.Child(int(i))
				if child != nil && child.Type() == "identifier" {
					nameNode = child
					break
				}
			}
		}
	}

	if nameNode != nil {
		return string(source[nameNode.StartByte():nameNode.EndByte()])
	}

	switch node.Type() {
	case "arrow_function", "func_literal", "lambda_expression",
		"closure_expression", "function_expression", "anonymous_function":
		return "<anonymous>"
	}
	return "<unknown>"
}

func containsType(types []string, t string) bool {
	for _, s := range types {
		if s == t {
			return true
		}
	}
	return false
}

// signature returns the first line of the declaration, trimmed.
func signature(node *sitter.Node, source []byte) string {
	text := source[node.StartByte():node.EndByte()]
	for i, b := range text {
		if b == '\n' || b == '{' {
			return strings.TrimSpace(string(text[:i]))
		}
	}
	if len(text) < 200 {
		return strings.TrimSpace(string(text))
	}
	return strings.TrimSpace(string(text[:200])) + "..."
}
