// Package lang maps source files to supported languages and provides
// tree-sitter parsing for them.
package lang

// Language represents a supported programming language.
type Language string

const (
	LangGo         Language = "go"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangPython     Language = "python"
	LangRust       Language = "rust"
	LangJava       Language = "java"
	LangKotlin     Language = "kotlin"
)

// FromExtension maps a file extension (including the dot) to a Language.
func FromExtension(ext string) (Language, bool) {
	switch ext {
	case ".go":
		return LangGo, true
	case ".js", ".mjs", ".cjs":
		return LangJavaScript, true
	case ".ts", ".mts", ".cts":
		return LangTypeScript, true
	case ".tsx":
		return LangTSX, true
	case ".jsx":
		return LangJavaScript, true // JSX uses JS parser
	case ".py", ".pyw":
		return LangPython, true
	case ".rs":
		return LangRust, true
	case ".java":
		return LangJava, true
	case ".kt", ".kts":
		return LangKotlin, true
	default:
		return "", false
	}
}

// Supported lists every language with a registered parser.
func Supported() []Language {
	return []Language{
		LangGo, LangJavaScript, LangTypeScript, LangTSX,
		LangPython, LangRust, LangJava, LangKotlin,
	}
}
