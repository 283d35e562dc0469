// Package langs holds the fixed language/extension tables shared by the
// weave and tangle engines.
package langs

import "strings"

// ForExtension returns the fenced-code-block language for a source file
// extension, or "" when the extension is not in the supported set.
func ForExtension(ext string) string {
	switch strings.ToLower(ext) {
	case "py":
		return "python"
	case "rs":
		return "rust"
	case "cpp":
		return "cpp"
	case "c", "h":
		return "c"
	case "js":
		return "javascript"
	case "ts":
		return "typescript"
	case "sh":
		return "bash"
	default:
		return ""
	}
}

// Extension returns the output file extension for a language detected by
// FromFence, or "" when the language has no known extension.
func Extension(lang string) string {
	switch lang {
	case "python":
		return "py"
	case "rust":
		return "rs"
	case "cpp":
		return "cpp"
	case "c":
		return "c"
	case "h":
		return "h"
	case "javascript":
		return "js"
	case "typescript":
		return "ts"
	case "bash":
		return "sh"
	default:
		return ""
	}
}

// FromFence guesses the language of an opening code fence line using
// substring checks. The check order is fixed; a fence mentioning two
// tokens resolves to whichever appears first in this precedence list,
// which can misclassify (known limitation).
func FromFence(line string) string {
	switch {
	case strings.Contains(line, ".python"), strings.Contains(line, "python"), strings.Contains(line, ".py"):
		return "python"
	case strings.Contains(line, ".rust"), strings.Contains(line, "rust"), strings.Contains(line, ".rs"):
		return "rust"
	case strings.Contains(line, "cpp"):
		return "cpp"
	case strings.Contains(line, ".h"):
		return "h"
	case strings.Contains(line, "javascript"), strings.Contains(line, ".js"):
		return "javascript"
	case strings.Contains(line, "typescript"), strings.Contains(line, ".ts"):
		return "typescript"
	case strings.Contains(line, "bash"), strings.Contains(line, ".sh"):
		return "bash"
	case strings.TrimSpace(line) == "```c":
		return "c"
	default:
		return ""
	}
}
