// Package extract heuristically locates a named function or class
// definition inside a source file without a real parser.
//
// Two language families are supported: indentation-delimited (Python) and
// brace-delimited (Rust). Both strategies are approximate by design: the
// indentation rule is fooled by multi-line strings containing dedented
// text, and the brace rule counts braces inside string literals and
// comments. When a file contains several same-named definitions the first
// one in file order wins.
package extract

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// strategy locates one definition within a stream of lines.
type strategy interface {
	// matchHeader reports whether line opens the definition of identifier.
	matchHeader(line, identifier string) bool
	// include reports whether line belongs to the span collected so far.
	// headerIndent is the leading-whitespace count of the header line.
	include(collected []string, line string, headerIndent int) bool
	// complete reports whether the collected span is already terminated.
	complete(collected []string) bool
}

// strategies maps a lowercase file extension to its extraction strategy.
var strategies = map[string]strategy{
	"py": indentStrategy{},
	"rs": braceStrategy{},
}

// Definition returns the text of the definition named identifier inside
// the file at path. found is false when the extension is unsupported or no
// definition matches; err reports I/O problems only.
func Definition(path, identifier string) (text string, found bool, err error) {
	if identifier == "" {
		return "", false, nil
	}
	strat, ok := strategies[strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))]
	if !ok {
		return "", false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", false, fmt.Errorf("extract: open %s: %w", path, err)
	}
	defer f.Close()

	var (
		lines        []string
		inDef        bool
		headerIndent int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !inDef {
			if strat.matchHeader(line, identifier) {
				inDef = true
				headerIndent = indentOf(line)
				lines = append(lines, line)
				if strat.complete(lines) {
					break
				}
			}
			continue
		}
		if !strat.include(lines, line, headerIndent) {
			break
		}
		lines = append(lines, line)
		if strat.complete(lines) {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return "", false, fmt.Errorf("extract: read %s: %w", path, err)
	}
	if len(lines) == 0 {
		return "", false, nil
	}
	return strings.Join(lines, "\n"), true, nil
}

// indentOf counts the leading whitespace characters of line.
func indentOf(line string) int {
	n := 0
	for _, r := range line {
		if r != ' ' && r != '\t' {
			break
		}
		n++
	}
	return n
}

// indentStrategy implements Python-style indentation-block extraction.
// A definition runs from its "def "/"class " header through every
// following line that is blank or indented deeper than the header; the
// first non-blank line at or above the header indent ends the span.
type indentStrategy struct{}

func (indentStrategy) matchHeader(line, identifier string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	if rest, ok := strings.CutPrefix(trimmed, "def "); ok {
		idx := strings.Index(rest, "(")
		if idx < 0 {
			return false
		}
		return strings.TrimSpace(rest[:idx]) == identifier
	}
	if rest, ok := strings.CutPrefix(trimmed, "class "); ok {
		name := strings.FieldsFunc(rest, func(r rune) bool { return r == ':' || r == '(' })
		return len(name) > 0 && strings.TrimSpace(name[0]) == identifier
	}
	return false
}

func (indentStrategy) include(_ []string, line string, headerIndent int) bool {
	return strings.TrimSpace(line) == "" || indentOf(line) > headerIndent
}

func (indentStrategy) complete(_ []string) bool { return false }

// braceStrategy implements Rust-style brace-balance extraction. The span
// ends on the first line where the accumulated text holds as many closing
// as opening braces.
type braceStrategy struct{}

func (braceStrategy) matchHeader(line, identifier string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	var rest string
	switch {
	case strings.HasPrefix(trimmed, "pub fn "):
		rest = trimmed[len("pub fn "):]
	case strings.HasPrefix(trimmed, "fn "):
		rest = trimmed[len("fn "):]
	default:
		return false
	}
	if !strings.HasPrefix(rest, identifier) {
		return false
	}
	// Require "(" or a space right after the name so that a prefix of a
	// longer name does not match.
	tail := rest[len(identifier):]
	return strings.HasPrefix(tail, "(") || strings.HasPrefix(tail, " ")
}

func (braceStrategy) include(_ []string, _ string, _ int) bool { return true }

func (braceStrategy) complete(collected []string) bool {
	joined := strings.Join(collected, "\n")
	open := strings.Count(joined, "{")
	closed := strings.Count(joined, "}")
	return open > 0 && open == closed
}
