// Package frontmatter defines the YAML metadata schema shared by the weave
// and tangle engines.
package frontmatter

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Delimiter is the line that opens and closes a front-matter block.
const Delimiter = "---"

// Meta is the front matter attached to every woven Markdown document.
// OutputFilename is the base name (no extension) used to reconstruct the
// original file name during tangle; documents without it are excluded from
// the content index.
type Meta struct {
	OutputFilename string `yaml:"output_filename"`
	Brief          string `yaml:"brief,omitempty"`
	Details        string `yaml:"details,omitempty"`
}

// Parse decodes a YAML front-matter body (the text between the delimiters).
// It fails when the YAML is invalid or output_filename is missing.
func Parse(yamlText string) (*Meta, error) {
	var m Meta
	if err := yaml.Unmarshal([]byte(yamlText), &m); err != nil {
		return nil, fmt.Errorf("frontmatter: parse: %w", err)
	}
	if m.OutputFilename == "" {
		return nil, fmt.Errorf("frontmatter: output_filename is required")
	}
	return &m, nil
}

// Marshal serializes m as a complete front-matter block, delimiters
// included, with a trailing newline.
func (m *Meta) Marshal() ([]byte, error) {
	body, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("frontmatter: marshal: %w", err)
	}
	var b strings.Builder
	b.WriteString(Delimiter + "\n")
	b.Write(body)
	b.WriteString(Delimiter + "\n")
	return []byte(b.String()), nil
}

// ParseFile probes a Markdown file for front matter. The probe is strict:
// the first line must be the delimiter, a closing delimiter must follow,
// and the YAML in between must decode into a valid Meta. found is false
// when any of those conditions fail; err reports I/O problems only.
func ParseFile(path string) (meta *Meta, found bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, fmt.Errorf("frontmatter: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		return nil, false, scanner.Err()
	}
	if strings.TrimSpace(scanner.Text()) != Delimiter {
		return nil, false, nil
	}

	var yamlLines []string
	closed := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == Delimiter {
			closed = true
			break
		}
		yamlLines = append(yamlLines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, false, fmt.Errorf("frontmatter: read %s: %w", path, err)
	}
	if !closed {
		return nil, false, nil
	}

	m, err := Parse(strings.Join(yamlLines, "\n"))
	if err != nil {
		return nil, false, nil
	}
	return m, true, nil
}
