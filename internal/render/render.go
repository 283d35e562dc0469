// Package render converts literate Markdown documents into standalone
// styled HTML pages with syntax-highlighted code blocks.
package render

import (
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	mdparser "github.com/gomarkdown/markdown/parser"
	"github.com/sourcegraph/syntaxhighlight"

	"github.com/mossdal/loom/internal/frontmatter"
)

// ManifestName lists every HTML file a Tree run generated.
const ManifestName = "rendered_files.txt"

// defaultTitle is used when a document has no front matter.
const defaultTitle = "Documentation"

// codeBlockRe matches the <pre><code class="language-X"> blocks emitted by
// the Markdown renderer. Fence info strings like "{.python}" are reduced
// to their language token.
var codeBlockRe = regexp.MustCompile(
	`(?s)<pre><code class="[^"]*language-(?:\{\.)?([a-zA-Z0-9_+\-]+)(?:\})?[^"]*">(.*?)</code></pre>`)

// Page renders one Markdown document to a complete HTML page. Front
// matter is stripped; its output_filename becomes the page title. css, if
// non-empty, is inlined into the page head.
func Page(src []byte, css string) ([]byte, error) {
	title, body := splitTitle(string(src))

	exts := mdparser.CommonExtensions | mdparser.Footnotes | mdparser.AutoHeadingIDs
	p := mdparser.NewWithExtensions(exts)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})

	rendered := markdown.ToHTML(markdown.NormalizeNewlines([]byte(body)), p, renderer)
	highlighted := highlightCodeBlocks(string(rendered))

	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>%s</title>
  <style>
%s
  </style>
</head>
<body>
  <div class="container">
%s
  </div>
</body>
</html>
`, html.EscapeString(title), css, highlighted)

	return []byte(page), nil
}

// splitTitle strips leading front matter from doc and derives the page
// title from its output_filename.
func splitTitle(doc string) (title, body string) {
	title = defaultTitle
	lines := strings.Split(doc, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != frontmatter.Delimiter {
		return title, doc
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontmatter.Delimiter {
			if meta, err := frontmatter.Parse(strings.Join(lines[1:i], "\n")); err == nil {
				title = meta.OutputFilename
			}
			return title, strings.Join(lines[i+1:], "\n")
		}
	}
	return title, doc
}

// highlightCodeBlocks replaces rendered code blocks with highlighted
// markup. Blocks the highlighter rejects are kept as emitted.
func highlightCodeBlocks(page string) string {
	return codeBlockRe.ReplaceAllStringFunc(page, func(block string) string {
		m := codeBlockRe.FindStringSubmatch(block)
		code := htmlUnescape(m[2])
		out, err := syntaxhighlight.AsHTML([]byte(code))
		if err != nil {
			return block
		}
		return "<pre class=\"highlight\"><code>" + string(out) + "</code></pre>"
	})
}

// htmlUnescape reverses the entity escaping applied by the Markdown
// renderer inside code blocks.
func htmlUnescape(s string) string {
	r := strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", "\"",
		"&#39;", "'",
		"&amp;", "&",
	)
	return r.Replace(s)
}

// File renders one Markdown file to outPath.
func File(inPath, outPath, css string) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("render: read %s: %w", inPath, err)
	}
	page, err := Page(data, css)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, page, 0o644); err != nil {
		return fmt.Errorf("render: write %s: %w", outPath, err)
	}
	return nil
}

// Tree renders every .md file under src into dst, mirroring the directory
// structure, and writes a manifest of the generated files. cssPath, if
// non-empty, names a stylesheet to inline into every page; a missing
// stylesheet renders unstyled pages.
func Tree(src, dst, cssPath string, logger *slog.Logger) ([]string, error) {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return nil, fmt.Errorf("render: create output dir: %w", err)
	}

	var css string
	if cssPath != "" {
		if data, err := os.ReadFile(cssPath); err == nil {
			css = string(data)
		} else {
			logger.Warn("render: css unavailable", slog.String("path", cssPath), slog.String("error", err.Error()))
		}
	}

	var generated []string
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		outPath := filepath.Join(dst, strings.TrimSuffix(rel, filepath.Ext(rel))+".html")
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return err
		}
		if err := File(path, outPath, css); err != nil {
			logger.Warn("render: file failed", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}
		logger.Info("render: generated", slog.String("path", outPath))
		generated = append(generated, outPath)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("render: walk: %w", err)
	}

	manifest := filepath.Join(dst, ManifestName)
	if err := os.WriteFile(manifest, []byte(strings.Join(generated, "\n")+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("render: write manifest: %w", err)
	}
	return generated, nil
}
