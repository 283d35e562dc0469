package mcpserver

// LiterateFormatContract describes the canonical literate Markdown format
// that LLM consumers should follow when creating or editing documents.
const LiterateFormatContract = `# Literate Document Format Contract

Every literate Markdown document MUST follow this structure.

## Structure

` + "````" + `markdown
---
output_filename: stem               # REQUIRED – filename stem for extracted code
brief: One-line summary             # OPTIONAL – shown in the content index
details: Longer description         # OPTIONAL – collapsible text in the index
---

Prose in standard Markdown.

` + "```" + `python
def main():
    pass
` + "```" + `
` + "````" + `

## Rules

1. **YAML front matter is mandatory for tangling.** The ` + "`" + `---` + "`" + ` fences must
   be the first thing in the file (no leading blank lines). Documents
   without front matter are copied through untouched.
2. **` + "`" + `output_filename` + "`" + ` is required.** Extracted code is written to
   ` + "`" + `<output_filename>.<ext>` + "`" + ` where the extension follows the fence language
   (python -> .py, rust -> .rs, cpp -> .cpp, c -> .c, javascript -> .js,
   typescript -> .ts, bash -> .sh).
3. **Fenced code blocks** carry a language tag. Blocks with the same
   language are concatenated in document order into one output file.
4. **Placeholders** reference code from elsewhere in the tree:
   - ` + "`" + `@{file}` + "`" + ` inlines the whole file.
   - ` + "`" + `@{file:identifier}` + "`" + ` inlines a single top-level definition
     (Python ` + "`" + `def` + "`" + `/` + "`" + `class` + "`" + `, Rust ` + "`" + `fn` + "`" + `). Paths are relative to the
     document's own directory. Unresolvable placeholders are left as-is.
5. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.
6. **Encoding** is UTF-8 with a trailing newline.
`
