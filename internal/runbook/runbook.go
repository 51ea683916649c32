// Package runbook extracts named scripts from a project's cyrusfile.md.
//
// A runbook is a plain Markdown file where every level-2 heading names a
// script and the first fenced code block under that heading holds the command
// line. Scripts defined this way participate in alias resolution exactly like
// scripts declared in cyrus.yaml (explicit descriptor entries win on
// collision).
package runbook

import (
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// FileName is the conventional runbook file name, looked up next to a
// project's cyrus.yaml.
const FileName = "cyrusfile.md"

// Parse extracts the script table from runbook Markdown source.
// Headings without a code block are ignored; only the first line of a code
// block is used as the command.
func Parse(source []byte) (map[string]string, error) {
	md := goldmark.New()
	reader := text.NewReader(source)
	doc := md.Parser().Parse(reader)

	scripts := make(map[string]string)
	var currentScript string

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			if node.Level == 2 {
				currentScript = strings.TrimSpace(headingText(node, source))
			} else {
				currentScript = ""
			}
		case *ast.FencedCodeBlock:
			if currentScript == "" {
				return ast.WalkContinue, nil
			}
			command := firstCodeLine(node, source)
			if command != "" {
				// First code block under the heading wins.
				if _, exists := scripts[currentScript]; !exists {
					scripts[currentScript] = command
				}
			}
			currentScript = ""
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk runbook AST: %w", err)
	}

	return scripts, nil
}

// Load reads and parses the runbook at path. A missing file is not an error;
// it simply yields no scripts.
func Load(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read runbook %s: %w", path, err)
	}
	return Parse(data)
}

// headingText concatenates the text segments of a heading node.
func headingText(heading *ast.Heading, source []byte) string {
	var sb strings.Builder
	for child := heading.FirstChild(); child != nil; child = child.NextSibling() {
		if textNode, ok := child.(*ast.Text); ok {
			sb.Write(textNode.Segment.Value(source))
		}
	}
	return sb.String()
}

// firstCodeLine returns the first non-empty line of a fenced code block.
func firstCodeLine(block *ast.FencedCodeBlock, source []byte) string {
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		line := strings.TrimSpace(string(segment.Value(source)))
		if line != "" {
			return line
		}
	}
	return ""
}
