package generator

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var fenceMarker = regexp.MustCompile("```[A-Za-z0-9_+-]*")

// CleanOutput strips the formatting generation services wrap around a document. When the text
// contains fenced code blocks only their contents are kept. Remaining fence markers and lines
// that are entirely a // or # comment are removed, and the result is trimmed.
func CleanOutput(raw string) string {
	src := []byte(raw)
	blocks := fencedBlocks(src)
	if len(blocks) == 0 {
		blocks = indentedFences(raw)
	}
	if len(blocks) > 0 {
		src = bytes.Join(blocks, []byte("\n"))
	}

	lines := strings.Split(strings.ReplaceAll(string(src), "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if fenceMarker.MatchString(line) {
			line = fenceMarker.ReplaceAllString(line, "")
			if strings.TrimSpace(line) == "" {
				continue
			}
		}
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func fencedBlocks(src []byte) [][]byte {
	root := goldmark.New().Parser().Parse(text.NewReader(src))
	var blocks [][]byte
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		fcb, ok := n.(*gmast.FencedCodeBlock)
		if !ok {
			return gmast.WalkContinue, nil
		}
		var buf bytes.Buffer
		lines := fcb.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		blocks = append(blocks, bytes.TrimRight(buf.Bytes(), "\n"))
		return gmast.WalkSkipChildren, nil
	})
	return blocks
}

// indentedFences finds fences that markdown treats as indented code (four or more
// leading spaces). Each block is dedented by its opening fence's indentation; blocks
// with no content are dropped.
func indentedFences(raw string) [][]byte {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	var (
		blocks  [][]byte
		current []string
		indent  = -1
	)
	flush := func() {
		body := strings.Join(current, "\n")
		if strings.TrimSpace(body) != "" {
			blocks = append(blocks, []byte(body))
		}
		current = nil
	}
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, "```") {
			if indent < 0 {
				indent = len(line) - len(trimmed)
				continue
			}
			flush()
			indent = -1
			continue
		}
		if indent >= 0 {
			current = append(current, dedent(line, indent))
		}
	}
	if indent >= 0 {
		flush()
	}
	return blocks
}

func dedent(line string, n int) string {
	i := 0
	for i < n && i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[i:]
}
