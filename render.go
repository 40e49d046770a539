package cram

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
)

// Render extracts the prose of a markdown-dialect test file — every line
// that is not a command, continuation, or output line — and renders it as
// HTML with goldmark, for documentation review. It does not execute
// anything (§4.5).
func Render(w io.Writer, data []byte, indent int) error {
	prose := proseLines(data, indent)
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(strings.Join(prose, "\n")), &buf); err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// proseLines returns the lines of data that classify as comments (plain
// prose) under the given indent width.
func proseLines(data []byte, indent int) []string {
	var out []string
	text := string(data)
	for text != "" {
		var line string
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			line, text = text[:i], text[i+1:]
		} else {
			line, text = text, ""
		}
		if kind, _ := classify(line, indent); kind == kindComment {
			out = append(out, line)
		}
	}
	return out
}
