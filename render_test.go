package cram

import (
	"bytes"
	"strings"
	"testing"
)

func TestProseLinesExtractsCommentsOnly(t *testing.T) {
	data := []byte("# Title\n\nSome prose.\n\n    $ echo hi\n    hi\n")
	lines := proseLines(data, 4)
	want := []string{"# Title", "", "Some prose.", ""}
	if !equalStrings(lines, want) {
		t.Errorf("proseLines = %v, want %v", lines, want)
	}
}

func TestRenderProducesHTML(t *testing.T) {
	data := []byte("# Title\n\nSome *prose*.\n\n    $ echo hi\n    hi\n")
	var buf bytes.Buffer
	if err := Render(&buf, data, 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "<h1") {
		t.Errorf("Render output missing <h1>: %q", out)
	}
	if !strings.Contains(out, "<em>prose</em>") {
		t.Errorf("Render output missing emphasis: %q", out)
	}
}
