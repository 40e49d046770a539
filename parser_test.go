package cram

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		indent int
		kind   lineKind
		payload string
	}{
		{"command", "  $ echo hi", 2, kindCommand, "echo hi"},
		{"bare dollar", "  $", 2, kindCommand, ""},
		{"continuation", "  > more", 2, kindContinuation, "more"},
		{"bare gt", "  >", 2, kindContinuation, ""},
		{"output", "  hello", 2, kindOutput, "hello"},
		{"comment short indent", " hello", 2, kindComment, ""},
		{"comment no indent", "hello", 2, kindComment, ""},
		{"markdown command", "    $ echo hi", 4, kindCommand, "echo hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, payload := classify(tt.line, tt.indent)
			if kind != tt.kind {
				t.Errorf("kind = %v, want %v", kind, tt.kind)
			}
			if payload != tt.payload {
				t.Errorf("payload = %q, want %q", payload, tt.payload)
			}
		})
	}
}

func TestParseBasic(t *testing.T) {
	data := []byte("intro prose\n\n  $ echo hello\n  hello\n\n  $ echo bye\n  > continuation-of-second-command\n  bye\n")
	cmds := Parse(data, 2)
	if len(cmds) != 2 {
		t.Fatalf("len(cmds) = %d, want 2", len(cmds))
	}
	if cmds[0].CommandLines[0] != "echo hello" {
		t.Errorf("cmds[0] command = %q", cmds[0].CommandLines[0])
	}
	if len(cmds[0].Expected) != 1 || cmds[0].Expected[0].Text != "hello" {
		t.Errorf("cmds[0] expected = %+v", cmds[0].Expected)
	}
	if cmds[0].SourceLine != 3 {
		t.Errorf("cmds[0].SourceLine = %d, want 3", cmds[0].SourceLine)
	}
}

func TestParseMultilineCommand(t *testing.T) {
	data := []byte("  $ echo a \\\n  > && echo b\n  a\n  b\n")
	cmds := Parse(data, 2)
	if len(cmds) != 1 {
		t.Fatalf("len(cmds) = %d, want 1", len(cmds))
	}
	if len(cmds[0].CommandLines) != 2 {
		t.Fatalf("CommandLines = %v, want 2 lines", cmds[0].CommandLines)
	}
	if cmds[0].Script() != "echo a \\\n&& echo b" {
		t.Errorf("Script() = %q", cmds[0].Script())
	}
}

func TestParseNoTrailingCommandIsFlushed(t *testing.T) {
	data := []byte("  $ echo a\n  a\n")
	cmds := Parse(data, 2)
	if len(cmds) != 1 {
		t.Fatalf("len(cmds) = %d, want 1", len(cmds))
	}
}

func TestParseEmptyCommandBodyIsValid(t *testing.T) {
	data := []byte("  $ true\n")
	cmds := Parse(data, 2)
	if len(cmds) != 1 {
		t.Fatalf("len(cmds) = %d, want 1", len(cmds))
	}
	if len(cmds[0].Expected) != 0 {
		t.Errorf("Expected = %v, want empty", cmds[0].Expected)
	}
}

func TestParseExpectedLineAnnotations(t *testing.T) {
	tests := []struct {
		payload string
		text    string
		kind    Matcher
		noEOL   bool
	}{
		{"plain output", "plain output", MatchLiteral, false},
		{"\\d+ (re)", "\\d+", MatchRegex, false},
		{"foo* (glob)", "foo*", MatchGlob, false},
		{"a\\tb (esc)", "a\\tb", MatchEscape, false},
		{"no newline (no-eol)", "no newline", MatchLiteral, true},
		{"\\d+ (re) (no-eol)", "\\d+", MatchRegex, true},
	}
	for _, tt := range tests {
		el := parseExpectedLine(tt.payload)
		if el.Text != tt.text || el.Kind != tt.kind || el.NoEOL != tt.noEOL {
			t.Errorf("parseExpectedLine(%q) = {%q %v %v}, want {%q %v %v}",
				tt.payload, el.Text, el.Kind, el.NoEOL, tt.text, tt.kind, tt.noEOL)
		}
		if el.Original != tt.payload {
			t.Errorf("Original = %q, want %q", el.Original, tt.payload)
		}
	}
}
