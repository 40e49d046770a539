package cram

import (
	"strings"
	"testing"
)

func expCmd(sourceLine int, command string, expected ...string) *TestCommand {
	c := &TestCommand{SourceLine: sourceLine, CommandLines: []string{command}}
	for _, e := range expected {
		c.Expected = append(c.Expected, parseExpectedLine(e))
	}
	return c
}

func TestActualLinesSplitsAndDropsTrailing(t *testing.T) {
	res := CommandResult{Output: "one\ntwo\n", ExitCode: 0}
	got := actualLines(res, res.ExitCode)
	want := []string{"one", "two"}
	if !equalStrings(got, want) {
		t.Errorf("actualLines = %v, want %v", got, want)
	}
}

func TestActualLinesEmptyOutput(t *testing.T) {
	res := CommandResult{Output: "", ExitCode: 0}
	got := actualLines(res, res.ExitCode)
	if len(got) != 0 {
		t.Errorf("actualLines(empty) = %v, want empty", got)
	}
}

func TestActualLinesNonZeroExitAppendsMarker(t *testing.T) {
	res := CommandResult{Output: "oops\n", ExitCode: 1}
	got := actualLines(res, res.ExitCode)
	want := []string{"oops", "[1]"}
	if !equalStrings(got, want) {
		t.Errorf("actualLines = %v, want %v", got, want)
	}
}

func TestAlignCommandAllMatch(t *testing.T) {
	cmd := expCmd(3, "echo hello", "hello")
	res := CommandResult{Output: "hello\n", ExitCode: 0}
	lines := alignCommand(cmd, res)
	if len(lines) != 1 || lines[0].prefix != diffContext {
		t.Fatalf("alignCommand = %+v, want single context line", lines)
	}
}

func TestAlignCommandMismatchGroupsRemoveThenAdd(t *testing.T) {
	cmd := expCmd(3, "echo hello", "goodbye")
	res := CommandResult{Output: "hello\n", ExitCode: 0}
	lines := alignCommand(cmd, res)
	if len(lines) != 2 {
		t.Fatalf("alignCommand = %+v, want 2 lines", lines)
	}
	if lines[0].prefix != diffRemove || lines[0].text != "goodbye" {
		t.Errorf("lines[0] = %+v, want remove goodbye", lines[0])
	}
	if lines[1].prefix != diffAdd || lines[1].text != "hello" {
		t.Errorf("lines[1] = %+v, want add hello", lines[1])
	}
}

func TestAlignCommandExtraActualLinesAreAdditions(t *testing.T) {
	cmd := expCmd(3, "echo hi")
	res := CommandResult{Output: "hi\n", ExitCode: 0}
	lines := alignCommand(cmd, res)
	if len(lines) != 1 || lines[0].prefix != diffAdd || lines[0].text != "hi" {
		t.Errorf("alignCommand = %+v, want single add line", lines)
	}
}

func TestAlignCommandExtraExpectedLinesAreRemovals(t *testing.T) {
	cmd := expCmd(3, "true", "unexpected")
	res := CommandResult{Output: "", ExitCode: 0}
	lines := alignCommand(cmd, res)
	if len(lines) != 1 || lines[0].prefix != diffRemove || lines[0].text != "unexpected" {
		t.Errorf("alignCommand = %+v, want single remove line", lines)
	}
}

func TestRenderActualEscapesControlBytes(t *testing.T) {
	got := renderActual("a\x01b")
	if !strings.Contains(got, "(esc)") {
		t.Errorf("renderActual(%q) = %q, want (esc) suffix", "a\x01b", got)
	}
}

func TestBuildFileDiffPassing(t *testing.T) {
	cmds := []*TestCommand{expCmd(1, "echo hi", "hi")}
	results := []CommandResult{{Output: "hi\n", ExitCode: 0}}
	fd := BuildFileDiff("test.t", cmds, results)
	if fd.Failed {
		t.Error("fd.Failed = true, want false")
	}
}

func TestBuildFileDiffFailingProducesUnifiedDiff(t *testing.T) {
	cmds := []*TestCommand{expCmd(1, "echo hi", "bye")}
	results := []CommandResult{{Output: "hi\n", ExitCode: 0}}
	fd := BuildFileDiff("test.t", cmds, results)
	if !fd.Failed {
		t.Fatal("fd.Failed = false, want true")
	}
	origLines := []string{"  $ echo hi", "  bye"}
	out := fd.UnifiedDiff(origLines)
	if !strings.Contains(out, "--- test.t") || !strings.Contains(out, "+++ test.t") {
		t.Errorf("UnifiedDiff missing headers: %q", out)
	}
	if !strings.Contains(out, "-bye") || !strings.Contains(out, "+hi") {
		t.Errorf("UnifiedDiff missing expected diff lines: %q", out)
	}
}

func TestSortInts(t *testing.T) {
	s := []int{5, 1, 4, 2, 3}
	sortInts(s)
	want := []int{1, 2, 3, 4, 5}
	for i := range s {
		if s[i] != want[i] {
			t.Fatalf("sortInts = %v, want %v", s, want)
		}
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
