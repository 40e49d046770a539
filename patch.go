package cram

import (
	"fmt"
	"strings"
)

// correction is a replacement of the expected-output block of one command,
// per §4.4's patch mode: lines [Start,End) in the original file are
// replaced by NewLines.
type correction struct {
	Start, End int
	NewLines   []string
}

// buildCorrections produces one correction per failing command: the
// command's expected block, indented and annotated to match the actual
// output, plus a trailing "[<exit>]" line on non-zero exit.
func buildCorrections(cmds []*TestCommand, results []CommandResult, indent int) []correction {
	pad := strings.Repeat(" ", indent)
	var out []correction
	for i, cmd := range cmds {
		var res CommandResult
		if i < len(results) {
			res = results[i]
		}
		diffLines := alignCommand(cmd, res)
		failed := false
		for _, dl := range diffLines {
			if dl.prefix != diffContext {
				failed = true
				break
			}
		}
		if !failed {
			continue
		}

		start := cmd.SourceLine + len(cmd.CommandLines)
		end := start + len(cmd.Expected)

		actual := actualLines(res, res.ExitCode)
		newLines := make([]string, 0, len(actual))
		for _, line := range actual {
			if needsEscaping(line) {
				newLines = append(newLines, pad+escape(line)+escSuffix)
			} else {
				newLines = append(newLines, pad+line)
			}
		}
		out = append(out, correction{Start: start, End: end, NewLines: newLines})
	}
	return out
}

// ApplyCorrections streams the original file origLines, replacing each
// correction's [Start,End) window (1-based, commands in file order so
// corrections are already sorted) with its NewLines. trailingNewline
// controls whether the rewritten body ends with a trailing newline,
// matching the original file's own trailing-newline state.
func ApplyCorrections(origLines []string, corrections []correction, trailingNewline bool) string {
	var b strings.Builder
	ci := 0
	lineno := 1
	for lineno <= len(origLines) || (ci < len(corrections) && corrections[ci].Start == lineno) {
		if ci < len(corrections) && corrections[ci].Start == lineno {
			c := corrections[ci]
			for _, nl := range c.NewLines {
				b.WriteString(nl)
				b.WriteByte('\n')
			}
			lineno = c.End
			ci++
			continue
		}
		b.WriteString(origLines[lineno-1])
		b.WriteByte('\n')
		lineno++
	}
	body := b.String()
	if !trailingNewline {
		body = strings.TrimSuffix(body, "\n")
	}
	return body
}

// Patch rewrites the test file at path in place using the actual output of
// results, returning an error describing why if the write fails. It
// returns (false, nil) when there was nothing to correct.
func Patch(path string, data []byte, cmds []*TestCommand, results []CommandResult, indent int, writeFile func(string, []byte) error) (bool, error) {
	corrections := buildCorrections(cmds, results, indent)
	if len(corrections) == 0 {
		return false, nil
	}

	trailingNewline := len(data) > 0 && data[len(data)-1] == '\n'
	origLines := splitKeepEmpty(string(data))
	body := ApplyCorrections(origLines, corrections, trailingNewline)

	if err := writeFile(path, []byte(body)); err != nil {
		return false, fmt.Errorf("patch %s: %w", path, err)
	}
	return true, nil
}

// splitKeepEmpty splits s on '\n' into physical lines without a trailing
// empty element for a final newline (mirroring how the parser counts
// source lines).
func splitKeepEmpty(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
