package cram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// maxCapturedOutput bounds the shell's combined stdout+stderr per file, per §5.
const maxCapturedOutput = 10 << 20 // 10 MiB

// Executor runs all commands of one test file in a single shell session.
type Executor struct {
	// Shell is the shell binary to invoke (default "/bin/sh").
	Shell string
	// Dir is the working directory the shell is started in.
	Dir string
	// Env is the full environment passed to the shell ("KEY=VALUE" pairs).
	Env []string
	// Debug runs the script without markers and lets the shell inherit the
	// tool's stdout/stderr, per §4.2's debug mode.
	Debug bool
	// Stdout/Stderr receive the child's output when Debug is set.
	Stdout, Stderr io.Writer
}

// salt returns a fresh per-run marker prefix, derived from a uuid.v4 draw
// rather than hand-rolled randomness (see §4.2, §9).
func salt() string {
	id := uuid.New()
	hi := uint64(0)
	for _, b := range id[:8] {
		hi = hi<<8 | uint64(b)
	}
	return "QUIZZIG" + strconv.FormatUint(hi, 16)
}

// Run executes cmds in one shell session and returns one CommandResult per
// command, in order. Indices past the last marker the shell emitted (if it
// died early) default to {"", 0}.
func (e *Executor) Run(ctx context.Context, cmds []*TestCommand) ([]CommandResult, error) {
	results := make([]CommandResult, len(cmds))

	shell := e.Shell
	if shell == "" {
		shell = "/bin/sh"
	}

	s := salt()
	script := e.buildScript(cmds, s)

	cmd := exec.CommandContext(ctx, shell, "-c", "exec 2>&1; sh")
	cmd.Dir = e.Dir
	cmd.Env = e.Env
	cmd.Stdin = strings.NewReader(script)

	if e.Debug {
		cmd.Stdout = e.Stdout
		cmd.Stderr = e.Stderr
		err := cmd.Run()
		return results, runErrIgnoringExit(err)
	}

	var buf bytes.Buffer
	cmd.Stdout = &limitedWriter{w: &buf, max: maxCapturedOutput}
	if err := cmd.Start(); err != nil {
		return results, err
	}
	waitErr := cmd.Wait()

	scanMarkers(buf.Bytes(), s, results)
	return results, runErrIgnoringExit(waitErr)
}

// runErrIgnoringExit treats a non-zero shell exit as expected: individual
// command failures are reported by the marker's exit code, not the shell's.
func runErrIgnoringExit(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*exec.ExitError); ok {
		return nil
	}
	return err
}

// buildScript renders cmds (and their marker emitters) as a single shell
// script, per §4.2 steps 1-2. When e.Debug is set, no markers are emitted.
func (e *Executor) buildScript(cmds []*TestCommand, s string) string {
	var b strings.Builder
	for i, c := range cmds {
		b.WriteString(c.Script())
		b.WriteByte('\n')
		if e.Debug {
			continue
		}
		fmt.Fprintf(&b, "cramexit__=$?\nenv printf '\\n%s %d %%d\\n' \"$cramexit__\"\n", s, i)
	}
	return b.String()
}

// scanMarkers performs the streaming scan of §4.2 step 5: it walks the
// captured bytes line by line, accumulating non-marker lines into a
// running buffer and recording a CommandResult each time a marker line
// (salt-prefixed) is found.
func scanMarkers(data []byte, s string, results []CommandResult) {
	prefix := []byte(s + " ")
	var buf bytes.Buffer
	rest := data
	for len(rest) > 0 {
		var line []byte
		if i := bytes.IndexByte(rest, '\n'); i >= 0 {
			line, rest = rest[:i], rest[i+1:]
		} else {
			line, rest = rest, nil
		}
		if bytes.HasPrefix(line, prefix) {
			idx, code, ok := parseMarker(line, prefix)
			if ok && idx >= 0 && idx < len(results) {
				out := buf.String()
				out = strings.TrimSuffix(out, "\n")
				results[idx] = CommandResult{Output: out, ExitCode: code}
			}
			buf.Reset()
			continue
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
}

// parseMarker parses "<prefix><index> <exitcode>" from a marker line.
func parseMarker(line, prefix []byte) (index, code int, ok bool) {
	fields := strings.Fields(string(line[len(prefix):]))
	if len(fields) != 2 {
		return 0, 0, false
	}
	idx, err1 := strconv.Atoi(fields[0])
	c, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return idx, c, true
}

// limitedWriter discards bytes past max, bounding the streaming read to
// the 10 MiB cap of §5 without buffering the excess.
type limitedWriter struct {
	w   io.Writer
	n   int
	max int
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if l.n >= l.max {
		return len(p), nil
	}
	remain := l.max - l.n
	if remain > len(p) {
		remain = len(p)
	}
	n, err := l.w.Write(p[:remain])
	l.n += n
	return len(p), err
}
