package cram

// Matcher names the dialect used to compare an expected line against
// actual shell output.
type Matcher int

const (
	// MatchLiteral requires a byte-for-byte match.
	MatchLiteral Matcher = iota
	// MatchGlob interprets '*' and '?' wildcards, fully anchored.
	MatchGlob
	// MatchRegex compiles the expected text as an anchored, dot-matches-newline regex.
	MatchRegex
	// MatchEscape unescapes the expected text before a literal comparison.
	MatchEscape
)

func (m Matcher) String() string {
	switch m {
	case MatchGlob:
		return "glob"
	case MatchRegex:
		return "re"
	case MatchEscape:
		return "esc"
	default:
		return "literal"
	}
}

// ExpectedLine is one unit of expected output attached to a TestCommand.
type ExpectedLine struct {
	// Text is the expected content with any trailing annotation stripped.
	Text string
	// Original is the full line as written, before any stripping. It is
	// tried first as a literal match (see Match).
	Original string
	// Kind selects the matcher dialect.
	Kind Matcher
	// NoEOL is true when the source line carried the "(no-eol)" annotation.
	NoEOL bool
}

// TestCommand is one executable unit in a test file.
type TestCommand struct {
	// SourceLine is the 1-based line number of the command's first
	// physical line in the file.
	SourceLine int
	// CommandLines holds the command text: index 0 is the text after the
	// prompt marker, later entries are "> " continuation lines.
	CommandLines []string
	// Expected holds the command's expected-output lines, in file order.
	Expected []ExpectedLine
}

// Script joins CommandLines into the shell-executable text of the command.
func (c *TestCommand) Script() string {
	s := c.CommandLines[0]
	for _, cont := range c.CommandLines[1:] {
		s += "\n" + cont
	}
	return s
}

// EndLine is the line number one past the command's expected-output block,
// i.e. the correction window's exclusive end for patch mode.
func (c *TestCommand) EndLine() int {
	return c.SourceLine + len(c.CommandLines) + len(c.Expected)
}

// CommandResult is produced by the Executor for one TestCommand.
type CommandResult struct {
	// Output is the combined stdout+stderr captured for the command, with
	// its single trailing newline (emitted by the marker) removed.
	Output string
	// ExitCode is the command's exit status, 0-255.
	ExitCode int
}
