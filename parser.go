package cram

import "strings"

// lineKind classifies one physical line of a test file, relative to the
// configured indent width.
type lineKind int

const (
	kindComment lineKind = iota
	kindCommand
	kindContinuation
	kindOutput
)

const (
	noEOLSuffix = " (no-eol)"
	reSuffix    = " (re)"
	globSuffix  = " (glob)"
	escSuffix   = " (esc)"
)

// classify determines the kind of line and, for command/continuation/output
// lines, the payload bytes after the indent and marker.
func classify(line string, indent int) (kindLine lineKind, payload string) {
	if len(line) < indent {
		return kindComment, ""
	}
	for i := 0; i < indent; i++ {
		if line[i] != ' ' {
			return kindComment, ""
		}
	}
	rest := line[indent:]
	switch {
	case rest == "$" || strings.HasPrefix(rest, "$ "):
		return kindCommand, strings.TrimPrefix(strings.TrimPrefix(rest, "$"), " ")
	case rest == ">" || strings.HasPrefix(rest, "> "):
		return kindContinuation, strings.TrimPrefix(strings.TrimPrefix(rest, ">"), " ")
	default:
		return kindOutput, rest
	}
}

// Parse splits file bytes into an ordered sequence of test commands using
// the given indent width. Parse never fails: malformed input simply yields
// whatever the classification rules produce, including zero commands.
func Parse(data []byte, indent int) []*TestCommand {
	var (
		commands []*TestCommand
		cur      *TestCommand
	)
	text := string(data)
	lineno := 0
	for text != "" {
		var raw string
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			raw, text = text[:i], text[i+1:]
		} else {
			raw, text = text, ""
		}
		lineno++

		kindLine, payload := classify(raw, indent)
		switch kindLine {
		case kindCommand:
			if cur != nil {
				commands = append(commands, cur)
			}
			cur = &TestCommand{SourceLine: lineno, CommandLines: []string{payload}}
		case kindContinuation:
			if cur != nil {
				cur.CommandLines = append(cur.CommandLines, payload)
			}
		case kindOutput:
			if cur != nil {
				cur.Expected = append(cur.Expected, parseExpectedLine(payload))
			}
		case kindComment:
			if cur != nil {
				commands = append(commands, cur)
				cur = nil
			}
		}
	}
	if cur != nil {
		commands = append(commands, cur)
	}
	return commands
}

// parseExpectedLine strips the "(no-eol)" annotation, then a dialect
// annotation, recording both in the returned ExpectedLine.
func parseExpectedLine(payload string) ExpectedLine {
	el := ExpectedLine{Original: payload, Text: payload, Kind: MatchLiteral}

	if strings.HasSuffix(el.Text, noEOLSuffix) {
		el.NoEOL = true
		el.Text = el.Text[:len(el.Text)-len(noEOLSuffix)]
	}

	switch {
	case strings.HasSuffix(el.Text, reSuffix):
		el.Kind = MatchRegex
		el.Text = el.Text[:len(el.Text)-len(reSuffix)]
	case strings.HasSuffix(el.Text, globSuffix):
		el.Kind = MatchGlob
		el.Text = el.Text[:len(el.Text)-len(globSuffix)]
	case strings.HasSuffix(el.Text, escSuffix):
		el.Kind = MatchEscape
		el.Text = el.Text[:len(el.Text)-len(escSuffix)]
	}
	return el
}
