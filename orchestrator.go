package cram

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// Options configures one Orchestrator run (§4.5, §6's CLI surface).
type Options struct {
	Shell       string
	Indent      int
	Quiet       bool
	Verbose     bool
	Debug       bool
	Patch       bool
	InheritEnv  bool
	Overrides   []string
	BinDirs     []string
	KeepTmp     bool
	WorkdirRoot string
	Timeout     time.Duration
	NoColor     bool

	Project *ProjectConfig // nil if the directory has no cram.toml and no conventional bin/, setup.sh or teardown.sh
	Suite   Suite           // zero value if not running a named suite

	Stdout, Stderr io.Writer
}

// FileOutcome is the per-file result of one orchestrator pass.
type FileOutcome struct {
	Path   string
	Status byte // '.', 's', '!', 'P', 'E'
	Reason string
	Diff   string
}

// Result aggregates counts and diffs across every file of a run.
type Result struct {
	Passed, Skipped, Failed, Patched, Errored int
	Outcomes                                  []FileOutcome
}

// Orchestrator runs cram test files per §4.5.
type Orchestrator struct {
	Opts      Options
	rootDir   string
	tmpRoot   string
	progCol   int // current column of the terse progress line
	progWidth int // terminal width for wrapping terse progress output
}

// NewOrchestrator builds an Orchestrator with the given options, resolving
// the tool's own cwd as ROOTDIR.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return &Orchestrator{Opts: opts, rootDir: root, progWidth: terminalWidth()}, nil
}

// terminalWidth queries the real terminal width for wrapping the terse
// progress line (§6); it does not affect the fixed COLUMNS=80 injected into
// each test's environment. Falls back to 80 when stderr isn't a terminal.
func terminalWidth() int {
	fd := int(os.Stderr.Fd())
	if !isatty.IsTerminal(uintptr(fd)) {
		return 80
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// RunFiles evaluates each file in order and returns the aggregate Result.
// Per §4.5 it never stops early on a per-file failure; only run-wide setup
// errors (temp-tree creation, workdir-root locking, the global setup
// script) can abort the whole run before any file executes.
func (o *Orchestrator) RunFiles(ctx context.Context, files []string) (*Result, error) {
	tmpRoot, cleanup, err := o.prepareTmpRoot()
	if err != nil {
		return nil, err
	}
	defer cleanup()
	o.tmpRoot = tmpRoot

	unlock, err := lockWorkdirRoot(o.workdirRootIfKept())
	if err != nil {
		return nil, err
	}
	defer unlock()

	if o.Opts.Project != nil && o.Opts.Project.Setup != "" {
		if err := RunGlobalScript(o.Opts.Project.Dir(), o.Opts.Project.Shell, o.Opts.Project.Setup); err != nil {
			return nil, fmt.Errorf("global setup: %w", err)
		}
	}
	if o.Opts.Project != nil {
		defer o.Opts.Project.runTeardown()
	}

	res := &Result{}
	for _, f := range files {
		outcome := o.runOne(ctx, f)
		o.tally(res, outcome)
		o.reportProgress(outcome)
		res.Outcomes = append(res.Outcomes, outcome)
	}
	o.flushDiffs(res)
	return res, nil
}

func (o *Orchestrator) workdirRootIfKept() string {
	if o.Opts.KeepTmp {
		return o.Opts.WorkdirRoot
	}
	return ""
}

func (o *Orchestrator) prepareTmpRoot() (string, func(), error) {
	root := o.Opts.WorkdirRoot
	if root == "" {
		nonce := saltNonceHex()
		root = filepath.Join(os.TempDir(), fmt.Sprintf("cramtests-%d-%s", time.Now().Unix(), nonce))
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", nil, fmt.Errorf("create temp tree: %w", err)
	}
	cleanup := func() {}
	if !o.Opts.KeepTmp && o.Opts.WorkdirRoot == "" {
		cleanup = func() { os.RemoveAll(root) }
	}
	return root, cleanup, nil
}

func saltNonceHex() string {
	s := salt()
	return s[len("QUIZZIG"):]
}

// runOne parses, sets up, executes, and diffs a single file.
func (o *Orchestrator) runOne(ctx context.Context, path string) FileOutcome {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileOutcome{Path: path, Status: 'E', Reason: err.Error()}
	}

	body, fixtures := splitFixtures(data)

	indent := o.Opts.Indent
	if indent == 0 && o.Opts.Project != nil {
		indent = o.Opts.Project.Indent
	}
	if indent == 0 {
		indent = defaultIndent(path)
	}
	cmds := Parse(body, indent)
	if len(cmds) == 0 {
		return FileOutcome{Path: path, Status: 's', Reason: "(no commands)"}
	}

	tmpDir, err := testTempDir(o.tmpRoot, filepath.Base(path))
	if err != nil {
		return FileOutcome{Path: path, Status: 'E', Reason: err.Error()}
	}
	if err := materializeFixtures(tmpDir, fixtures); err != nil {
		return FileOutcome{Path: path, Status: 'E', Reason: err.Error()}
	}

	shell := o.Opts.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	if o.Opts.Project != nil && o.Opts.Project.Shell != "" && o.Opts.Shell == "" {
		shell = o.Opts.Project.Shell
	}

	var projectBin []string
	if o.Opts.Project != nil {
		dirs, cleanup, err := o.Opts.Project.PrepareBinDir()
		if err != nil {
			return FileOutcome{Path: path, Status: 'E', Reason: err.Error()}
		}
		defer cleanup()
		projectBin = dirs
	}

	absPath, _ := filepath.Abs(path)
	overrides := append(o.Opts.Suite.EnvOverrides(), o.Opts.Overrides...)
	env := BuildEnv(EnvSpec{
		InheritEnv: o.Opts.InheritEnv,
		Overrides:  overrides,
		BinDirs:    o.Opts.BinDirs,
		ProjectBin: projectBin,
		TestDir:    filepath.Dir(absPath),
		TestFile:   filepath.Base(path),
		TestShell:  shell,
		CramTmp:    tmpDir,
		RootDir:    o.rootDir,
	})

	runCtx := ctx
	var cancel context.CancelFunc
	if o.Opts.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, o.Opts.Timeout)
		defer cancel()
	}

	exec := &Executor{
		Shell:  shell,
		Dir:    tmpDir,
		Env:    env,
		Debug:  o.Opts.Debug,
		Stdout: o.Opts.Stdout,
		Stderr: o.Opts.Stderr,
	}
	results, err := exec.Run(runCtx, cmds)
	if err != nil {
		return FileOutcome{Path: path, Status: 'E', Reason: err.Error()}
	}

	if o.Opts.Debug {
		return FileOutcome{Path: path, Status: '.'}
	}

	if reason, ok := skipReason(cmds, results); ok {
		return FileOutcome{Path: path, Status: 's', Reason: reason}
	}

	fd := BuildFileDiff(path, cmds, results)
	if !fd.Failed {
		return FileOutcome{Path: path, Status: '.'}
	}

	if o.Opts.Patch {
		writeFile := func(name string, data []byte) error {
			perm := os.FileMode(0644)
			if info, statErr := os.Stat(name); statErr == nil {
				perm = info.Mode().Perm()
			}
			return os.WriteFile(name, data, perm)
		}
		patched, err := Patch(path, data, cmds, results, indent, writeFile)
		if err != nil {
			return FileOutcome{Path: path, Status: 'E', Reason: err.Error()}
		}
		if patched {
			return FileOutcome{Path: path, Status: 'P'}
		}
	}

	origLines := splitKeepEmpty(string(body))
	diffText := fd.UnifiedDiff(origLines)
	return FileOutcome{Path: path, Status: '!', Diff: diffText}
}

// skipReason reports whether any command exited 80, the skip code of §6.
func skipReason(cmds []*TestCommand, results []CommandResult) (string, bool) {
	for i, res := range results {
		if res.ExitCode == 80 {
			return cmds[i].CommandLines[0], true
		}
	}
	return "", false
}

func defaultIndent(path string) int {
	if filepath.Ext(path) == ".md" {
		return 4
	}
	return 2
}

func (o *Orchestrator) tally(res *Result, outcome FileOutcome) {
	switch outcome.Status {
	case '.':
		res.Passed++
	case 's':
		res.Skipped++
	case '!':
		res.Failed++
	case 'P':
		res.Patched++
	case 'E':
		res.Errored++
		res.Failed++
	}
}

func (o *Orchestrator) reportProgress(outcome FileOutcome) {
	if o.Opts.Verbose {
		fmt.Fprintf(o.Opts.Stderr, "%c %s\n", outcome.Status, outcome.Path)
		return
	}
	fmt.Fprint(o.Opts.Stderr, o.colorize(outcome.Status))
	o.progCol++
	if o.progWidth > 0 && o.progCol >= o.progWidth {
		fmt.Fprintln(o.Opts.Stderr)
		o.progCol = 0
	}
}

func (o *Orchestrator) colorize(status byte) string {
	s := string(rune(status))
	if o.Opts.NoColor || !isatty.IsTerminal(os.Stderr.Fd()) {
		return s
	}
	switch status {
	case '.':
		return color.GreenString(s)
	case 's', 'P':
		return color.YellowString(s)
	case '!', 'E':
		return color.RedString(s)
	default:
		return s
	}
}

func (o *Orchestrator) flushDiffs(res *Result) {
	if o.Opts.Quiet {
		return
	}
	for _, outcome := range res.Outcomes {
		if outcome.Diff != "" {
			fmt.Fprint(o.Opts.Stdout, outcome.Diff)
		}
	}
}

// Discover finds every *.t/*.md file directly inside dir, sorted. It is
// the file-discovery collaborator named as out-of-scope in §1: the core
// takes an explicit file list, and the CLI layer (cmd/cram) is the only
// caller of Discover.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !isTestFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}
