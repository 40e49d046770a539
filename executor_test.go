package cram

import (
	"context"
	"os"
	"testing"
)

func TestExecutorRunBasic(t *testing.T) {
	cmds := []*TestCommand{
		expCmd(1, "echo one"),
		expCmd(2, "echo two"),
	}
	e := &Executor{Shell: "/bin/sh", Dir: t.TempDir(), Env: os.Environ()}
	results, err := e.Run(context.Background(), cmds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].Output != "one\n" || results[0].ExitCode != 0 {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].Output != "two\n" || results[1].ExitCode != 0 {
		t.Errorf("results[1] = %+v", results[1])
	}
}

func TestExecutorRunCapturesExitCode(t *testing.T) {
	cmds := []*TestCommand{expCmd(1, "(exit 3)")}
	e := &Executor{Shell: "/bin/sh", Dir: t.TempDir(), Env: os.Environ()}
	results, err := e.Run(context.Background(), cmds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", results[0].ExitCode)
	}
}

func TestExecutorRunSharesStateAcrossCommands(t *testing.T) {
	cmds := []*TestCommand{
		expCmd(1, "FOO=bar"),
		expCmd(2, "echo $FOO"),
	}
	e := &Executor{Shell: "/bin/sh", Dir: t.TempDir(), Env: os.Environ()}
	results, err := e.Run(context.Background(), cmds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[1].Output != "bar\n" {
		t.Errorf("results[1].Output = %q, want bar (single shell session)", results[1].Output)
	}
}

func TestExecutorRunMultilineOutput(t *testing.T) {
	cmds := []*TestCommand{expCmd(1, "printf 'a\\nb\\n'")}
	e := &Executor{Shell: "/bin/sh", Dir: t.TempDir(), Env: os.Environ()}
	results, err := e.Run(context.Background(), cmds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Output != "a\nb\n" {
		t.Errorf("Output = %q, want %q", results[0].Output, "a\nb\n")
	}
}

func TestExecutorRunStderrIsMerged(t *testing.T) {
	cmds := []*TestCommand{expCmd(1, "echo err-line 1>&2")}
	e := &Executor{Shell: "/bin/sh", Dir: t.TempDir(), Env: os.Environ()}
	results, err := e.Run(context.Background(), cmds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Output != "err-line\n" {
		t.Errorf("Output = %q, want %q", results[0].Output, "err-line\n")
	}
}

func TestSaltIsUniquePerCall(t *testing.T) {
	a, b := salt(), salt()
	if a == b {
		t.Error("salt() returned the same value twice in a row")
	}
	if len(a) <= len("QUIZZIG") {
		t.Errorf("salt() = %q, want QUIZZIG-prefixed hex suffix", a)
	}
}
