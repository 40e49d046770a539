package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/cram-tools/cram"
	"github.com/peterbourgon/ff/v4"
)

type config struct {
	shell       string
	indent      int
	quiet       bool
	verbose     bool
	debug       bool
	patch       bool
	inheritEnv  bool
	envFlags    []string
	bindirs     []string
	keepTmpdir  bool
	workdirRoot string
	timeout     time.Duration
	suite       string
	watch       bool
	noColor     bool
}

func (cfg *config) registerFlags(fs *ff.FlagSet) {
	fs.StringVar(&cfg.shell, 0, "shell", "", "shell binary to run commands under (default: the project's shell, else /bin/sh)")
	fs.IntVar(&cfg.indent, 0, "indent", 0, "indent width (default 2 for .t, 4 for .md)")
	fs.BoolVar(&cfg.quiet, 'q', "quiet", "suppress diff output")
	fs.BoolVar(&cfg.verbose, 'v', "verbose", "one progress line per file")
	fs.BoolVar(&cfg.debug, 'd', "debug", "pass child output through, report all as passed")
	fs.BoolVar(&cfg.patch, 'i', "patch", "rewrite failing files in place")
	fs.BoolVar(&cfg.inheritEnv, 'E', "inherit-env", "inherit parent environment as base")
	fs.StringSetVar(&cfg.envFlags, 'e', "env", "VAR=VAL environment override (repeatable)")
	fs.StringSetVar(&cfg.bindirs, 0, "bindir", "prepend DIR to PATH (repeatable)")
	fs.BoolVar(&cfg.keepTmpdir, 0, "keep-tmpdir", "do not delete the temp tree")
	fs.StringVar(&cfg.workdirRoot, 'w', "workdir-root", "", "create per-file temp dirs under DIR; implies --keep-tmpdir")
	fs.DurationVar(&cfg.timeout, 0, "timeout", 0, "per-file wall-clock timeout")
	fs.StringVar(&cfg.suite, 0, "suite", "", "run only the named suite from cram-suite.yaml")
	fs.BoolVar(&cfg.watch, 0, "watch", "re-run changed files after reporting, until interrupted")
	fs.BoolVar(&cfg.noColor, 0, "no-color", "disable colorized progress output")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cmd := newCommand()
	if err := cmd.ParseAndRun(ctx, os.Args[1:], ff.WithEnvVarPrefix("CRAM")); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *ff.Command {
	var cfg config
	fs := ff.NewFlagSet("cram")
	cfg.registerFlags(fs)

	root := &ff.Command{
		Name:  "cram",
		Usage: "cram [FLAGS] PATH ...",
		Flags: fs,
		Exec: func(ctx context.Context, args []string) error {
			return run(ctx, &cfg, args)
		},
	}
	root.Subcommands = []*ff.Command{newRenderCommand()}
	return root
}

func newRenderCommand() *ff.Command {
	fs := ff.NewFlagSet("render")
	var indent int
	fs.IntVar(&indent, 0, "indent", 4, "indent width")
	return &ff.Command{
		Name:  "render",
		Usage: "cram render FILE.md",
		Flags: fs,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: cram render FILE.md")
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return cram.Render(os.Stdout, data, indent)
		},
	}
}

func run(ctx context.Context, cfg *config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("at least one path argument required")
	}

	files, dir, err := resolveTargets(args)
	if err != nil {
		return err
	}

	project, err := cram.LoadProjectConfig(dir)
	if err != nil {
		return err
	}
	if project.BinDir == "" && project.Setup == "" && project.Teardown == "" && project.Shell == "" && project.Indent == 0 {
		project = nil
	}

	var suite cram.Suite
	if cfg.suite != "" {
		manifest, err := cram.LoadSuiteManifest(dir)
		if err != nil {
			return err
		}
		if manifest == nil {
			return fmt.Errorf("no cram-suite.yaml found in %s", dir)
		}
		suiteFiles, err := manifest.Files(dir, cfg.suite)
		if err != nil {
			return err
		}
		files = suiteFiles
		suite = manifest.Suites[cfg.suite]
	}

	indent := cfg.indent

	opts := cram.Options{
		Shell:       cfg.shell,
		Indent:      indent,
		Quiet:       cfg.quiet,
		Verbose:     cfg.verbose,
		Debug:       cfg.debug,
		Patch:       cfg.patch,
		InheritEnv:  cfg.inheritEnv,
		Overrides:   cfg.envFlags,
		BinDirs:     cfg.bindirs,
		KeepTmp:     cfg.keepTmpdir || cfg.workdirRoot != "",
		WorkdirRoot: cfg.workdirRoot,
		Timeout:     cfg.timeout,
		NoColor:     cfg.noColor,
		Project:     project,
		Suite:       suite,
	}

	o, err := cram.NewOrchestrator(opts)
	if err != nil {
		return err
	}

	var result *cram.Result
	if cfg.watch {
		err = cram.Watch(ctx, dir, files, func(f string) {
			r, runErr := o.RunFiles(ctx, []string{f})
			if runErr != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
				return
			}
			result = r
		})
	} else {
		result, err = o.RunFiles(ctx, files)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "# %d passed, %d skipped, %d failed, %d patched\n",
		result.Passed, result.Skipped, result.Failed, result.Patched)

	if result.Failed > 0 {
		return fmt.Errorf("tests failed")
	}
	return nil
}

// resolveTargets expands args (files and/or directories) into a file list,
// in argument order with each directory's files sorted, plus the directory
// of the last target, used for project/suite discovery, per §1's
// file-discovery collaborator contract.
func resolveTargets(args []string) (files []string, dir string, err error) {
	for _, target := range args {
		info, statErr := os.Stat(target)
		if statErr != nil {
			return nil, "", fmt.Errorf("cannot access %s: %w", target, statErr)
		}
		abs, absErr := filepath.Abs(target)
		if absErr != nil {
			return nil, "", absErr
		}
		if info.IsDir() {
			found, discErr := cram.Discover(abs)
			if discErr != nil {
				return nil, "", discErr
			}
			files = append(files, found...)
			dir = abs
			continue
		}
		if !strings.HasSuffix(abs, ".t") && !strings.HasSuffix(abs, ".md") {
			return nil, "", fmt.Errorf("file must have .t or .md extension: %s", target)
		}
		files = append(files, abs)
		dir = filepath.Dir(abs)
	}
	return files, dir, nil
}
