// Copyright 2024 The testscript Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package cram provides a regression-testing engine for shell behavior.

This package is heavily inspired by and adapted from the tsar/testscript
package originally developed by gfanton, itself inspired by the testscript
package from github.com/rogpeppe/go-internal/testscript. The overall
structure — a parser that turns a document into commands, an executor that
runs them under a real shell, and an orchestrator that wires the two
together for a directory of files — follows that lineage, adapted here to
the cram test-file format instead of a .tsar script.

A cram test file is prose interleaved with indented shell-session blocks:

	This paragraph is ignored.

	  $ echo hello
	  hello

	  $ echo "2024-01-15"
	  \d{4}-\d{2}-\d{2} (re)

Lines beginning with "$ " (after the configured indent) are commands;
continuation lines start with "> "; any other indented line is expected
output. Expected lines may carry a trailing annotation that selects a
matcher dialect: " (re)" for regex, " (glob)" for glob, " (esc)" for
escaped-byte comparison, and " (no-eol)" to mark the absence of a trailing
newline.

To run every *.t/*.md file in a directory:

	files, _ := cram.Discover("testdata")
	o, _ := cram.NewOrchestrator(cram.Options{})
	result, _ := o.RunFiles(context.Background(), files)
	if result.Failed > 0 {
		os.Exit(1)
	}

# Patch mode

Passing Options.Patch rewrites each failing file in place with the actual
output, exactly as `patch -p0` would after applying the tool's own diff.

# Project and suite configuration

A directory of test files may carry a cram.toml (see LoadProjectConfig)
describing a bin/ directory of helper scripts and global setup/teardown
scripts, and a cram-suite.yaml (see LoadSuiteManifest) grouping files into
named suites.

# Command-line tool

The cram command provides a standalone way to run test files:

	cram testdata/              # run all *.t and *.md files in testdata/
	cram testdata/basic.t       # run a specific file
	cram --verbose testdata/    # verbose progress output
	cram --patch testdata/      # rewrite failing files in place

Environment variables with CRAM_ prefix are also supported by the CLI.

# Attribution

Inspired by and adapted from the tsar package by gfanton, itself inspired
by the testscript package by Roger Peppe:
https://pkg.go.dev/github.com/rogpeppe/go-internal/testscript
*/
package cram
