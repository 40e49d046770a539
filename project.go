package cram

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// ProjectConfig holds convention-based configuration for a directory of
// cram test files, per §4.7.
type ProjectConfig struct {
	BinDir   string `toml:"bin"`
	Setup    string `toml:"setup"`
	Teardown string `toml:"teardown"`
	Shell    string `toml:"shell"`
	Indent   int    `toml:"indent"`
	dir      string // resolved absolute base directory
}

// projectField binds one convention-based path field to its TOML override
// (if any) and the predicate that decides whether an auto-detected
// candidate counts as present.
type projectField struct {
	dst        *string
	tomlVal    string
	desc       string
	convention string
	check      func(string) bool
}

// LoadProjectConfig loads project configuration from a directory. It reads
// cram.toml if present, then resolves bin/setup/teardown in a single pass:
// an explicit TOML value must exist on disk or the load fails outright;
// an absent TOML value falls back to the conventional name (bin/,
// setup.sh, teardown.sh) if present. All paths in the returned config are
// absolute.
func LoadProjectConfig(dir string) (*ProjectConfig, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve project dir: %w", err)
	}

	cfg := &ProjectConfig{dir: absDir}

	var declared ProjectConfig
	tomlPath := filepath.Join(absDir, "cram.toml")
	data, err := os.ReadFile(tomlPath)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &declared); err != nil {
			return nil, fmt.Errorf("cram.toml: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// no project file; everything falls back to convention below
	default:
		return nil, fmt.Errorf("cram.toml: %w", err)
	}

	cfg.Shell = declared.Shell
	cfg.Indent = declared.Indent

	for _, f := range []projectField{
		{&cfg.BinDir, declared.BinDir, "bin directory", "bin", isDir},
		{&cfg.Setup, declared.Setup, "setup script", "setup.sh", isFile},
		{&cfg.Teardown, declared.Teardown, "teardown script", "teardown.sh", isFile},
	} {
		if f.tomlVal != "" {
			abs := filepath.Join(absDir, f.tomlVal)
			if !f.check(abs) {
				return nil, fmt.Errorf("cram.toml: %s %q not found", f.desc, f.tomlVal)
			}
			*f.dst = abs
			continue
		}
		if candidate := filepath.Join(absDir, f.convention); f.check(candidate) {
			*f.dst = candidate
		}
	}

	return cfg, nil
}

// Dir returns the project's resolved absolute base directory.
func (cfg *ProjectConfig) Dir() string { return cfg.dir }

// resolvedShell is the shell cfg's own scripts (bin wrappers, global setup
// and teardown) run under, falling back to the orchestrator's own default
// when the project doesn't declare one.
func (cfg *ProjectConfig) resolvedShell() string {
	if cfg.Shell != "" {
		return cfg.Shell
	}
	return "/bin/sh"
}

// PrepareBinDir walks the project's bin directory (including
// subdirectories, so a suite may keep its own helpers under e.g.
// bin/smoke/) and, for every .sh file found, writes an extension-less
// wrapper under a fresh temp dir that execs it with cfg's own configured
// shell — not a hardcoded one, so a project pinning `shell = "/bin/bash"`
// gets bash-flavored helpers too. Wrapper names collapse nested paths with
// "__" to avoid collisions across subdirectories. Returns PATH entries to
// prepend: the wrapper dir first, the bin dir itself second (so non-.sh
// executables at its top level are still reachable directly).
func (cfg *ProjectConfig) PrepareBinDir() (pathDirs []string, cleanup func(), err error) {
	cleanup = func() {}

	if cfg.BinDir == "" {
		return nil, cleanup, nil
	}

	wrapperDir, err := os.MkdirTemp("", "cram-bin-*")
	if err != nil {
		return nil, cleanup, fmt.Errorf("bin dir: create wrapper tree: %w", err)
	}
	cleanup = func() { os.RemoveAll(wrapperDir) }

	shell := cfg.resolvedShell()
	walkErr := filepath.WalkDir(cfg.BinDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || filepath.Ext(d.Name()) != ".sh" {
			return nil
		}
		rel, err := filepath.Rel(cfg.BinDir, path)
		if err != nil {
			return err
		}
		wrapperName := strings.TrimSuffix(strings.ReplaceAll(rel, string(filepath.Separator), "__"), ".sh")
		wrapper := fmt.Sprintf("#!/bin/sh\nexec %q %q \"$@\"\n", shell, path)
		if err := os.WriteFile(filepath.Join(wrapperDir, wrapperName), []byte(wrapper), 0755); err != nil {
			return fmt.Errorf("wrap %s: %w", rel, err)
		}
		return nil
	})
	if walkErr != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("bin dir: %w", walkErr)
	}

	return []string{wrapperDir, cfg.BinDir}, cleanup, nil
}

// RunGlobalScript runs a project-wide setup/teardown script under shell
// (falling back to /bin/sh when empty), with dir as its working directory.
func RunGlobalScript(dir, shell, scriptPath string) error {
	if shell == "" {
		shell = "/bin/sh"
	}
	cmd := exec.Command(shell, scriptPath)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w\n%s", filepath.Base(scriptPath), err, output)
	}
	return nil
}

// runTeardown runs cfg's teardown script under cfg's own shell, logging
// (not failing) on error — a failed global teardown must never mask the
// run's actual test results.
func (cfg *ProjectConfig) runTeardown() {
	if cfg.Teardown == "" {
		return
	}
	if err := RunGlobalScript(cfg.dir, cfg.Shell, cfg.Teardown); err != nil {
		log.Printf("warning: global teardown failed: %v", err)
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
