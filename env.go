package cram

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvSpec captures everything needed to build the per-file environment
// of §6.
type EnvSpec struct {
	InheritEnv bool
	Overrides  []string // "KEY=VAL", applied last, repeatable -e flags
	BinDirs    []string // --bindir, repeated; last flag wins (ends up first in PATH)
	ProjectBin []string // project bin/ wrapper dirs (§4.7), prepended ahead of everything

	TestDir   string // absolute directory of the test file
	TestFile  string // basename of the test file
	TestShell string // chosen shell path
	CramTmp   string // per-file temp dir
	RootDir   string // absolute cwd where the tool was invoked
}

// BuildEnv constructs the "KEY=VALUE" environment slice for one test
// file's shell session, following §6 exactly.
func BuildEnv(spec EnvSpec) []string {
	env := map[string]string{
		"LANG":          "C",
		"LC_ALL":        "C",
		"LANGUAGE":      "C",
		"TZ":            "GMT",
		"CDPATH":        "",
		"COLUMNS":       "80",
		"GREP_OPTIONS":  "",
		"TMPDIR":        spec.CramTmp,
		"TEMP":          spec.CramTmp,
		"TMP":           spec.CramTmp,
		"HOME":          spec.CramTmp,
		"CRAM":          "1",
		"TESTDIR":       spec.TestDir,
		"TESTFILE":      spec.TestFile,
		"TESTSHELL":     spec.TestShell,
		"CRAMTMP":       spec.CramTmp,
		"ROOTDIR":       spec.RootDir,
	}

	var base string
	if spec.InheritEnv {
		base = os.Getenv("PATH")
	} else {
		base = "/usr/local/bin:/usr/bin:/bin"
	}
	parts := append([]string{}, spec.ProjectBin...)
	for i := len(spec.BinDirs) - 1; i >= 0; i-- {
		parts = append(parts, spec.BinDirs[i])
	}
	parts = append(parts, base)
	env["PATH"] = strings.Join(parts, string(os.PathListSeparator))

	var result []string
	if spec.InheritEnv {
		for _, kv := range os.Environ() {
			k, _, ok := strings.Cut(kv, "=")
			if !ok {
				continue
			}
			if _, overridden := env[k]; overridden {
				continue
			}
			result = append(result, kv)
		}
	}
	for k, v := range env {
		result = append(result, k+"="+v)
	}
	for _, kv := range spec.Overrides {
		k, _, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		result = removeKey(result, k)
		result = append(result, kv)
	}
	return result
}

func removeKey(env []string, key string) []string {
	out := env[:0]
	for _, kv := range env {
		if k, _, ok := strings.Cut(kv, "="); ok && k == key {
			continue
		}
		out = append(out, kv)
	}
	return out
}

// testTempDir creates the per-file temp directory under root, named by the
// test file's basename, for the run's shared temp tree (§5).
func testTempDir(root, basename string) (string, error) {
	dir := filepath.Join(root, basename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create test tempdir: %w", err)
	}
	return dir, nil
}
