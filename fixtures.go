package cram

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/tools/txtar"
)

// splitFixtures recognizes an optional leading txtar archive (§4.6): the
// comment section is the file's prose/command body; any "-- path --"
// sections are fixture files to materialize before the shell session
// starts. Files with no "\n-- " marker are returned unchanged with a nil
// fixture list.
func splitFixtures(data []byte) (body []byte, files []txtar.File) {
	if !bytes.Contains(data, []byte("\n-- ")) && !bytes.HasPrefix(data, []byte("-- ")) {
		return data, nil
	}
	ar := txtar.Parse(data)
	return ar.Comment, ar.Files
}

// materializeFixtures writes each fixture file into dir, creating parent
// directories as needed.
func materializeFixtures(dir string, files []txtar.File) error {
	for _, f := range files {
		target := filepath.Join(dir, f.Name)
		if err := os.MkdirAll(filepath.Dir(target), 0777); err != nil {
			return fmt.Errorf("fixture %s: %w", f.Name, err)
		}
		if err := os.WriteFile(target, f.Data, 0666); err != nil {
			return fmt.Errorf("fixture %s: %w", f.Name, err)
		}
	}
	return nil
}
