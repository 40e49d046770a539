package cram

import (
	"context"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch re-runs runOne for any *.t/*.md file under dir whose contents
// change, until ctx is cancelled (§4.5's --watch flag). It runs an initial
// pass over all files before watching for further changes.
func Watch(ctx context.Context, dir string, files []string, runOne func(string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}

	for _, f := range files {
		runOne(f)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !isTestFile(ev.Name) {
				continue
			}
			runOne(ev.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch: %v", err)
		}
	}
}

func isTestFile(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".t" || ext == ".md"
}
