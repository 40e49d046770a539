package cram

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// lockWorkdirRoot takes an advisory lock on a sentinel file inside a
// user-supplied --workdir-root, so two concurrent invocations sharing a
// kept root don't race to create the same per-file subdirectory (§4.5).
// The returned unlock func is a no-op if root is empty.
func lockWorkdirRoot(root string) (unlock func(), err error) {
	if root == "" {
		return func() {}, nil
	}
	fl := flock.New(filepath.Join(root, ".cram.lock"))
	if err := fl.Lock(); err != nil {
		return func() {}, fmt.Errorf("lock workdir root %s: %w", root, err)
	}
	return func() { fl.Unlock() }, nil
}
