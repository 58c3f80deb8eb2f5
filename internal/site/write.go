package site

import (
	"os"
	"path/filepath"

	berrors "git.home.luguber.info/inful/blogsmith/internal/errors"
)

// WriteTree writes a snapshot to disk.
//
// With clean set, the tree is staged into a sibling temp directory and
// swapped into place, so a failed write never leaves a half-written output
// directory. Without clean, files are written over the existing tree in
// place (stale files from removed posts are left behind).
func WriteTree(snap *Snapshot, dir string, clean bool) error {
	if clean {
		return writeStaged(snap, dir)
	}
	return writeFiles(snap, dir)
}

func writeStaged(snap *Snapshot, dir string) error {
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return berrors.EnvironmentWrap(err, "create output parent")
	}
	stage, err := os.MkdirTemp(parent, ".blogsmith-stage-")
	if err != nil {
		return berrors.EnvironmentWrap(err, "create staging directory")
	}
	defer os.RemoveAll(stage)

	if err := writeFiles(snap, stage); err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return berrors.EnvironmentWrap(err, "remove old output tree")
	}
	if err := os.Rename(stage, dir); err != nil {
		return berrors.EnvironmentWrap(err, "swap staged output into place")
	}
	return nil
}

func writeFiles(snap *Snapshot, dir string) error {
	for _, p := range snap.Paths() {
		data, _ := snap.Get(p)
		target := filepath.Join(dir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return berrors.EnvironmentWrap(err, "create output directory")
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return berrors.EnvironmentWrap(err, "write "+p)
		}
	}
	return nil
}
