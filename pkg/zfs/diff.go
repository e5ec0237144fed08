package zfs

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/dozefs/dozefs/pkg/dataset"
)

// Diff compares a snapshot's data against another snapshot or filesystem.
// With an empty other identifier the snapshot is compared against its own
// filesystem's current data. Lines are "M\tpath" (modified), "-\tpath"
// (only in the snapshot), and "+\tpath" (only in the other dataset), with
// paths relative to the snapshot's data root.
func Diff(root *dataset.Root, snapName, otherIdent string) (string, error) {
	ref, err := root.Resolve(snapName, dataset.KindSnapshot, dataset.MustExist)
	if err != nil {
		return "", err
	}
	snap := ref.Snapshot()

	var otherData string
	if otherIdent == "" {
		otherData = snap.Filesystem().Mountpoint()
	} else {
		otherRef, err := root.Resolve(otherIdent, dataset.KindAny, dataset.MustExist)
		if err != nil {
			return "", err
		}
		if otherRef.Kind() == dataset.KindSnapshot {
			otherData = otherRef.Snapshot().DataPath()
		} else {
			otherData = otherRef.Filesystem().Mountpoint()
		}
	}

	var lines []string
	if err := diffDirs(snap.DataPath(), otherData, "", &lines); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

// diffDirs walks two directories in lockstep: per directory first modified
// files, then left-only entries, then right-only, then subdirectories.
func diffDirs(left, right, rel string, lines *[]string) error {
	leftEntries, err := readDirNames(left)
	if err != nil {
		return err
	}
	rightEntries, err := readDirNames(right)
	if err != nil {
		return err
	}

	var subdirs []string
	for _, name := range sortedNames(leftEntries) {
		leftEntry := leftEntries[name]
		rightEntry, ok := rightEntries[name]
		if !ok {
			continue
		}
		if leftEntry.IsDir() && rightEntry.IsDir() {
			subdirs = append(subdirs, name)
			continue
		}
		if leftEntry.Type().IsRegular() && rightEntry.Type().IsRegular() {
			same, err := sameContents(filepath.Join(left, name), filepath.Join(right, name))
			if err != nil {
				return err
			}
			if !same {
				*lines = append(*lines, "M\t"+filepath.Join(rel, name))
			}
		}
	}
	for _, name := range sortedNames(leftEntries) {
		if _, ok := rightEntries[name]; !ok {
			*lines = append(*lines, "-\t"+filepath.Join(rel, name))
		}
	}
	for _, name := range sortedNames(rightEntries) {
		if _, ok := leftEntries[name]; !ok {
			*lines = append(*lines, "+\t"+filepath.Join(rel, name))
		}
	}

	for _, name := range subdirs {
		err := diffDirs(filepath.Join(left, name), filepath.Join(right, name), filepath.Join(rel, name), lines)
		if err != nil {
			return err
		}
	}
	return nil
}

func sortedNames(entries map[string]os.DirEntry) []string {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func readDirNames(dir string) (map[string]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]os.DirEntry{}, nil
		}
		return nil, errors.Wrapf(err, "diff %s", dir)
	}
	byName := make(map[string]os.DirEntry, len(entries))
	for _, e := range entries {
		byName[e.Name()] = e
	}
	return byName, nil
}

func sameContents(left, right string) (bool, error) {
	a, err := os.ReadFile(left)
	if err != nil {
		return false, errors.Wrapf(err, "diff %s", left)
	}
	b, err := os.ReadFile(right)
	if err != nil {
		return false, errors.Wrapf(err, "diff %s", right)
	}
	return bytes.Equal(a, b), nil
}
