package dataset

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	cp "github.com/otiai10/copy"
	"github.com/pkg/errors"

	"github.com/dozefs/dozefs/internal/logger"
)

// Filesystem is a node in a pool's hierarchical namespace. Its identity is
// its fully-qualified name (pool[/sub...]); everything else, including the
// parent and the owning pool, is derived from the name on demand.
type Filesystem struct {
	root *Root
	name string
}

// Filesystem returns a handle on the named filesystem. No existence check
// is performed.
func (r *Root) Filesystem(name string) *Filesystem {
	return &Filesystem{root: r, name: name}
}

func (f *Filesystem) Name() string { return f.name }

// SafeName returns the on-disk directory entry name ('/' escaped).
func (f *Filesystem) SafeName() string {
	return EscapeName(f.name)
}

// Pool returns the owning pool, derived from the first name component.
func (f *Filesystem) Pool() *Pool {
	return f.root.Pool(PoolName(f.name))
}

// PoollessName returns the name with the pool component stripped; empty for
// a pool's root filesystem.
func (f *Filesystem) PoollessName() string {
	if i := strings.Index(f.name, "/"); i >= 0 {
		return f.name[i+1:]
	}
	return ""
}

func (f *Filesystem) Dir() string {
	return filepath.Join(f.Pool().FilesystemsDir(), f.SafeName())
}

func (f *Filesystem) DataPath() string {
	return filepath.Join(f.Dir(), "data")
}

func (f *Filesystem) PropertiesPath() string {
	return filepath.Join(f.Dir(), "properties")
}

// SnapshotsDir returns the directory holding the filesystem's snapshots.
func (f *Filesystem) SnapshotsDir() string {
	return filepath.Join(f.Dir(), "snapshots")
}

func (f *Filesystem) Exists() bool {
	_, err := os.Stat(f.Dir())
	return err == nil
}

// Parent returns the parent filesystem (name split on the last '/'), or the
// owning pool for a depth-0 filesystem.
func (f *Filesystem) Parent() Dataset {
	if parent, ok := parentName(f.name); ok {
		return f.root.Filesystem(parent)
	}
	return f.Pool()
}

// Mountpoint returns the fully resolved path of the filesystem's backing
// storage, or "" when the filesystem is mid-create or mid-destroy. A target
// that no longer exists is still reported, unresolved.
func (f *Filesystem) Mountpoint() string {
	if target, err := filepath.EvalSymlinks(f.DataPath()); err == nil {
		return target
	}
	target, err := os.Readlink(f.DataPath())
	if err != nil {
		return ""
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(f.Dir(), target)
	}
	return filepath.Clean(target)
}

func (f *Filesystem) BaseAttrs() map[string]string {
	attrs := map[string]string{"name": f.name}
	if mp := f.Mountpoint(); mp != "" {
		attrs["mountpoint"] = mp
	}
	if c := creationTime(f.Dir()); c != "" {
		attrs["creation"] = c
	}
	return attrs
}

// CreationTime returns the filesystem's creation property value, or "".
func (f *Filesystem) CreationTime() string {
	return creationTime(f.Dir())
}

// Children returns filesystems whose names are prefixed by this one.
// maxDepth bounds the number of generations below this filesystem; 0 means
// all descendants.
func (f *Filesystem) Children(maxDepth int) []*Filesystem {
	var children []*Filesystem
	prefix := f.name + "/"
	for _, c := range f.Pool().Filesystems() {
		if !strings.HasPrefix(c.Name(), prefix) {
			continue
		}
		if maxDepth > 0 {
			depth := maxDepth + strings.Count(f.name, "/")
			if strings.Count(c.Name(), "/") > depth {
				continue
			}
		}
		children = append(children, c)
	}
	return children
}

// Snapshots lists the filesystem's snapshots; empty if the filesystem is
// being destroyed underneath us.
func (f *Filesystem) Snapshots() []*Snapshot {
	entries, err := os.ReadDir(f.SnapshotsDir())
	if err != nil {
		return nil
	}
	snaps := make([]*Snapshot, 0, len(entries))
	for _, e := range entries {
		snaps = append(snaps, f.root.Snapshot(f.name, e.Name()))
	}
	return snaps
}

// dataTarget returns the relative symlink target from the filesystem's
// metadata directory into the pool's backing storage.
func (f *Filesystem) dataTarget() string {
	return filepath.Join("..", "..", "data", f.PoollessName())
}

// mountDir returns the filesystem's storage directory reached through the
// pool's data symlink. Valid before the filesystem's own symlink exists.
func (f *Filesystem) mountDir() string {
	return filepath.Join(f.Pool().DataPath(), f.PoollessName())
}

// Create establishes the filesystem: storage directory, relative data
// symlink, properties, and an empty snapshot collection. The parent must
// exist unless createParents is set, in which case missing ancestors are
// created first.
func (f *Filesystem) Create(createParents bool) error {
	parent := f.Parent()
	if parent != nil && !parent.Exists() {
		pf, ok := parent.(*Filesystem)
		if !ok || !createParents {
			return Errf(CodeParentMissing, f.name, "parent filesystem missing")
		}
		if err := pf.Create(true); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(f.mountDir(), 0o755); err != nil {
		return errors.Wrapf(err, "create storage for %s", f.name)
	}
	if err := os.MkdirAll(f.Dir(), 0o755); err != nil {
		return errors.Wrapf(err, "create filesystem %s", f.name)
	}
	if err := os.Symlink(f.dataTarget(), f.DataPath()); err != nil {
		return errors.Wrapf(err, "link data for %s", f.name)
	}
	if err := os.MkdirAll(f.PropertiesPath(), 0o755); err != nil {
		return errors.Wrapf(err, "create properties for %s", f.name)
	}
	if err := os.MkdirAll(f.SnapshotsDir(), 0o755); err != nil {
		return errors.Wrapf(err, "create snapshots for %s", f.name)
	}

	logger.Debug("created filesystem %s", f.name)
	return nil
}

// Destroy removes the filesystem. With descendants present it fails unless
// recursive, naming the blockers; otherwise descendants are removed deepest
// first, then the filesystem itself.
func (f *Filesystem) Destroy(recursive bool) error {
	deps := f.Children(0)
	if len(deps) > 0 && !recursive {
		names := make([]string, len(deps))
		for i, d := range deps {
			names[i] = d.Name()
		}
		return Errf(CodeHasDependents, "",
			"cannot destroy %q: filesystem has children\nuse '-r' to destroy the following datasets:\n%s",
			f.name, strings.Join(names, "\n"))
	}

	sort.Slice(deps, func(i, j int) bool {
		return strings.Count(deps[i].Name(), "/") > strings.Count(deps[j].Name(), "/")
	})
	for _, d := range deps {
		if err := d.remove(); err != nil {
			return err
		}
	}
	return f.remove()
}

func (f *Filesystem) remove() error {
	// The user may have deleted the backing data out from under us.
	if mp := f.Mountpoint(); mp != "" {
		if _, err := os.Stat(mp); err == nil {
			if err := os.RemoveAll(mp); err != nil {
				return errors.Wrapf(err, "remove storage for %s", f.name)
			}
		}
	}
	if err := os.RemoveAll(f.Dir()); err != nil {
		return errors.Wrapf(err, "remove filesystem %s", f.name)
	}
	return nil
}

// RollbackTo replaces the filesystem's data and local properties with the
// snapshot's frozen copies. Current unsaved state is discarded.
func (f *Filesystem) RollbackTo(s *Snapshot) error {
	mp := f.Mountpoint()
	if mp == "" {
		return Errf(CodeNotFound, f.name, "no such filesystem")
	}
	if err := os.RemoveAll(mp); err != nil {
		return errors.Wrapf(err, "clear %s", f.name)
	}
	if err := cp.Copy(s.DataPath(), mp); err != nil {
		return errors.Wrapf(err, "restore %s from %s", f.name, s.FullName())
	}

	if _, err := os.Stat(s.PropertiesPath()); err == nil {
		if err := os.RemoveAll(f.PropertiesPath()); err != nil {
			return errors.Wrapf(err, "clear properties of %s", f.name)
		}
		if err := cp.Copy(s.PropertiesPath(), f.PropertiesPath()); err != nil {
			return errors.Wrapf(err, "restore properties of %s", f.name)
		}
	}
	return nil
}

// RenameTo relocates the filesystem's storage, properties, and snapshots to
// newFS, then removes the old shell. Both filesystems must belong to the
// same pool; the caller validates that and newFS's absence.
func (f *Filesystem) RenameTo(newFS *Filesystem) error {
	oldMount := f.Mountpoint()

	if err := os.MkdirAll(newFS.Dir(), 0o755); err != nil {
		return errors.Wrapf(err, "create filesystem %s", newFS.Name())
	}
	if err := os.Symlink(newFS.dataTarget(), newFS.DataPath()); err != nil {
		return errors.Wrapf(err, "link data for %s", newFS.Name())
	}

	newMount := newFS.mountDir()
	if err := os.MkdirAll(filepath.Dir(newMount), 0o755); err != nil {
		return errors.Wrapf(err, "create storage parent for %s", newFS.Name())
	}
	if err := os.Rename(oldMount, newMount); err != nil {
		return errors.Wrapf(err, "move storage of %s", f.name)
	}
	if err := os.Rename(f.PropertiesPath(), newFS.PropertiesPath()); err != nil {
		return errors.Wrapf(err, "move properties of %s", f.name)
	}
	if err := os.Rename(f.SnapshotsDir(), newFS.SnapshotsDir()); err != nil {
		return errors.Wrapf(err, "move snapshots of %s", f.name)
	}

	// Only the dangling data symlink remains in the old shell.
	if err := os.RemoveAll(f.Dir()); err != nil {
		return errors.Wrapf(err, "remove filesystem %s", f.name)
	}

	logger.Debug("renamed filesystem %s to %s", f.name, newFS.Name())
	return nil
}
