package dataset

import (
	"os"
	"path/filepath"

	cp "github.com/otiai10/copy"
	"github.com/pkg/errors"

	"github.com/dozefs/dozefs/internal/logger"
)

// OriginProperty records the source snapshot on a cloned filesystem. It is
// cleared by Promote.
const OriginProperty = "origin"

// Snapshot is an immutable point-in-time capture of a single filesystem:
// a frozen copy of its data and local properties.
type Snapshot struct {
	root   *Root
	fsName string
	name   string
}

// Snapshot returns a handle on fsName@snapName. No existence check is
// performed.
func (r *Root) Snapshot(fsName, snapName string) *Snapshot {
	return &Snapshot{root: r, fsName: fsName, name: snapName}
}

// Name returns the bare snapshot name, unique within its filesystem.
func (s *Snapshot) Name() string { return s.name }

// FullName returns the qualified fs@snap identifier.
func (s *Snapshot) FullName() string {
	return s.fsName + "@" + s.name
}

// Filesystem returns the owning filesystem.
func (s *Snapshot) Filesystem() *Filesystem {
	return s.root.Filesystem(s.fsName)
}

// Pool returns the owning pool.
func (s *Snapshot) Pool() *Pool {
	return s.Filesystem().Pool()
}

func (s *Snapshot) Dir() string {
	return filepath.Join(s.Filesystem().SnapshotsDir(), s.name)
}

func (s *Snapshot) DataPath() string {
	return filepath.Join(s.Dir(), "data")
}

func (s *Snapshot) PropertiesPath() string {
	return filepath.Join(s.Dir(), "properties")
}

func (s *Snapshot) Exists() bool {
	_, err := os.Stat(s.Dir())
	return err == nil
}

// Parent returns the owning filesystem: a snapshot inherits through its
// filesystem's ancestry, seeded by its own frozen local properties.
func (s *Snapshot) Parent() Dataset {
	return s.Filesystem()
}

func (s *Snapshot) BaseAttrs() map[string]string {
	attrs := map[string]string{"name": s.FullName()}
	if c := creationTime(s.Dir()); c != "" {
		attrs["creation"] = c
	}
	return attrs
}

// CreationTime returns the snapshot's creation property value, or "".
func (s *Snapshot) CreationTime() string {
	return creationTime(s.Dir())
}

// Create freezes the owning filesystem's current data and local properties
// into the snapshot. The caller validates that the snapshot does not exist.
func (s *Snapshot) Create() error {
	fs := s.Filesystem()
	if err := os.MkdirAll(s.Dir(), 0o755); err != nil {
		return errors.Wrapf(err, "create snapshot %s", s.FullName())
	}
	if err := cp.Copy(fs.Mountpoint(), s.DataPath()); err != nil {
		return errors.Wrapf(err, "freeze data of %s", fs.Name())
	}
	if _, err := os.Stat(fs.PropertiesPath()); err == nil {
		if err := cp.Copy(fs.PropertiesPath(), s.PropertiesPath()); err != nil {
			return errors.Wrapf(err, "freeze properties of %s", fs.Name())
		}
	} else if err := os.MkdirAll(s.PropertiesPath(), 0o755); err != nil {
		return errors.Wrapf(err, "create snapshot properties for %s", s.FullName())
	}

	logger.Debug("created snapshot %s", s.FullName())
	return nil
}

// RenameTo moves the snapshot within its filesystem. The caller validates
// that both snapshots share a filesystem and the target does not exist.
func (s *Snapshot) RenameTo(newSnap *Snapshot) error {
	if err := os.Rename(s.Dir(), newSnap.Dir()); err != nil {
		return errors.Wrapf(err, "rename snapshot %s", s.FullName())
	}
	return nil
}

// CloneTo materializes newFS from the snapshot's frozen data and
// properties, then records the snapshot as the clone's origin.
func (s *Snapshot) CloneTo(newFS *Filesystem) error {
	if err := newFS.Create(false); err != nil {
		return err
	}
	if err := cp.Copy(s.DataPath(), newFS.Mountpoint()); err != nil {
		return errors.Wrapf(err, "clone data of %s", s.FullName())
	}
	if err := cp.Copy(s.PropertiesPath(), newFS.PropertiesPath()); err != nil {
		return errors.Wrapf(err, "clone properties of %s", s.FullName())
	}
	if err := SetLocalProperty(newFS, OriginProperty, s.FullName()); err != nil {
		return err
	}

	logger.Debug("cloned %s to %s", s.FullName(), newFS.Name())
	return nil
}
