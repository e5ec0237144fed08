package dataset

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/dozefs/dozefs/internal/logger"
)

// Pool is a top-level namespace backed by an external storage directory
// (the "disk"). A pool always owns a root filesystem of the same name.
type Pool struct {
	root *Root
	name string
}

// Pool returns a handle on the named pool. No existence check is performed.
func (r *Root) Pool(name string) *Pool {
	return &Pool{root: r, name: name}
}

// Pools lists every pool present under the managed root. A missing root
// means no pools have been created yet.
func (r *Root) Pools() []*Pool {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil
	}
	pools := make([]*Pool, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			pools = append(pools, r.Pool(e.Name()))
		}
	}
	return pools
}

func (p *Pool) Name() string { return p.name }

func (p *Pool) Dir() string {
	return filepath.Join(p.root.dir, p.name)
}

func (p *Pool) DataPath() string {
	return filepath.Join(p.Dir(), "data")
}

func (p *Pool) PropertiesPath() string {
	return filepath.Join(p.Dir(), "properties")
}

// FilesystemsDir returns the directory holding the pool's filesystem
// entries (escaped names).
func (p *Pool) FilesystemsDir() string {
	return filepath.Join(p.Dir(), "filesystems")
}

// HistoryPath returns the pool's append-only history file.
func (p *Pool) HistoryPath() string {
	return filepath.Join(p.Dir(), "history")
}

func (p *Pool) Exists() bool {
	_, err := os.Stat(p.Dir())
	return err == nil
}

// Parent returns nil: a pool is the top of every inheritance chain.
func (p *Pool) Parent() Dataset {
	return nil
}

func (p *Pool) BaseAttrs() map[string]string {
	return map[string]string{"name": p.name}
}

// Filesystems lists the pool's filesystems. A pool mid-destroy lists as
// empty rather than failing.
func (p *Pool) Filesystems() []*Filesystem {
	entries, err := os.ReadDir(p.FilesystemsDir())
	if err != nil {
		return nil
	}
	fss := make([]*Filesystem, 0, len(entries))
	for _, e := range entries {
		fss = append(fss, p.root.Filesystem(UnescapeName(e.Name())))
	}
	return fss
}

// Create initializes the pool on the given backing directory and creates
// its root filesystem. The backing directory must be empty or absent.
func (p *Pool) Create(disk string) error {
	if p.Exists() {
		return Errf(CodeExists, p.name, "pool exists")
	}
	if entries, err := os.ReadDir(disk); err == nil && len(entries) != 0 {
		return Errf(CodeDiskInUse, p.name, "disk in use")
	}

	if err := os.MkdirAll(p.Dir(), 0o755); err != nil {
		return errors.Wrapf(err, "create pool %s", p.name)
	}

	absDisk, err := filepath.Abs(disk)
	if err != nil {
		return errors.Wrapf(err, "resolve disk path %s", disk)
	}
	target := filepath.Join(absDisk, p.name)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return errors.Wrapf(err, "create pool storage %s", target)
	}
	if err := os.Symlink(target, p.DataPath()); err != nil {
		return errors.Wrapf(err, "link pool data for %s", p.name)
	}

	// Every pool owns a root filesystem sharing its name.
	if err := p.root.Filesystem(p.name).Create(false); err != nil {
		return err
	}

	logger.Debug("created pool %s on %s", p.name, target)
	return nil
}

// Destroy removes the pool's backing data and metadata. Destroying a pool
// that is already gone is a no-such-pool error; backing data already removed
// by the user is only worth a warning.
func (p *Pool) Destroy() error {
	if !p.Exists() {
		return Errf(CodeNoSuchPool, p.name, "no such pool")
	}

	if target, err := filepath.EvalSymlinks(p.DataPath()); err == nil {
		if err := os.RemoveAll(target); err != nil {
			return errors.Wrapf(err, "remove pool storage for %s", p.name)
		}
	} else {
		logger.Warn("pool %s: backing data already removed", p.name)
	}

	if err := os.RemoveAll(p.Dir()); err != nil {
		return errors.Wrapf(err, "remove pool %s", p.name)
	}
	return nil
}

// CreationTime returns the pool root's change time, formatted the way the
// creation property reports it, or "" when unavailable.
func (p *Pool) CreationTime() string {
	return creationTime(p.Dir())
}

func creationTime(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return info.ModTime().Format(time.ANSIC)
}
