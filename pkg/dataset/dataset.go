// Package dataset implements the dozefs namespace: pools, filesystems, and
// snapshots laid out on an ordinary filesystem, with per-dataset properties
// and bottom-up inheritance.
//
// On-disk layout, rooted at a managed root directory:
//
//	<root>/
//	  <pool>/
//	    data -> <disk>/<pool>
//	    properties/
//	    history
//	    filesystems/
//	      <fs>/                 '/' in names escaped as '%'
//	        data -> ../../data/<sub/path>
//	        properties/
//	        snapshots/
//	          <snap>/
//	            data/
//	            properties/
//
// Existence is always a live check against this layout; nothing is cached.
// Listings tolerate datasets disappearing underneath them (a concurrent
// destroy) by degrading to empty results.
package dataset

// Dataset is a Pool, Filesystem, or Snapshot.
type Dataset interface {
	// Name returns the fully-qualified dataset name (pool, pool/sub, or the
	// bare snapshot name; see Snapshot.FullName for fs@snap).
	Name() string

	// Dir returns the dataset's metadata directory under the managed root.
	Dir() string

	// DataPath returns the path of the dataset's data entry (a symlink for
	// pools and filesystems, a real directory for snapshots).
	DataPath() string

	// PropertiesPath returns the dataset's local property directory.
	PropertiesPath() string

	// Exists performs a live presence check against storage.
	Exists() bool

	// Parent returns the next dataset up the inheritance chain, or nil for
	// a pool. The parent is derived from the name, never stored.
	Parent() Dataset

	// BaseAttrs returns the computed built-in attributes (name, and for
	// filesystems and snapshots mountpoint/creation where available).
	BaseAttrs() map[string]string
}

// Root is an explicit handle on a managed root directory. Every entity is
// constructed through a Root; the engine never consults process environment.
type Root struct {
	dir string
}

// NewRoot returns a Root for the given managed root directory. The directory
// is created lazily by the first pool creation.
func NewRoot(dir string) *Root {
	return &Root{dir: dir}
}

// Dir returns the managed root directory.
func (r *Root) Dir() string {
	return r.dir
}

// Kind distinguishes the two resolvable dataset kinds.
type Kind int

const (
	// KindAny accepts either a filesystem or a snapshot.
	KindAny Kind = iota
	KindFilesystem
	KindSnapshot
)

func (k Kind) String() string {
	switch k {
	case KindFilesystem:
		return "filesystem"
	case KindSnapshot:
		return "snapshot"
	default:
		return "dataset"
	}
}

// Ref is the result of resolving an identifier: exactly one of a filesystem
// or a snapshot.
type Ref struct {
	fs   *Filesystem
	snap *Snapshot
}

// Kind reports which variant the Ref holds.
func (r Ref) Kind() Kind {
	if r.snap != nil {
		return KindSnapshot
	}
	return KindFilesystem
}

// Filesystem returns the filesystem variant, or nil.
func (r Ref) Filesystem() *Filesystem {
	return r.fs
}

// Snapshot returns the snapshot variant, or nil.
func (r Ref) Snapshot() *Snapshot {
	return r.snap
}

// Dataset returns the held variant as a Dataset.
func (r Ref) Dataset() Dataset {
	if r.snap != nil {
		return r.snap
	}
	return r.fs
}

// Name returns the identifier of the held variant (fs name or fs@snap).
func (r Ref) Name() string {
	if r.snap != nil {
		return r.snap.FullName()
	}
	return r.fs.Name()
}

// Pool returns the owning pool of the held variant.
func (r Ref) Pool() *Pool {
	if r.snap != nil {
		return r.snap.Pool()
	}
	return r.fs.Pool()
}
