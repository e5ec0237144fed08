package dataset

// Existence constrains what Resolve requires of the target dataset.
type Existence int

const (
	// ExistAny performs no existence check.
	ExistAny Existence = iota

	// MustExist fails with not-found when the dataset is absent.
	MustExist

	// MustNotExist fails with already-exists when the dataset is present.
	MustNotExist
)

// Resolve parses a raw identifier into a filesystem or snapshot reference,
// enforcing the requested kind and existence constraints. The owning pool
// must exist regardless of the dataset's own existence state.
func (r *Root) Resolve(raw string, kind Kind, exist Existence) (Ref, error) {
	fsName, snapName, err := SplitName(raw)
	if err != nil {
		return Ref{}, err
	}

	var ref Ref
	if snapName != "" {
		ref = Ref{snap: r.Snapshot(fsName, snapName)}
	} else {
		ref = Ref{fs: r.Filesystem(fsName)}
	}

	if kind != KindAny && kind != ref.Kind() {
		return Ref{}, Errf(CodeTypeMismatch, raw, "not a %s", kind)
	}

	ds := ref.Dataset()
	if exist == MustExist && !ds.Exists() {
		return Ref{}, Errf(CodeNotFound, raw, "no such dataset")
	}
	if exist == MustNotExist && ds.Exists() {
		return Ref{}, Errf(CodeExists, raw, "dataset exists")
	}

	if pool := r.Pool(PoolName(fsName)); !pool.Exists() {
		return Ref{}, Errf(CodeNoSuchPool, pool.Name(), "no such pool")
	}

	return ref, nil
}

// datasetTypes are the values accepted by the -t type filter.
var datasetTypes = map[string]bool{
	"all": true, "filesystem": true, "snapshot": true, "snap": true,
}

// AllDatasets builds the working set for list/get style commands.
//
// With no identifiers the set is every filesystem of every pool plus all of
// their snapshots. With identifiers, each is resolved and, when recursive or
// maxDepth is set, expanded to descendants; snapshots of every filesystem in
// the set are then appended unconditionally. Only after expansion is the set
// filtered by the requested kinds, so snapshots of expanded descendants
// survive a snapshot-only filter.
func (r *Root) AllDatasets(identifiers, types []string, recursive bool, maxDepth int) ([]Ref, error) {
	wantFS := false
	wantSnap := false
	for _, t := range types {
		if !datasetTypes[t] {
			return nil, Errf(CodeUnknownField, t, "unrecognized dataset type")
		}
		switch t {
		case "all":
			wantFS = true
			wantSnap = true
		case "filesystem":
			wantFS = true
		case "snapshot", "snap":
			wantSnap = true
		}
	}

	var working []Ref
	if len(identifiers) == 0 {
		for _, p := range r.Pools() {
			for _, fs := range p.Filesystems() {
				working = append(working, Ref{fs: fs})
			}
		}
	} else {
		for _, ident := range identifiers {
			ref, err := r.Resolve(ident, KindAny, MustExist)
			if err != nil {
				return nil, err
			}
			working = append(working, ref)
		}
		if recursive || maxDepth > 0 {
			var children []Ref
			for _, ref := range working {
				if ref.Kind() != KindFilesystem {
					continue
				}
				for _, c := range ref.Filesystem().Children(maxDepth) {
					children = append(children, Ref{fs: c})
				}
			}
			working = append(working, children...)
		}
	}

	// Snapshots of every filesystem in the working set, even when the
	// filter will drop the filesystems themselves.
	var snaps []Ref
	for _, ref := range working {
		if ref.Kind() != KindFilesystem {
			continue
		}
		for _, s := range ref.Filesystem().Snapshots() {
			snaps = append(snaps, Ref{snap: s})
		}
	}
	working = append(working, snaps...)

	var out []Ref
	for _, ref := range working {
		switch ref.Kind() {
		case KindFilesystem:
			if wantFS {
				out = append(out, ref)
			}
		case KindSnapshot:
			if wantSnap {
				out = append(out, ref)
			}
		}
	}
	return out, nil
}
