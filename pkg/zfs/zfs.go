// Package zfs implements the dataset command operations. Each operation
// resolves its identifiers, applies the mutation or query, and returns
// either the affected dataset references (mutating commands, so the CLI can
// log pool history) or a rendered string (read-only queries).
package zfs

import (
	"strings"

	"github.com/dozefs/dozefs/pkg/dataset"
)

// PropertyAssignment is a parsed key=value command-line argument.
type PropertyAssignment struct {
	Key   string
	Value string
}

// ParseAssignment parses a key=value argument, validating the key.
func ParseAssignment(s string) (PropertyAssignment, error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok {
		return PropertyAssignment{}, dataset.Errf(
			dataset.CodeInvalidPropertyFormat, s, "invalid property=value format")
	}
	if !dataset.ValidateComponent(key, false) {
		return PropertyAssignment{}, dataset.Errf(
			dataset.CodeInvalidPropertyKey, key, "invalid property")
	}
	return PropertyAssignment{Key: key, Value: value}, nil
}

func applyAssignments(ds dataset.Dataset, props []PropertyAssignment) error {
	for _, p := range props {
		if err := dataset.SetLocalProperty(ds, p.Key, p.Value); err != nil {
			return err
		}
	}
	return nil
}

// Create creates a filesystem, optionally creating missing ancestors, then
// applies any initial properties.
func Create(root *dataset.Root, name string, createParents bool, props []PropertyAssignment) (dataset.Ref, error) {
	ref, err := root.Resolve(name, dataset.KindFilesystem, dataset.MustNotExist)
	if err != nil {
		return dataset.Ref{}, err
	}
	if err := ref.Filesystem().Create(createParents); err != nil {
		return dataset.Ref{}, err
	}
	if err := applyAssignments(ref.Filesystem(), props); err != nil {
		return dataset.Ref{}, err
	}
	return ref, nil
}

// Destroy removes a filesystem, refusing when descendants exist unless
// recursive is set.
func Destroy(root *dataset.Root, name string, recursive bool) (dataset.Ref, error) {
	ref, err := root.Resolve(name, dataset.KindFilesystem, dataset.MustExist)
	if err != nil {
		return dataset.Ref{}, err
	}
	if err := ref.Filesystem().Destroy(recursive); err != nil {
		return dataset.Ref{}, err
	}
	return ref, nil
}

// Snapshot creates each named snapshot in turn, applying any supplied
// properties. Entries are independent: a duplicate name within the batch
// fails when reached, leaving earlier entries committed.
func Snapshot(root *dataset.Root, names []string, props []PropertyAssignment) ([]dataset.Ref, error) {
	refs := make([]dataset.Ref, 0, len(names))
	for _, name := range names {
		ref, err := root.Resolve(name, dataset.KindSnapshot, dataset.MustNotExist)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}

	for _, ref := range refs {
		snap := ref.Snapshot()
		if !snap.Filesystem().Exists() {
			return nil, dataset.Errf(dataset.CodeNotFound, snap.Filesystem().Name(), "no such filesystem")
		}
		if snap.Exists() {
			// Duplicate within the batch; the earlier entry stays.
			return nil, dataset.Errf(dataset.CodeExists, snap.FullName(), "dataset exists")
		}
		if err := snap.Create(); err != nil {
			return nil, err
		}
		if err := applyAssignments(snap, props); err != nil {
			return nil, err
		}
	}
	return refs, nil
}

// Rollback replaces a filesystem's data and local properties with a
// snapshot's frozen copies.
func Rollback(root *dataset.Root, snapName string) (dataset.Ref, error) {
	ref, err := root.Resolve(snapName, dataset.KindSnapshot, dataset.MustExist)
	if err != nil {
		return dataset.Ref{}, err
	}
	snap := ref.Snapshot()
	if err := snap.Filesystem().RollbackTo(snap); err != nil {
		return dataset.Ref{}, err
	}
	return ref, nil
}

// Rename moves a dataset. A filesystem renames to a filesystem within the
// same pool; a snapshot renames to a snapshot of the same filesystem, with
// a bare target name interpreted as a sibling snapshot.
func Rename(root *dataset.Root, ident, newIdent string) (dataset.Ref, error) {
	ref, err := root.Resolve(ident, dataset.KindAny, dataset.MustExist)
	if err != nil {
		return dataset.Ref{}, err
	}

	if ref.Kind() == dataset.KindSnapshot {
		snap := ref.Snapshot()
		if !strings.Contains(newIdent, "@") {
			newIdent = snap.Filesystem().Name() + "@" + newIdent
		}
		newRef, err := root.Resolve(newIdent, dataset.KindSnapshot, dataset.MustNotExist)
		if err != nil {
			return dataset.Ref{}, err
		}
		newSnap := newRef.Snapshot()
		if snap.Filesystem().Name() != newSnap.Filesystem().Name() {
			return dataset.Ref{}, dataset.Errf(
				dataset.CodeMismatchedNamespace, newIdent, "mismatched filesystems")
		}
		if err := snap.RenameTo(newSnap); err != nil {
			return dataset.Ref{}, err
		}
		return newRef, nil
	}

	fs := ref.Filesystem()
	newRef, err := root.Resolve(newIdent, dataset.KindFilesystem, dataset.MustNotExist)
	if err != nil {
		return dataset.Ref{}, err
	}
	newFS := newRef.Filesystem()
	if fs.Pool().Name() != newFS.Pool().Name() {
		return dataset.Ref{}, dataset.Errf(
			dataset.CodeMismatchedNamespace, newIdent, "cannot rename to different pool")
	}
	if err := fs.RenameTo(newFS); err != nil {
		return dataset.Ref{}, err
	}
	return newRef, nil
}

// Clone materializes a new filesystem from a snapshot and records the
// snapshot as its origin.
func Clone(root *dataset.Root, snapName, fsName string) (dataset.Ref, error) {
	snapRef, err := root.Resolve(snapName, dataset.KindSnapshot, dataset.MustExist)
	if err != nil {
		return dataset.Ref{}, err
	}
	fsRef, err := root.Resolve(fsName, dataset.KindFilesystem, dataset.MustNotExist)
	if err != nil {
		return dataset.Ref{}, err
	}
	if err := snapRef.Snapshot().CloneTo(fsRef.Filesystem()); err != nil {
		return dataset.Ref{}, err
	}
	return fsRef, nil
}

// Promote severs a clone's recorded lineage by removing its origin
// property. There is no structural dependency to transfer in this model.
func Promote(root *dataset.Root, name string) (dataset.Ref, error) {
	ref, err := root.Resolve(name, dataset.KindFilesystem, dataset.MustExist)
	if err != nil {
		return dataset.Ref{}, err
	}
	if _, err := dataset.RemoveLocalProperty(ref.Filesystem(), dataset.OriginProperty); err != nil {
		return dataset.Ref{}, err
	}
	return ref, nil
}

// Set applies one property assignment to each identified dataset.
func Set(root *dataset.Root, keyval string, identifiers []string) ([]dataset.Ref, error) {
	assignment, err := ParseAssignment(keyval)
	if err != nil {
		return nil, err
	}
	refs := make([]dataset.Ref, 0, len(identifiers))
	for _, ident := range identifiers {
		ref, err := root.Resolve(ident, dataset.KindAny, dataset.MustExist)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	for _, ref := range refs {
		if err := dataset.SetLocalProperty(ref.Dataset(), assignment.Key, assignment.Value); err != nil {
			return nil, err
		}
	}
	return refs, nil
}

// Inherit removes a local property from each identified dataset, restoring
// any inherited value. Datasets without the local property are untouched.
func Inherit(root *dataset.Root, key string, identifiers []string) ([]dataset.Ref, error) {
	if !dataset.ValidateComponent(key, false) {
		return nil, dataset.Errf(dataset.CodeInvalidPropertyKey, key, "invalid property")
	}
	refs := make([]dataset.Ref, 0, len(identifiers))
	for _, ident := range identifiers {
		ref, err := root.Resolve(ident, dataset.KindAny, dataset.MustExist)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	for _, ref := range refs {
		if _, err := dataset.RemoveLocalProperty(ref.Dataset(), key); err != nil {
			return nil, err
		}
	}
	return refs, nil
}
