package zfs

import (
	"io"

	"github.com/dozefs/dozefs/internal/logger"
	"github.com/dozefs/dozefs/pkg/dataset"
	"github.com/dozefs/dozefs/pkg/stream"
)

// Send serializes a snapshot's subtree as a compressed archive on w.
func Send(root *dataset.Root, snapName string, w io.Writer) error {
	ref, err := root.Resolve(snapName, dataset.KindSnapshot, dataset.MustExist)
	if err != nil {
		return err
	}
	snap := ref.Snapshot()
	return stream.Encode(w, snap.Dir(), snap.Name())
}

// Receive reconstructs a filesystem from a send stream. The target must not
// exist; the stream's single snapshot is unpacked into the new filesystem's
// snapshot area and then rolled back into place. Any failure destroys the
// half-built filesystem before the error is returned, so no inconsistent
// dataset is left visible.
func Receive(root *dataset.Root, fsName string, r io.Reader) (dataset.Ref, error) {
	ref, err := root.Resolve(fsName, dataset.KindFilesystem, dataset.MustNotExist)
	if err != nil {
		return dataset.Ref{}, err
	}
	fs := ref.Filesystem()
	if err := fs.Create(false); err != nil {
		return dataset.Ref{}, err
	}

	if err := receiveInto(fs, r); err != nil {
		if derr := fs.Destroy(true); derr != nil {
			logger.Warn("cleanup of %s after failed receive: %v", fs.Name(), derr)
		}
		return dataset.Ref{}, err
	}
	return ref, nil
}

func receiveInto(fs *dataset.Filesystem, r io.Reader) error {
	if err := stream.Decode(r, fs.SnapshotsDir()); err != nil {
		return dataset.Errf(dataset.CodeStreamDecode, fs.Name(), "cannot receive: %v", err)
	}
	snaps := fs.Snapshots()
	if len(snaps) == 0 {
		return dataset.Errf(dataset.CodeStreamDecode, fs.Name(), "cannot receive: stream holds no snapshot")
	}
	return fs.RollbackTo(snaps[0])
}
