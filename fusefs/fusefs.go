//go:build linux || darwin

// Package fusefs adapts a mounted fat32.FS to bazil.org/fuse, exposing it
// read-only as a normal operating-system file tree.
//
// Grounded on ostafen-digler's internal/fuse package (RecoverFS/Dir/File
// implementing bazil.org/fuse/fs.Node and friends), generalized from that
// package's flat, single-level recovered-file listing to real nested
// directory traversal driven by fat32.FS.ReadDir.
package fusefs

import (
	"context"
	"errors"
	"io"
	"syscall"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"

	fat32 "github.com/go-vfat/fat32"
)

// FS is the bazil.org/fuse root for a mounted FAT32 volume.
type FS struct {
	vol *fat32.FS
}

// New wraps an already-mounted fat32.FS for serving over FUSE.
func New(vol *fat32.FS) *FS {
	return &FS{vol: vol}
}

// Mount opens the kernel FUSE channel at mountpoint and starts serving vol
// over it in a background goroutine. The caller owns the returned
// connection: Close it (or let the mountpoint be unmounted externally) to
// stop serving, the way cmd/fatmount manages the connection's lifetime
// around its own signal handling.
//
// Grounded on ostafen-digler's internal/fuse/mount_linux.go Mount, split
// from its signal-handling loop so that concern can live in cmd/fatmount
// instead of this package.
func Mount(mountpoint string, vol *fat32.FS) (*fuse.Conn, error) {
	conn, err := fuse.Mount(mountpoint, fuse.ReadOnly(), fuse.FSName("fat32"))
	if err != nil {
		return nil, err
	}

	serveErrors := make(chan error, 1)
	go func() {
		serveErrors <- fusefs.Serve(conn, New(vol))
	}()

	select {
	case err := <-serveErrors:
		conn.Close()
		return nil, err
	case <-conn.Ready:
	}
	if err := conn.MountError; err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// Root implements fusefs.FS.
func (f *FS) Root() (fusefs.Node, error) {
	return &Dir{vol: f.vol, entry: f.vol.Root()}, nil
}

// Dir is a directory node: fusefs.Node, fusefs.HandleReadDirAller, and
// fusefs.NodeStringLookuper.
type Dir struct {
	vol   *fat32.FS
	entry fat32.Entry
}

// Attr implements fusefs.Node.
func (d *Dir) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Mode = d.entry.Metadata.Mode()
	a.Mtime = d.entry.Metadata.Modified
	a.Ctime = d.entry.Metadata.Created
	a.Atime = d.entry.Metadata.LastAccessed
	return nil
}

// Lookup implements fusefs.NodeStringLookuper.
func (d *Dir) Lookup(ctx context.Context, name string) (fusefs.Node, error) {
	entries, err := d.vol.ReadDir(d.entry)
	if err != nil {
		return nil, toFuseError(err)
	}
	for _, e := range entries {
		if e.Name == name {
			return wrapEntry(d.vol, e), nil
		}
	}
	return nil, fuse.ENOENT
}

// ReadDirAll implements fusefs.HandleReadDirAller.
func (d *Dir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	entries, err := d.vol.ReadDir(d.entry)
	if err != nil {
		return nil, toFuseError(err)
	}

	dirents := make([]fuse.Dirent, len(entries))
	for i, e := range entries {
		typ := fuse.DT_File
		if e.IsDir() {
			typ = fuse.DT_Dir
		}
		dirents[i] = fuse.Dirent{Name: e.Name, Type: typ}
	}
	return dirents, nil
}

// File is a regular-file node: fusefs.Node and fusefs.HandleReadAller. FAT32
// files in this driver only support sequential reads (File.Seek is
// unsupported, per spec.md §9), so the whole-file HandleReadAller is used
// instead of HandleReader's offset-seeking Read.
type File struct {
	vol   *fat32.FS
	entry fat32.Entry
}

// Attr implements fusefs.Node.
func (f *File) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Mode = f.entry.Metadata.Mode()
	a.Size = uint64(f.entry.Size)
	a.Mtime = f.entry.Metadata.Modified
	a.Ctime = f.entry.Metadata.Created
	a.Atime = f.entry.Metadata.LastAccessed
	return nil
}

// ReadAll implements fusefs.HandleReadAller.
func (f *File) ReadAll(ctx context.Context) ([]byte, error) {
	handle, err := f.vol.OpenEntry(f.entry)
	if err != nil {
		return nil, toFuseError(err)
	}
	data, err := io.ReadAll(handle)
	if err != nil {
		return nil, toFuseError(err)
	}
	return data, nil
}

func wrapEntry(vol *fat32.FS, e fat32.Entry) fusefs.Node {
	if e.IsDir() {
		return &Dir{vol: vol, entry: e}
	}
	return &File{vol: vol, entry: e}
}

// toFuseError maps the fat32 package's typed DriverErrors onto the errno
// values bazil.org/fuse understands, falling back to EIO for anything else.
func toFuseError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, fat32.ErrNotFound) {
		return fuse.ENOENT
	}
	var driverErr *fat32.DriverError
	if errors.As(err, &driverErr) {
		return fuse.Errno(driverErr.ErrnoCode)
	}
	return fuse.Errno(syscall.EIO)
}
