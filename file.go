package fat32

import "io"

// FS is a mounted, read-only FAT32 file system: a cached sector store paired
// with the geometry derived from its BPB. Construction (reading the MBR,
// BPB, and building the sector cache) lives in the volume package, which
// sits above fat32, blockdev, mbr, and bpb and wires them together; fat32
// itself only needs something that can hand back sector bytes by number.
type FS struct {
	store store
	geom  Geometry
}

// NewFS constructs an FS over an already-built sector store and geometry.
func NewFS(s store, geom Geometry) *FS {
	return &FS{store: s, geom: geom}
}

// Root returns the entry for the volume's root directory.
func (fs *FS) Root() Entry {
	return Entry{
		Metadata: Metadata{Attr: AttrDirectory},
		Cluster:  fs.geom.RootDirCluster,
	}
}

// Stat resolves an absolute path to the Entry it names.
//
// Grounded on original_source/fat32/src/vfat/vfat.rs's FileSystem::open.
func (fs *FS) Stat(path string) (Entry, error) {
	components, err := splitAbsolutePath(path)
	if err != nil {
		return Entry{}, err
	}
	return resolve(fs.store, fs.geom, fs.Root(), components)
}

// ReadDir lists the entries of a directory.
func (fs *FS) ReadDir(dir Entry) ([]Entry, error) {
	if !dir.IsDir() {
		return nil, ErrNotDirectory.WithMessage(dir.Name)
	}
	return readDirRaw(fs.store, fs.geom, dir.Cluster)
}

// ReadDirPath resolves path and lists its entries in one call.
func (fs *FS) ReadDirPath(path string) ([]Entry, error) {
	entry, err := fs.Stat(path)
	if err != nil {
		return nil, err
	}
	return fs.ReadDir(entry)
}

// Open resolves path to a file and returns a reader positioned at its
// start. It fails with ErrNotDirectory if path names a directory.
func (fs *FS) Open(path string) (*File, error) {
	entry, err := fs.Stat(path)
	if err != nil {
		return nil, err
	}
	return fs.OpenEntry(entry)
}

// OpenEntry returns a reader over an already-resolved Entry (e.g. one
// handed back by ReadDir), without re-walking the path. It fails with
// ErrNotDirectory if entry names a directory.
func (fs *FS) OpenEntry(entry Entry) (*File, error) {
	if entry.IsDir() {
		return nil, ErrNotDirectory.WithMessage(entry.Name)
	}
	return &File{fs: fs, entry: entry, curr: entry.Cluster}, nil
}

// File is a read-only, forward-only view of a file's cluster chain.
//
// Grounded on original_source/fat32/src/vfat/file.rs's File/io::Read impl,
// generalized to return typed errors instead of panicking on a corrupt
// chain (spec.md §9), and to report Seek/Write as unsupported rather than
// leaving them unimplemented.
type File struct {
	fs    *FS
	entry Entry
	pos   uint32
	curr  Cluster
}

// Size returns the file's length in bytes, as recorded in its directory
// entry.
func (f *File) Size() int64 {
	return int64(f.entry.Size)
}

// Metadata returns the file's timestamps and attributes.
func (f *File) Metadata() Metadata {
	return f.entry.Metadata
}

// Read implements io.Reader.
func (f *File) Read(buf []byte) (int, error) {
	if f.entry.Size == 0 || f.pos >= f.entry.Size {
		return 0, io.EOF
	}

	clusterBytes := f.fs.geom.BytesPerCluster()
	read := 0
	for read < len(buf) {
		clusterOffset := f.pos % clusterBytes
		remainingInCluster := clusterBytes - clusterOffset
		remainingInFile := f.entry.Size - f.pos

		want := uint32(len(buf) - read)
		if remainingInCluster < want {
			want = remainingInCluster
		}
		if remainingInFile < want {
			want = remainingInFile
		}

		data, err := ReadCluster(f.fs.store, f.fs.geom, f.curr)
		if err != nil {
			return read, err
		}

		n := copy(buf[read:read+int(want)], data[clusterOffset:])
		read += n
		f.pos += uint32(n)

		if f.pos == f.entry.Size {
			break
		}

		if uint32(n) == remainingInCluster {
			entry, err := FATEntry(f.fs.store, f.fs.geom, f.curr)
			if err != nil {
				return read, err
			}
			status := entry.Status()
			switch status.Kind {
			case StatusData:
				f.curr = status.Next
			case StatusBad:
				return read, ErrBadSector
			default:
				return read, ErrCorrupt.WithMessage("file's cluster chain ended before its recorded size")
			}
		}
	}
	return read, nil
}

// Seek always fails: this is a non-goal per spec.md §9. Returning an error
// rather than silently ignoring the call keeps a caller that assumes
// io.Seeker semantics from reading from the wrong offset.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	return 0, ErrUnsupported.WithMessage("seek")
}

// Write always fails: this file system is read-only.
func (f *File) Write(p []byte) (int, error) {
	return 0, ErrUnsupported.WithMessage("write")
}
