package fat32

import "os"

// POSIX permission and file-type bits, trimmed from the teacher's flags.go
// to just the handful Metadata.Mode needs to build an os.FileMode: FAT32
// has no concept of owner/group/other permission bits, so every object is
// reported as readable by everyone and writable by no one (this is a
// read-only driver), with only the directory/regular-file type bit varying.
const (
	modeRegularFile = 0
	modeDirectory   = os.ModeDir
	modeAllRead     = 0444
)

// Mode renders this entry's attributes as an os.FileMode, for callers (the
// FUSE adapter, fatcli's stat command) that want to present FAT32 metadata
// through a POSIX-shaped API.
func (m Metadata) Mode() os.FileMode {
	mode := os.FileMode(modeAllRead)
	if m.IsDir() {
		mode |= modeDirectory
	}
	return mode
}
