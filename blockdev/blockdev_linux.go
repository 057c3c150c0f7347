//go:build linux

package blockdev

import (
	"os"

	"golang.org/x/sys/unix"

	fat32 "github.com/go-vfat/fat32"
)

// RawDevice wraps an open Linux block special file (e.g. /dev/sda1),
// querying its true logical sector size via the BLKSSZGET ioctl instead of
// assuming 512, the way ostafen-digler's GetSectorSizeLinux does for
// PhotoRec-style raw disk access.
type RawDevice struct {
	*FileDevice
	file *os.File
}

// OpenRawDevice opens path read-only and queries its sector size.
func OpenRawDevice(path string) (*RawDevice, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fat32.ErrNotFound.Wrap(err)
	}

	sectorSize, err := unix.IoctlGetInt(int(file.Fd()), unix.BLKSSZGET)
	if err != nil {
		file.Close()
		return nil, fat32.NewDriverErrorWithMessage(
			fat32.ErrBadSector.ErrnoCode, "BLKSSZGET ioctl failed").Wrap(err)
	}

	fd, ferr := NewFileDevice(file, uint64(sectorSize))
	if ferr != nil {
		file.Close()
		return nil, ferr
	}
	return &RawDevice{FileDevice: fd, file: file}, nil
}

// Close releases the underlying file descriptor.
func (d *RawDevice) Close() error {
	return d.file.Close()
}
