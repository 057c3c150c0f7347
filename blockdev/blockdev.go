// Package blockdev provides the block device abstraction spec.md treats as
// an external collaborator: something that can read fixed-size sectors by
// number. Grounded on dargueta-disko's drivers/common/blockdevice.go
// (BlockDevice.Read, which seeks then reads a stream), generalized from
// that type's fixed-at-construction block size to the read-only subset this
// project needs, plus a real-device variant for Linux block special files.
package blockdev

import (
	"io"
	"sync"
	"syscall"

	fat32 "github.com/go-vfat/fat32"
)

// Device is the minimal surface the sector cache and the volume package
// (which reads the MBR and BPB sectors through it) need from a block
// device: its sector size, and the ability to read a sector by number into
// a caller-supplied buffer.
type Device interface {
	SectorSize() uint64
	ReadSector(sector uint64, buf []byte) (int, error)
}

// FileDevice adapts an io.ReadSeeker (an *os.File, or an in-memory
// stand-in such as xaionaro-go/bytesextra's byte-slice ReadWriteSeeker in
// tests) into a Device with a fixed, caller-supplied sector size. Access is
// serialized with a mutex since Seek+Read is not atomic on a shared stream.
type FileDevice struct {
	mu         sync.Mutex
	stream     io.ReadSeeker
	sectorSize uint64
}

// NewFileDevice wraps stream as a Device with the given sector size.
// sectorSize must be a positive power of two; FAT32 volumes conventionally
// use 512.
func NewFileDevice(stream io.ReadSeeker, sectorSize uint64) (*FileDevice, error) {
	if sectorSize == 0 || sectorSize&(sectorSize-1) != 0 {
		return nil, fat32.ErrInvalidInput.WithMessage("sector size must be a positive power of two")
	}
	return &FileDevice{stream: stream, sectorSize: sectorSize}, nil
}

// SectorSize implements Device.
func (d *FileDevice) SectorSize() uint64 {
	return d.sectorSize
}

// ReadSector implements Device. buf must be at least SectorSize() bytes;
// only the first SectorSize() bytes are read.
func (d *FileDevice) ReadSector(sector uint64, buf []byte) (int, error) {
	want := d.sectorSize
	if uint64(len(buf)) < want {
		return 0, fat32.ErrInvalidInput.WithMessage("buffer smaller than sector size")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	offset := int64(sector) * int64(want)
	if _, err := d.stream.Seek(offset, io.SeekStart); err != nil {
		return 0, fat32.NewDriverErrorWithMessage(syscall.EIO, "seeking to sector").Wrap(err)
	}

	n, err := io.ReadFull(d.stream, buf[:want])
	if err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return n, fat32.ErrBadSector.WithMessage("short read")
		}
		return n, fat32.NewDriverErrorWithMessage(syscall.EIO, "reading sector").Wrap(err)
	}
	return n, nil
}
