// Package volume is the top-level entry point: it wires blockdev, mbr, bpb,
// and internal/sectorcache together into a mounted fat32.FS. It sits above
// all four of those packages and is the only place that imports all of
// them, which is what keeps fat32 itself free of an import cycle back to
// the packages that depend on its error types.
//
// Grounded on dargueta-disko's drivers/fat8/driver.go Mount method for the
// overall shape (read the boot structures, derive geometry, hand back a
// ready-to-use driver) generalized from that package's single-struct driver
// to this project's layered store/geometry/FS split.
package volume

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/go-vfat/fat32"
	"github.com/go-vfat/fat32/blockdev"
	"github.com/go-vfat/fat32/bpb"
	"github.com/go-vfat/fat32/internal/sectorcache"
	"github.com/go-vfat/fat32/mbr"
)

// sectorCacheHeadroom is extra address space reserved beyond the last data
// sector; FAT32 never needs any, but the constant documents the capacity
// calculation below rather than leaving a bare DataStartSector+DataSectors.
const sectorCacheHeadroom = 0

// partitionDevice adapts a blockdev.Device to address sectors relative to a
// partition's start, so the sector cache and BPB/FAT code downstream can
// treat sector 0 as the first sector of the volume regardless of where it
// sits on the underlying device.
type partitionDevice struct {
	inner blockdev.Device
	start uint64
}

func (d *partitionDevice) SectorSize() uint64 {
	return d.inner.SectorSize()
}

func (d *partitionDevice) ReadSector(sector uint64, buf []byte) (int, error) {
	return d.inner.ReadSector(d.start+sector, buf)
}

// readSector reads one device-native sector from dev into a freshly
// allocated buffer, for handing to mbr.Read/bpb.Read as an io.Reader.
func readSector(dev blockdev.Device, sector uint64) (io.Reader, error) {
	buf := make([]byte, dev.SectorSize())
	if _, err := dev.ReadSector(sector, buf); err != nil {
		return nil, err
	}
	return bytes.NewReader(buf), nil
}

// firstDataPartition picks the first non-empty partition table entry in
// rec, in table order. It returns ok=false if the MBR describes no
// partitions at all, in which case the caller should treat the whole
// device as an unpartitioned FAT32 volume.
func firstDataPartition(rec *mbr.MasterBootRecord) (entry mbr.PartitionEntry, ok bool) {
	for _, p := range rec.Partitions {
		if !p.IsEmpty() {
			return p, true
		}
	}
	return mbr.PartitionEntry{}, false
}

// Open mounts the FAT32 volume found on dev, reading its MBR (if any), its
// BPB, and building the cached sector store fat32.FS reads through.
//
// If dev's sector 0 carries a valid MBR with a non-empty partition table
// entry, the first such entry is used as the volume's partition; otherwise
// dev is treated as an unpartitioned volume with the BPB at sector 0. This
// mirrors how real FAT32 media is found both behind a partition table (hard
// disks, USB drives) and without one (floppy images, some SD cards).
func Open(dev blockdev.Device) (*fat32.FS, error) {
	partitionStart := uint64(0)

	mbrSector, err := readSector(dev, 0)
	if err != nil {
		return nil, errors.Wrap(err, "reading sector 0 to look for a partition table")
	}
	if rec, err := mbr.Read(mbrSector); err == nil {
		if entry, ok := firstDataPartition(rec); ok {
			partitionStart = uint64(entry.StartSector)
		}
	}
	// A sector-0 decode failure (bad signature, unknown boot indicator) is
	// not an error here: it just means dev has no MBR, and the volume's BPB
	// is expected at sector 0 directly.

	partDev := &partitionDevice{inner: dev, start: partitionStart}

	bpbSector, err := readSector(partDev, 0)
	if err != nil {
		return nil, errors.Wrap(err, "reading BPB sector")
	}
	parsed, err := bpb.Read(bpbSector)
	if err != nil {
		return nil, err
	}
	if err := parsed.Validate(); err != nil {
		return nil, err
	}

	geom := parsed.Geometry()
	capacity := uint64(geom.DataStartSector) + uint64(geom.DataSectors) + sectorCacheHeadroom

	store, err := sectorcache.New(partDev, sectorcache.Partition{
		Start:      0,
		SectorSize: uint64(geom.BytesPerSector),
	}, capacity)
	if err != nil {
		return nil, err
	}

	return fat32.NewFS(store, geom), nil
}

// OpenFile opens the file at path and mounts the FAT32 volume it contains,
// treating the file as a device whose sector size is sectorSize (512 for
// essentially every real FAT32 image). The returned closer must be closed
// by the caller once the FS is no longer needed.
func OpenFile(path string, sectorSize uint64) (fs *fat32.FS, closer io.Closer, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	dev, err := blockdev.NewFileDevice(f, sectorSize)
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	fs, err = Open(dev)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return fs, f, nil
}
