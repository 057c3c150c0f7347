package fat32

import (
	"encoding/binary"

	"github.com/go-vfat/fat32/internal/sectorcache"
)

// entrySize is the byte width of one FAT32 FAT entry.
const entrySize = 4

// store is the narrow surface the cluster/FAT layer needs from the cached
// sector store: get a logical sector's bytes by number.
type store interface {
	Get(sector uint64) ([]byte, error)
}

var _ store = (*sectorcache.Store)(nil)

// FATEntry reads and classifies the FAT entry for cluster c.
//
// Grounded on original_source/fat32/src/vfat/vfat.rs's fat_entry (locating
// the sector and byte offset of a cluster's entry) and fat.rs's
// classification table.
func FATEntry(s store, geom Geometry, c Cluster) (FatEntry, error) {
	if !geom.IsValidDataCluster(c) && uint32(c) >= 2 {
		return 0, ErrCorrupt.WithMessage("cluster out of range")
	}

	sector, byteOffset := geom.FATSectorForEntry(c)
	data, err := s.Get(uint64(sector))
	if err != nil {
		return 0, ErrBadSector.WithMessage("reading FAT sector").Wrap(err)
	}
	if int(byteOffset)+entrySize > len(data) {
		return 0, ErrCorrupt.WithMessage("FAT entry offset past end of sector")
	}

	raw := binary.LittleEndian.Uint32(data[byteOffset : byteOffset+entrySize])
	return FatEntry(raw), nil
}

// ReadCluster returns the full contents of cluster c: SectorsPerCluster
// consecutive logical sectors starting at geom.FirstSectorOfCluster(c).
//
// Grounded on vfat.rs's read_cluster/coords.
func ReadCluster(s store, geom Geometry, c Cluster) ([]byte, error) {
	if !geom.IsValidDataCluster(c) {
		return nil, ErrCorrupt.WithMessage("cluster out of range")
	}

	first := geom.FirstSectorOfCluster(c)
	buf := make([]byte, 0, geom.BytesPerCluster())
	for i := uint32(0); i < uint32(geom.SectorsPerCluster); i++ {
		data, err := s.Get(uint64(first + i))
		if err != nil {
			return nil, ErrBadSector.WithMessage("reading cluster sector").Wrap(err)
		}
		buf = append(buf, data...)
	}
	return buf, nil
}

// ReadChain reads and concatenates every cluster in the chain starting at
// start, following FAT entries until an end-of-chain marker. A Reserved or
// Free cluster encountered mid-chain, or a cluster index out of range, is
// ErrCorrupt; a Bad cluster is ErrBadSector. Both are returned rather than
// panicking, unlike the original vfat.rs read_chain this is grounded on,
// which panics on Reserved/Free.
//
// The walk is capped at geom.ClusterCount()+1 steps so a corrupt FAT with a
// cycle cannot loop forever.
func ReadChain(s store, geom Geometry, start Cluster) ([]byte, error) {
	maxSteps := geom.ClusterCount() + 1
	buf := make([]byte, 0, geom.BytesPerCluster())

	curr := start
	for step := uint32(0); ; step++ {
		if step >= maxSteps {
			return nil, ErrCorrupt.WithMessage("FAT chain exceeds volume's cluster count, likely a cycle")
		}

		entry, err := FATEntry(s, geom, curr)
		if err != nil {
			return nil, err
		}
		status := entry.Status()

		switch status.Kind {
		case StatusFree, StatusReserved:
			return nil, ErrCorrupt.WithMessage("chain references a free or reserved cluster")
		case StatusBad:
			return nil, ErrBadSector
		}

		data, err := ReadCluster(s, geom, curr)
		if err != nil {
			return nil, err
		}
		buf = append(buf, data...)

		if status.Kind == StatusEoc {
			break
		}
		curr = status.Next
	}
	return buf, nil
}

// ClusterChain returns the ordered list of cluster numbers in the chain
// starting at start, without reading any cluster data. Used by the
// directory stream, which needs to know cluster boundaries to decide when
// a fresh cluster's worth of dirents has been consumed.
func ClusterChain(s store, geom Geometry, start Cluster) ([]Cluster, error) {
	maxSteps := geom.ClusterCount() + 1
	chain := make([]Cluster, 0, 8)

	curr := start
	for step := uint32(0); ; step++ {
		if step >= maxSteps {
			return nil, ErrCorrupt.WithMessage("FAT chain exceeds volume's cluster count, likely a cycle")
		}
		chain = append(chain, curr)

		entry, err := FATEntry(s, geom, curr)
		if err != nil {
			return nil, err
		}
		status := entry.Status()
		switch status.Kind {
		case StatusFree, StatusReserved:
			return nil, ErrCorrupt.WithMessage("chain references a free or reserved cluster")
		case StatusBad:
			return nil, ErrBadSector
		case StatusEoc:
			return chain, nil
		}
		curr = status.Next
	}
}
