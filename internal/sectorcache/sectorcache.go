// Package sectorcache implements the cached sector store described in
// spec.md §4.1: a layer between a raw block device and the FAT/cluster code
// that translates logical sector numbers to physical ones across a
// sector-size mismatch, and caches the result.
//
// Grounded on dargueta-disko's drivers/common/blockcache/blockcache.go for
// the present/dirty bitmap idiom (github.com/boljen/go-bitmap), and on
// original_source/fat32/src/vfat/cache.rs for the address-translation rules
// and the partition/pre-partition split this package generalizes blockcache
// to handle.
package sectorcache

import (
	"github.com/boljen/go-bitmap"
	"github.com/pkg/errors"
)

// ErrOutOfRange is returned when a requested sector number is outside the
// range the Store was constructed to address.
var ErrOutOfRange = errors.New("sectorcache: sector out of range")

// ErrMiss is returned by ReadSector, which unlike Get/GetMut
// never fault in a sector from the device; it's used to expose the store as
// a BlockDevice for compositional testing (spec.md §4.1).
var ErrMiss = errors.New("sectorcache: sector not cached")

// Device is the narrow interface this package needs from a block device.
type Device interface {
	SectorSize() uint64
	ReadSector(sector uint64, buf []byte) (int, error)
}

// Partition describes the logical partition a Store is caching sectors for.
type Partition struct {
	// Start is the physical sector at which the partition begins.
	Start uint64
	// SectorSize is the logical sector size advertised by the partition's
	// file system (the FAT32 BPB's BytesPerSector), which may differ from
	// the underlying device's physical sector size.
	SectorSize uint64
}

type cacheEntry struct {
	data  []byte
	dirty bool
}

// Store is a cache of sectors keyed by logical sector number. It is built
// with a fixed address-space capacity (the highest logical sector number it
// will ever be asked to serve, plus one) so the present/dirty state can live
// in two flat bitmaps, the way blockcache.BlockCache's flat, fixed-size
// bitmap does for its single sector-sized granularity. Because pre-partition
// sectors (device sector size) and partition sectors (partition sector
// size) are not a uniform size here, Store additionally keeps the decoded
// bytes in a slice of per-entry buffers rather than one contiguous backing
// array.
type Store struct {
	device    Device
	partition Partition
	capacity  uint64

	present bitmap.Bitmap
	dirty   bitmap.Bitmap
	entries []cacheEntry

	hits   uint64
	misses uint64
}

// New constructs a Store addressing logical sectors in [0, capacity).
// partition.SectorSize must be a whole multiple of device.SectorSize().
func New(device Device, partition Partition, capacity uint64) (*Store, error) {
	deviceSectorSize := device.SectorSize()
	if partition.SectorSize < deviceSectorSize || partition.SectorSize%deviceSectorSize != 0 {
		return nil, errors.Errorf(
			"sectorcache: partition sector size %d is not a multiple of device sector size %d",
			partition.SectorSize, deviceSectorSize)
	}
	return &Store{
		device:    device,
		partition: partition,
		capacity:  capacity,
		present:   bitmap.NewSlice(int(capacity)),
		dirty:     bitmap.NewSlice(int(capacity)),
		entries:   make([]cacheEntry, capacity),
	}, nil
}

// VirtualToPhysical implements the translation rules of spec.md §4.1: given
// a logical sector v, it returns the first physical sector to read and how
// many consecutive physical sectors make up the one logical sector.
func (s *Store) VirtualToPhysical(v uint64) (physical uint64, count uint64) {
	deviceSectorSize := s.device.SectorSize()
	if deviceSectorSize == s.partition.SectorSize {
		return v, 1
	}
	if v < s.partition.Start {
		return v, 1
	}
	factor := s.partition.SectorSize / deviceSectorSize
	return s.partition.Start + (v-s.partition.Start)*factor, factor
}

// bufferSize returns the byte size of the logical sector at v: the device's
// physical sector size for pre-partition sectors, the partition's logical
// sector size otherwise.
func (s *Store) bufferSize(v uint64) uint64 {
	if s.device.SectorSize() == s.partition.SectorSize || v < s.partition.Start {
		return s.device.SectorSize()
	}
	return s.partition.SectorSize
}

func (s *Store) checkRange(v uint64) error {
	if v >= s.capacity {
		return errors.Wrapf(ErrOutOfRange, "sector %d, capacity %d", v, s.capacity)
	}
	return nil
}

func (s *Store) fault(v uint64) ([]byte, error) {
	physical, count := s.VirtualToPhysical(v)
	size := s.bufferSize(v)
	buf := make([]byte, size)

	deviceSectorSize := s.device.SectorSize()
	chunk := make([]byte, deviceSectorSize)
	for i := uint64(0); i < count; i++ {
		n, err := s.device.ReadSector(physical+i, chunk)
		if err != nil {
			return nil, errors.Wrapf(err, "reading physical sector %d", physical+i)
		}
		copy(buf[i*deviceSectorSize:], chunk[:n])
	}

	s.entries[v] = cacheEntry{data: buf}
	s.present.Set(int(v), true)
	s.misses++
	return s.entries[v].data, nil
}

// Get returns the cached bytes for logical sector v, faulting it in from
// the device on first access. The returned slice must not be retained past
// the next call that touches sector v.
func (s *Store) Get(v uint64) ([]byte, error) {
	if err := s.checkRange(v); err != nil {
		return nil, err
	}
	if s.present.Get(int(v)) {
		s.hits++
		return s.entries[v].data, nil
	}
	return s.fault(v)
}

// GetMut returns a mutable view of logical sector v and marks it dirty.
// Dirty sectors are never written back to the device by this package: the
// file system this store backs is read-only, and GetMut exists only so the
// cache can be exercised the way blockcache.BlockCache's Write path is
// (e.g. by tests building a synthetic image in place).
func (s *Store) GetMut(v uint64) ([]byte, error) {
	data, err := s.Get(v)
	if err != nil {
		return nil, err
	}
	s.dirty.Set(int(v), true)
	return data, nil
}

// IsDirty reports whether logical sector v has been written to via GetMut
// since it was loaded.
func (s *Store) IsDirty(v uint64) bool {
	if v >= s.capacity {
		return false
	}
	return s.dirty.Get(int(v))
}

// ReadSector implements a narrow BlockDevice-shaped surface over already
// cached sectors, for composing this store with code written against a
// device interface in tests. It never faults a sector in: a cache miss is
// reported as ErrMiss.
func (s *Store) ReadSector(v uint64, buf []byte) (int, error) {
	if err := s.checkRange(v); err != nil {
		return 0, err
	}
	if !s.present.Get(int(v)) {
		return 0, errors.Wrapf(ErrMiss, "sector %d", v)
	}
	return copy(buf, s.entries[v].data), nil
}

// Stats reports cumulative hit/miss counts, for diagnostics.
func (s *Store) Stats() (hits, misses uint64) {
	return s.hits, s.misses
}

// Evict drops a cached sector, forcing the next Get/GetMut to re-fault it
// from the device. Used by tests that want to assert a re-read happens.
func (s *Store) Evict(v uint64) {
	if v >= s.capacity {
		return
	}
	s.present.Set(int(v), false)
	s.dirty.Set(int(v), false)
	s.entries[v] = cacheEntry{}
}
