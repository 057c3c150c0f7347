package volume_test

import (
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/go-vfat/fat32/blockdev"
	fat32testing "github.com/go-vfat/fat32/testing"
	"github.com/go-vfat/fat32/volume"
)

const testSectorSize = 512

// TestOpenUnpartitionedVolume exercises volume.Open's fallback path: a
// synthetic image built by the testing package has no real MBR, so sector 0
// is the BPB directly, and the all-zero partition-table-shaped bytes behind
// its own 0xAA55 signature must not be mistaken for a real partition.
func TestOpenUnpartitionedVolume(t *testing.T) {
	stream := fat32testing.Build(t, fat32testing.File("HELLO.TXT", []byte("hi there")))

	dev, err := blockdev.NewFileDevice(stream, testSectorSize)
	require.NoError(t, err)

	fs, err := volume.Open(dev)
	require.NoError(t, err)

	entries, err := fs.ReadDir(fs.Root())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "HELLO.TXT", entries[0].Name)
}

// TestOpenPartitionedVolumeUsesFirstPartitionEntry prepends a one-sector MBR
// with a single non-empty partition entry to a synthetic volume image, and
// checks that volume.Open locates the BPB at the partition's start sector
// rather than at sector 0.
func TestOpenPartitionedVolumeUsesFirstPartitionEntry(t *testing.T) {
	volumeStream := fat32testing.Build(t, fat32testing.File("PART.TXT", []byte("partitioned")))
	volumeBytes, err := io.ReadAll(toReader(t, volumeStream))
	require.NoError(t, err)

	const partitionStartSector = 1
	raw := make([]byte, partitionStartSector*testSectorSize+len(volumeBytes))
	writePartitionEntry(raw, 0, partitionStartSector, uint32(len(volumeBytes)/testSectorSize))
	binary.LittleEndian.PutUint16(raw[510:], 0xAA55)
	copy(raw[partitionStartSector*testSectorSize:], volumeBytes)

	dev, err := blockdev.NewFileDevice(bytesextra.NewReadWriteSeeker(raw), testSectorSize)
	require.NoError(t, err)

	fs, err := volume.Open(dev)
	require.NoError(t, err)

	entries, err := fs.ReadDir(fs.Root())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "PART.TXT", entries[0].Name)
}

func toReader(t *testing.T, s io.ReadWriteSeeker) io.Reader {
	t.Helper()
	_, err := s.Seek(0, io.SeekStart)
	require.NoError(t, err)
	return s
}

// writePartitionEntry fills partition table slot index (0-3) of an MBR-shaped
// buffer with a non-empty entry, at the standard 446+16*index byte offset.
func writePartitionEntry(raw []byte, index int, startSector, totalSectors uint32) {
	offset := 446 + index*16
	raw[offset] = 0x80 // boot indicator: bootable, any valid value works
	// StartCHS and EndCHS (bytes 1-3, 5-7) are left zeroed; FAT32 readers
	// never consult them.
	raw[offset+4] = 0x0C // partition type: FAT32 (LBA), not itself checked
	binary.LittleEndian.PutUint32(raw[offset+8:], startSector)
	binary.LittleEndian.PutUint32(raw[offset+12:], totalSectors)
}
