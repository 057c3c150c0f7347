// Package mbr decodes the 512-byte master boot record that precedes the
// FAT32 volume on a partitioned image, per spec.md §3.
//
// Grounded on original_source/fat32/src/mbr.rs's MasterBootRecord/
// PartitionEntry layout and validation rules (0xAA55 signature, boot
// indicator must be 0x00 or 0x80), decoded here with
// github.com/go-restruct/restruct the way dsoprea-go-exfat's structures.go
// decodes its own fixed-layout boot structures.
package mbr

import (
	"encoding/binary"
	"io"

	"github.com/go-restruct/restruct"

	fat32 "github.com/go-vfat/fat32"
)

var defaultEncoding = binary.LittleEndian

const sectorSize = 512

// CHS is the legacy cylinder-head-sector address. FAT32 volumes never rely
// on it; the field is preserved only so the struct layout matches the
// on-disk format byte for byte.
type CHS [3]byte

// PartitionEntry is one of the four 16-byte partition table slots in the
// MBR.
type PartitionEntry struct {
	BootIndicator byte
	StartCHS      CHS
	PartitionType byte
	EndCHS        CHS
	StartSector   uint32
	TotalSectors  uint32
}

// IsBootable reports whether this entry's boot indicator marks it active
// (0x80). A zero-value entry (no partition) is not bootable.
func (p PartitionEntry) IsBootable() bool {
	return p.BootIndicator == 0x80
}

// IsEmpty reports whether this slot describes no partition at all.
func (p PartitionEntry) IsEmpty() bool {
	return p.TotalSectors == 0
}

// rawRecord mirrors the 512-byte on-disk layout exactly: bootstrap code,
// a disk signature/filler region, four partition entries, and the 0xAA55
// trailer.
type rawRecord struct {
	BootstrapCode [436]byte
	DiskSignature [10]byte
	Partitions    [4]PartitionEntry
	Signature     uint16
}

// MasterBootRecord is the decoded MBR.
type MasterBootRecord struct {
	Partitions [4]PartitionEntry
}

// Read parses the master boot record from sector 0 of r.
//
// Returns a *fat32.DriverError wrapping ErrBadSignature if the trailing
// 0xAA55 magic is missing, or an *UnknownBootIndicatorError if any
// partition's boot indicator is neither 0x00 nor 0x80.
func Read(r io.Reader) (*MasterBootRecord, error) {
	raw := make([]byte, sectorSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fat32.ErrBadSector.WithMessage("reading MBR sector").Wrap(err)
	}

	var rec rawRecord
	if err := restruct.Unpack(raw, defaultEncoding, &rec); err != nil {
		return nil, fat32.ErrCorrupt.WithMessage("decoding MBR").Wrap(err)
	}

	if rec.Signature != 0xAA55 {
		return nil, fat32.ErrBadSignature.WithMessage("MBR sector 0")
	}

	for i, entry := range rec.Partitions {
		if entry.BootIndicator != 0x00 && entry.BootIndicator != 0x80 {
			return nil, &fat32.UnknownBootIndicatorError{Index: i, Value: entry.BootIndicator}
		}
	}

	return &MasterBootRecord{Partitions: rec.Partitions}, nil
}
