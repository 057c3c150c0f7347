// Package bpb decodes the FAT32 BIOS Parameter Block (the 512-byte sector
// at the start of the partition, extending the common BPB fields with the
// FAT32-specific extended block) and validates its geometry.
//
// The raw field layout is grounded on
// original_source/fat32/src/vfat/ebpb.rs's BiosParameterBlock; the derived
// quantities (SectorsPerFAT, data start, root dir sectors) and the
// BytesPerSector/SectorsPerCluster validation rules are grounded on
// dargueta-disko's drivers/fat/common.go (NewFATBootSectorFromStream).
// Decoding uses github.com/go-restruct/restruct, and Validate aggregates
// every violation at once with github.com/hashicorp/go-multierror, the way
// a config-loading layer would rather than stopping at the first problem.
package bpb

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-restruct/restruct"
	"github.com/hashicorp/go-multierror"

	fat32 "github.com/go-vfat/fat32"
)

var defaultEncoding = binary.LittleEndian

const sectorSize = 512

// Raw mirrors the on-disk BIOS Parameter Block plus the FAT32 extended BPB
// that follows it, byte for byte.
type Raw struct {
	BootJump             [3]byte
	OEMName              [8]byte
	BytesPerSector       uint16
	SectorsPerCluster    uint8
	ReservedSectors      uint16
	NumFATs              uint8
	RootEntryCount       uint16
	TotalSectors16       uint16
	MediaDescriptor      uint8
	SectorsPerFAT16      uint16
	SectorsPerTrack      uint16
	NumHeads             uint16
	HiddenSectors        uint32
	TotalSectors32       uint32
	SectorsPerFAT32      uint32
	Flags                uint16
	FATVersion           uint16
	RootCluster          uint32
	FSInfoSector         uint16
	BackupBootSector     uint16
	Reserved             [12]byte
	DriveNumber          uint8
	Reserved1            uint8
	ExtendedBootSig      uint8
	VolumeSerialNumber   uint32
	VolumeLabel          [11]byte
	FileSystemType       [8]byte
	BootCode             [420]byte
	PartitionSignature   uint16
}

// BPB is the decoded, validated BIOS Parameter Block together with the
// quantities derived from it.
type BPB struct {
	Raw Raw

	SectorsPerFAT   uint32
	TotalSectors    uint32
	RootDirSectors  uint32
	DataStartSector uint32
	DataSectors     uint32
	RootCluster     uint32
}

// Read decodes the BPB from r, which must be positioned at the start of the
// partition's first sector.
//
// Read checks only the 0xAA55 signature; call Validate separately so
// callers can distinguish a malformed sector (Read fails) from a
// well-formed but out-of-range one (Validate fails).
func Read(r io.Reader) (*BPB, error) {
	buf := make([]byte, sectorSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fat32.ErrBadSector.WithMessage("reading BPB sector").Wrap(err)
	}

	var raw Raw
	if err := restruct.Unpack(buf, defaultEncoding, &raw); err != nil {
		return nil, fat32.ErrCorrupt.WithMessage("decoding BPB").Wrap(err)
	}

	if raw.PartitionSignature != 0xAA55 {
		return nil, fat32.ErrBadSignature.WithMessage("BPB sector")
	}

	totalSectors := raw.TotalSectors32
	if totalSectors == 0 {
		totalSectors = uint32(raw.TotalSectors16)
	}

	// A zero BytesPerSector is left for Validate to report.
	var rootDirSectors uint32
	if raw.BytesPerSector != 0 {
		rootDirSectors = (uint32(raw.RootEntryCount)*32 + uint32(raw.BytesPerSector) - 1) / uint32(raw.BytesPerSector)
	}

	sectorsPerFAT := raw.SectorsPerFAT32
	if sectorsPerFAT == 0 {
		sectorsPerFAT = uint32(raw.SectorsPerFAT16)
	}

	totalFATSectors := uint32(raw.NumFATs) * sectorsPerFAT
	dataStartSector := uint32(raw.ReservedSectors) + totalFATSectors + rootDirSectors
	dataSectors := totalSectors - dataStartSector

	return &BPB{
		Raw:             raw,
		SectorsPerFAT:   sectorsPerFAT,
		TotalSectors:    totalSectors,
		RootDirSectors:  rootDirSectors,
		DataStartSector: dataStartSector,
		DataSectors:     dataSectors,
		RootCluster:     raw.RootCluster,
	}, nil
}

// Validate checks the decoded BPB against the structural constraints
// spec.md §3/§9 requires of a well-formed FAT32 volume, collecting every
// violation instead of stopping at the first one.
func (b *BPB) Validate() error {
	var result *multierror.Error

	switch b.Raw.BytesPerSector {
	case 512, 1024, 2048, 4096:
	default:
		result = multierror.Append(result, fmt.Errorf(
			"BytesPerSector must be 512, 1024, 2048, or 4096, got %d", b.Raw.BytesPerSector))
	}

	switch b.Raw.SectorsPerCluster {
	case 1, 2, 4, 8, 16, 32, 64, 128:
	default:
		result = multierror.Append(result, fmt.Errorf(
			"SectorsPerCluster must be a power of 2 in [1, 128], got %d", b.Raw.SectorsPerCluster))
	}

	if b.Raw.NumFATs == 0 {
		result = multierror.Append(result, fmt.Errorf("NumFATs must be at least 1"))
	}

	if b.Raw.RootEntryCount != 0 {
		result = multierror.Append(result, fmt.Errorf(
			"RootEntryCount must be 0 on FAT32 (root directory lives in a cluster chain), got %d",
			b.Raw.RootEntryCount))
	}

	if b.SectorsPerFAT == 0 {
		result = multierror.Append(result, fmt.Errorf("SectorsPerFAT32 must be nonzero"))
	}

	if b.RootCluster < 2 {
		result = multierror.Append(result, fmt.Errorf(
			"RootCluster must be >= 2, got %d", b.RootCluster))
	}

	if b.DataSectors == 0 || b.DataStartSector > b.TotalSectors {
		result = multierror.Append(result, fmt.Errorf(
			"data region is empty or out of range: start=%d total=%d", b.DataStartSector, b.TotalSectors))
	}

	if result != nil {
		return fat32.ErrCorrupt.WithMessage("invalid BIOS parameter block").Wrap(result.ErrorOrNil())
	}
	return nil
}

// BytesPerCluster returns the number of bytes in one cluster.
func (b *BPB) BytesPerCluster() uint32 {
	return uint32(b.Raw.BytesPerSector) * uint32(b.Raw.SectorsPerCluster)
}

// Geometry derives the fat32.Geometry this BPB describes. Callers should
// call Validate first; Geometry does not re-check the invariants Validate
// enforces.
func (b *BPB) Geometry() fat32.Geometry {
	return fat32.Geometry{
		BytesPerSector:    b.Raw.BytesPerSector,
		SectorsPerCluster: b.Raw.SectorsPerCluster,
		FATStartSector:    uint32(b.Raw.ReservedSectors),
		FATCount:          b.Raw.NumFATs,
		SectorsPerFAT:     b.SectorsPerFAT,
		DataStartSector:   b.DataStartSector,
		DataSectors:       b.DataSectors,
		RootDirCluster:    fat32.NewCluster(b.RootCluster),
		TotalSectors:      b.TotalSectors,
	}
}
