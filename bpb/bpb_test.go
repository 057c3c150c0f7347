package bpb_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fat32 "github.com/go-vfat/fat32"
	"github.com/go-vfat/fat32/bpb"
)

func validSector(t *testing.T) []byte {
	t.Helper()
	sector := make([]byte, 512)
	binary.LittleEndian.PutUint16(sector[11:], 512)  // BytesPerSector
	sector[13] = 8                                   // SectorsPerCluster
	binary.LittleEndian.PutUint16(sector[14:], 32)    // ReservedSectors
	sector[16] = 2                                    // NumFATs
	binary.LittleEndian.PutUint16(sector[17:], 0)     // RootEntryCount
	binary.LittleEndian.PutUint32(sector[32:], 204800) // TotalSectors32
	binary.LittleEndian.PutUint32(sector[36:], 1528)   // SectorsPerFAT32
	binary.LittleEndian.PutUint32(sector[44:], 2)      // RootCluster
	binary.LittleEndian.PutUint16(sector[510:], 0xAA55)
	return sector
}

func TestReadAndValidateValidBPB(t *testing.T) {
	record, err := bpb.Read(bytes.NewReader(validSector(t)))
	require.NoError(t, err)
	require.NoError(t, record.Validate())

	assert.EqualValues(t, 1528, record.SectorsPerFAT)
	assert.EqualValues(t, 32+2*1528, record.DataStartSector)
	assert.EqualValues(t, 2, record.RootCluster)
}

func TestReadBadSignature(t *testing.T) {
	sector := validSector(t)
	binary.LittleEndian.PutUint16(sector[510:], 0)

	_, err := bpb.Read(bytes.NewReader(sector))
	assert.ErrorIs(t, err, fat32.ErrBadSignature)
}

func TestValidateRejectsBadBytesPerSector(t *testing.T) {
	sector := validSector(t)
	binary.LittleEndian.PutUint16(sector[11:], 700)

	record, err := bpb.Read(bytes.NewReader(sector))
	require.NoError(t, err)

	err = record.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "BytesPerSector")
}

func TestValidateRejectsNonzeroRootEntryCount(t *testing.T) {
	sector := validSector(t)
	binary.LittleEndian.PutUint16(sector[17:], 512)

	record, err := bpb.Read(bytes.NewReader(sector))
	require.NoError(t, err)

	err = record.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "RootEntryCount")
}

func TestValidateCollectsMultipleErrors(t *testing.T) {
	sector := validSector(t)
	binary.LittleEndian.PutUint16(sector[11:], 700) // bad BytesPerSector
	sector[13] = 3                                  // bad SectorsPerCluster
	binary.LittleEndian.PutUint32(sector[44:], 0)   // bad RootCluster

	record, err := bpb.Read(bytes.NewReader(sector))
	require.NoError(t, err)

	err = record.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BytesPerSector")
	assert.Contains(t, err.Error(), "SectorsPerCluster")
	assert.Contains(t, err.Error(), "RootCluster")
}

func TestGeometryMatchesParsedFields(t *testing.T) {
	record, err := bpb.Read(bytes.NewReader(validSector(t)))
	require.NoError(t, err)
	require.NoError(t, record.Validate())

	geom := record.Geometry()
	assert.EqualValues(t, 512, geom.BytesPerSector)
	assert.EqualValues(t, 8, geom.SectorsPerCluster)
	assert.EqualValues(t, 2, geom.RootDirCluster)
}
