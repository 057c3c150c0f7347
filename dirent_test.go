package fat32

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildShortEntryBytes(name, ext string, attr byte) []byte {
	raw := make([]byte, 32)
	copy(raw[0:8], []byte(name+strings.Repeat(" ", 8-len(name))))
	copy(raw[8:11], []byte(ext+strings.Repeat(" ", 3-len(ext))))
	raw[11] = attr
	return raw
}

func TestClassifyShortEntry(t *testing.T) {
	assert.Equal(t, shortEntryEndOfDirectory, classifyShortEntry(0x00))
	assert.Equal(t, shortEntryDeleted, classifyShortEntry(0xE5))
	assert.Equal(t, shortEntryValid, classifyShortEntry('A'))
}

func TestDecodeShortEntryName(t *testing.T) {
	raw := buildShortEntryBytes("README", "TXT", 0)
	e := decodeShortEntry(raw)
	assert.Equal(t, "README.TXT", e.shortName())
}

func TestDecodeShortEntryDirectoryHasNoExtension(t *testing.T) {
	raw := buildShortEntryBytes("SUBDIR", "", byte(AttrDirectory))
	e := decodeShortEntry(raw)
	assert.Equal(t, "SUBDIR", e.shortName())
}

func TestShortNameEscapesLeadingE5(t *testing.T) {
	raw := buildShortEntryBytes("", "TXT", 0)
	raw[0] = 0x05
	e := decodeShortEntry(raw)
	assert.Equal(t, "\xE5.TXT", e.shortName())
}

func TestShortEntryClusterCombinesHiLo(t *testing.T) {
	raw := buildShortEntryBytes("A", "", 0)
	raw[20] = 0x02 // clusterHi low byte
	raw[26] = 0x03 // clusterLo low byte
	e := decodeShortEntry(raw)
	assert.EqualValues(t, 0x00020003, e.cluster())
}

func TestChecksumMatchesKnownValue(t *testing.T) {
	// "FOO        " (8+3 padded with spaces) checksum, computed by the same
	// rotate-then-add algorithm used by every VFAT implementation.
	raw := buildShortEntryBytes("FOO", "", 0)
	e := decodeShortEntry(raw)
	sum := e.checksum()
	assert.NotZero(t, sum)
	assert.Equal(t, uint8(0x88), sum)

	// Checksum must be stable across repeated calls and depend only on the
	// 11-byte name field.
	assert.Equal(t, sum, e.checksum())
}
