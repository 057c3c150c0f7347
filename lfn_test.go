package fat32

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildLFNSlot encodes one 32-byte VFAT LFN directory entry for the given
// 1-based sequence number, last-slot flag, checksum, and up to 13 UTF-16
// code units.
func buildLFNSlot(sequence uint8, last bool, checksum uint8, units []uint16) []byte {
	raw := make([]byte, 32)
	ord := sequence
	if last {
		ord |= lfnLastFlag
	}
	raw[0] = ord
	raw[11] = byte(AttrLongName)
	raw[13] = checksum

	padded := make([]uint16, lfnUnitsPerSlot)
	for i := range padded {
		padded[i] = 0xFFFF
	}
	copy(padded, units)
	if len(units) < lfnUnitsPerSlot {
		padded[len(units)] = 0x0000
		for i := len(units) + 1; i < lfnUnitsPerSlot; i++ {
			padded[i] = 0xFFFF
		}
	}
	for i, off := range lfnOffsets {
		binary.LittleEndian.PutUint16(raw[off:], padded[i])
	}
	return raw
}

func TestDecodeLFNSlotParsesSequenceAndFlag(t *testing.T) {
	raw := buildLFNSlot(2, true, 0x42, []uint16{'h', 'i'})
	slot := decodeLFNSlot(raw)

	assert.EqualValues(t, 2, slot.sequence)
	assert.True(t, slot.isLast)
	assert.EqualValues(t, 0x42, slot.checksum)
	assert.EqualValues(t, 'h', slot.units[0])
	assert.EqualValues(t, 'i', slot.units[1])
}

func TestLFNAccumulatorReassemblesShortName(t *testing.T) {
	name := "hello.txt"
	units := make([]uint16, len(name))
	for i, r := range name {
		units[i] = uint16(r)
	}

	var acc lfnAccumulator
	// Only one slot needed: 9 units fits in 13.
	acc.add(decodeLFNSlot(buildLFNSlot(1, true, 0x99, units)))

	result, ok := acc.complete(0x99)
	require.True(t, ok)
	assert.Equal(t, name, result)
}

func TestLFNAccumulatorReassemblesMultiSlotName(t *testing.T) {
	name := "twenty-chars-long!!!"
	require.Len(t, name, 20)
	units := make([]uint16, len(name))
	for i, r := range name {
		units[i] = uint16(r)
	}

	first := units[:lfnUnitsPerSlot]
	second := units[lfnUnitsPerSlot:]

	var acc lfnAccumulator
	// On-disk order: highest sequence (with the last-slot flag) arrives
	// first, carrying the tail of the name.
	acc.add(decodeLFNSlot(buildLFNSlot(2, true, 0x77, second)))
	acc.add(decodeLFNSlot(buildLFNSlot(1, false, 0x77, first)))

	result, ok := acc.complete(0x77)
	require.True(t, ok)
	assert.Equal(t, name, result)
}

func TestLFNAccumulatorRejectsChecksumMismatch(t *testing.T) {
	var acc lfnAccumulator
	acc.add(decodeLFNSlot(buildLFNSlot(1, true, 0x11, []uint16{'x'})))

	_, ok := acc.complete(0x22)
	assert.False(t, ok)
}

func TestLFNAccumulatorRejectsIncompleteRun(t *testing.T) {
	units := make([]uint16, 20)
	for i := range units {
		units[i] = uint16('a' + i%26)
	}

	var acc lfnAccumulator
	// Only the "last" slot (sequence 2) arrives; sequence 1 never does.
	acc.add(decodeLFNSlot(buildLFNSlot(2, true, 0x33, units[lfnUnitsPerSlot:])))

	_, ok := acc.complete(0x33)
	assert.False(t, ok)
}

func TestLFNAccumulatorRejectsOutOfOrderIndices(t *testing.T) {
	// Three slots arrive (same count a well-formed 3-slot run would have),
	// but the last two are swapped: 3, then 1, then 2, instead of the
	// required strict descent 3, 2, 1. This must not reassemble into
	// anything, even though three distinct-looking slots were folded in.
	units := make([]uint16, 3*lfnUnitsPerSlot)
	for i := range units {
		units[i] = uint16('a' + i%26)
	}

	var acc lfnAccumulator
	acc.add(decodeLFNSlot(buildLFNSlot(3, true, 0x55, units[2*lfnUnitsPerSlot:])))
	acc.add(decodeLFNSlot(buildLFNSlot(1, false, 0x55, units[:lfnUnitsPerSlot])))
	acc.add(decodeLFNSlot(buildLFNSlot(2, false, 0x55, units[lfnUnitsPerSlot:2*lfnUnitsPerSlot])))

	_, ok := acc.complete(0x55)
	assert.False(t, ok)
}

func TestLFNAccumulatorRejectsDuplicateIndex(t *testing.T) {
	// Sequence 2 arrives twice and sequence 1 never does; the second slot 2
	// doesn't carry the expected index 1, so the run is discarded and must
	// not be reported complete even though two slots were added.
	units := make([]uint16, 2*lfnUnitsPerSlot)
	for i := range units {
		units[i] = uint16('a' + i%26)
	}

	var acc lfnAccumulator
	acc.add(decodeLFNSlot(buildLFNSlot(2, true, 0x66, units[lfnUnitsPerSlot:])))
	acc.add(decodeLFNSlot(buildLFNSlot(2, false, 0x66, units[lfnUnitsPerSlot:])))

	_, ok := acc.complete(0x66)
	assert.False(t, ok)
}

func TestLFNAccumulatorResetDiscardsPartialRun(t *testing.T) {
	var acc lfnAccumulator
	acc.add(decodeLFNSlot(buildLFNSlot(2, true, 0x44, []uint16{'z'})))
	acc.reset()

	_, ok := acc.complete(0x44)
	assert.False(t, ok)
}
