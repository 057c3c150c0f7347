package fat32

import (
	"encoding/binary"

	"golang.org/x/text/encoding/unicode"
)

// lfnOffsets are the byte offsets within a 32-byte VFAT LFN slot of its 13
// UTF-16LE code units (5 + 6 + 2), per the on-disk layout original_source's
// dir.rs VFatLfnDirEntry describes field-by-field and soypat-fat's fat.go
// encodes as a literal lookup table for the same 13 positions.
var lfnOffsets = [13]int{1, 3, 5, 7, 9, 14, 16, 18, 20, 22, 24, 28, 30}

const (
	lfnLastFlag     = 0x40
	lfnSeqMask      = 0x1F
	lfnUnitsPerSlot = 13
	lfnMaxUnits     = 255 // FAT32 long names are capped at 255 UTF-16 units.
	// lfnBufferUnits is 20 whole slots (260 units): the slot count a
	// 255-unit name needs, including the padding of its last slot.
	lfnBufferUnits = 20 * lfnUnitsPerSlot
)

// lfnSlot is one decoded 32-byte VFAT long-filename directory entry.
type lfnSlot struct {
	sequence uint8 // 1-based chunk index after masking off lfnLastFlag
	isLast   bool  // the highest-numbered slot in its run, per spec.md §3
	checksum uint8
	units    [lfnUnitsPerSlot]uint16
}

func decodeLFNSlot(raw []byte) lfnSlot {
	var s lfnSlot
	ord := raw[0]
	s.sequence = ord & lfnSeqMask
	s.isLast = ord&lfnLastFlag != 0
	s.checksum = raw[13]
	for i, off := range lfnOffsets {
		s.units[i] = binary.LittleEndian.Uint16(raw[off : off+2])
	}
	return s
}

// lfnAccumulator reassembles a long file name from its VFAT slots. Slots
// arrive in on-disk order (highest sequence number, carrying the tail of
// the name, first), so each slot's 13 units are written into a fixed
// buffer at position (sequence-1)*13 rather than appended as encountered,
// the same positional placement soypat-fat's pick_lfn uses. Unlike that
// reference, arrival order is also enforced strictly: each slot's sequence
// number must be exactly one less than the slot before it.
type lfnAccumulator struct {
	units        [lfnBufferUnits]uint16
	length       int
	checksum     uint8
	active       bool
	expectedNext uint8 // sequence number the next slot.add call must carry
}

func (a *lfnAccumulator) reset() {
	*a = lfnAccumulator{}
}

// add incorporates one LFN slot into the accumulator. A slot carrying the
// last-slot flag always starts a new run, discarding any run in progress.
// Any other slot whose checksum doesn't match the run in progress, or that
// arrives with no run in progress, discards the run. Beyond that, each
// slot's sequence number must equal expectedNext — a strict decrement from
// the previous slot's — or the run is discarded; this rejects duplicated, skipped, or
// out-of-order indices instead of accepting any run with the right slot
// count, per spec.md §4.3's expected_next_index state machine.
func (a *lfnAccumulator) add(slot lfnSlot) {
	if slot.sequence == 0 {
		a.reset()
		return
	}
	if slot.isLast {
		a.reset()
		a.active = true
		a.checksum = slot.checksum
		a.expectedNext = slot.sequence
	}
	if !a.active || slot.checksum != a.checksum || slot.sequence != a.expectedNext {
		a.reset()
		return
	}

	base := int(slot.sequence-1) * lfnUnitsPerSlot
	end := base + lfnUnitsPerSlot
	if end > len(a.units) {
		a.reset()
		return
	}
	copy(a.units[base:end], slot.units[:])
	a.expectedNext--

	if slot.isLast {
		n := end
		for n > base && (a.units[n-1] == 0x0000 || a.units[n-1] == 0xFFFF) {
			n--
		}
		a.length = n
	}
}

// complete returns the reassembled name if every chunk from the highest
// sequence number down to 1 has been folded in, in strict order, and the
// checksum matches the short entry that terminates the run, per spec.md
// §4.3's checksum rule.
func (a *lfnAccumulator) complete(shortChecksum uint8) (string, bool) {
	if !a.active || a.checksum != shortChecksum || a.expectedNext != 0 {
		return "", false
	}
	return utf16LEToString(a.units[:a.length])
}

func utf16LEToString(units []uint16) (string, bool) {
	raw := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(raw[i*2:], u)
	}
	decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}
