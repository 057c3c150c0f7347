package fat32

import "time"

// Attr is the 8-bit FAT attribute byte, reused from the bit layout
// dargueta-disko's drivers/fat/common.go constants define.
type Attr uint8

const (
	AttrReadOnly  Attr = 1 << 0
	AttrHidden    Attr = 1 << 1
	AttrSystem    Attr = 1 << 2
	AttrVolumeID  Attr = 1 << 3
	AttrDirectory Attr = 1 << 4
	AttrArchive   Attr = 1 << 5

	// AttrLongName is the attribute value (read-only|hidden|system|volume ID)
	// that marks a regular directory entry as actually being a VFAT LFN
	// slot, per original_source's dir.rs (`dirent.attribs == 0x0f`).
	AttrLongName = AttrReadOnly | AttrHidden | AttrSystem | AttrVolumeID
)

func (a Attr) IsDir() bool       { return a&AttrDirectory != 0 }
func (a Attr) IsReadOnly() bool  { return a&AttrReadOnly != 0 }
func (a Attr) IsHidden() bool    { return a&AttrHidden != 0 }
func (a Attr) IsVolumeID() bool  { return a&AttrVolumeID != 0 }
func (a Attr) IsLongNamePart() bool {
	return a == AttrLongName
}

// dosDateToParts converts a packed FAT date field into year/month/day,
// per original_source/fat32/src/vfat/metadata.rs's Timestamp::year/month/day.
func dosDateToParts(date uint16) (year int, month time.Month, day int) {
	year = 1980 + int(date>>9)
	month = time.Month((date >> 5) & 0x0F)
	day = int(date & 0x1F)
	return
}

// dosTimeToParts converts a packed FAT time field into hour/minute/second.
func dosTimeToParts(t uint16) (hour, minute, second int) {
	hour = int((t >> 11) & 0x1F)
	minute = int((t >> 5) & 0x3F)
	second = int(t&0x1F) * 2
	return
}

// decodeTimestamp builds a time.Time in UTC from a packed date and time
// field and an optional field in 10 ms units, 0-199 (only present on the
// creation timestamp). FAT timestamps carry no time zone; UTC is used as a
// fixed, well-defined reference rather than guessing the local zone.
func decodeTimestamp(date, t uint16, tensOfSecond uint8) time.Time {
	year, month, day := dosDateToParts(date)
	hour, minute, second := dosTimeToParts(t)
	nanos := int(tensOfSecond%100) * 10 * int(time.Millisecond)
	if tensOfSecond >= 100 {
		second++
	}
	return time.Date(year, month, day, hour, minute, second, nanos, time.UTC)
}

// decodeDate builds a date-only time.Time (midnight UTC) from a packed FAT
// date field, used for the last-accessed field which has no time part.
func decodeDate(date uint16) time.Time {
	year, month, day := dosDateToParts(date)
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Metadata carries the timestamps and attributes of a directory entry.
type Metadata struct {
	Attr         Attr
	Created      time.Time
	LastAccessed time.Time
	Modified     time.Time
}

func (m Metadata) IsDir() bool { return m.Attr.IsDir() }
