package fat32

import (
	"encoding/binary"
	"strings"
)

// readDirRaw decodes one cluster chain's worth of 32-byte directory slots
// into Entry values, fusing VFAT long-name runs with the short entry that
// terminates them.
//
// Grounded on original_source/fat32/src/vfat/dir.rs's DirIter::next (the
// Regular/Lfn dispatch and the end-of-directory/deleted handling) and
// dargueta-disko's drivers/fat/dirent.go (clusterToDirentSlice) for the
// per-cluster slice-of-32-bytes walk, generalized here to recognize LFN
// runs that dargueta-disko's reader doesn't support at all.
func readDirRaw(s store, geom Geometry, start Cluster) ([]Entry, error) {
	clusters, err := ClusterChain(s, geom, start)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	var lfn lfnAccumulator

	for _, c := range clusters {
		data, err := ReadCluster(s, geom, c)
		if err != nil {
			return nil, err
		}

		for offset := 0; offset+dirEntrySize <= len(data); offset += dirEntrySize {
			raw := data[offset : offset+dirEntrySize]
			attr := Attr(raw[11])

			if attr.IsLongNamePart() && raw[12] == 0 && binary.LittleEndian.Uint16(raw[26:28]) == 0 {
				slot := decodeLFNSlot(raw)
				switch classifyShortEntry(raw[0]) {
				case shortEntryEndOfDirectory:
					return entries, nil
				case shortEntryDeleted:
					lfn.reset()
				default:
					lfn.add(slot)
				}
				continue
			}

			switch classifyShortEntry(raw[0]) {
			case shortEntryEndOfDirectory:
				return entries, nil
			case shortEntryDeleted:
				lfn.reset()
				continue
			}

			short := decodeShortEntry(raw)
			name, ok := lfn.complete(short.checksum())
			lfn.reset()
			if !ok {
				name = short.shortName()
			}
			if name == "." || name == ".." {
				continue
			}

			entries = append(entries, Entry{
				Name:     name,
				Metadata: short.metadata(),
				Cluster:  short.cluster(),
				Size:     short.size,
			})
		}
	}

	return entries, nil
}

// findEntry looks up name within the directory starting at cluster start,
// matching case-insensitively per original_source's Dir::find.
func findEntry(s store, geom Geometry, start Cluster, name string) (Entry, error) {
	entries, err := readDirRaw(s, geom, start)
	if err != nil {
		return Entry{}, err
	}
	for _, e := range entries {
		if strings.EqualFold(e.Name, name) {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound.WithMessage(name)
}
