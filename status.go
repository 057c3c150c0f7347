package fat32

import "fmt"

// clusterMask strips the reserved high 4 bits of a raw 32-bit FAT entry or
// directory-entry cluster reference, per spec.md §3.
const clusterMask = 0x0FFFFFFF

// Cluster is a 28-bit cluster index. The high 4 bits of any raw 32-bit value
// a Cluster is built from are reserved and always masked off.
type Cluster uint32

// NewCluster masks `raw` down to its low 28 bits.
func NewCluster(raw uint32) Cluster {
	return Cluster(raw & clusterMask)
}

// DataOffset returns raw - 2, the cluster's index into the data region.
// Cluster 2 is the first data cluster on a FAT32 volume.
func (c Cluster) DataOffset() uint32 {
	return uint32(c) - 2
}

func (c Cluster) String() string {
	return fmt.Sprintf("Cluster(0x%07X)", uint32(c))
}

// StatusKind discriminates the variants of a FAT entry's Status, per the
// table in spec.md §3.
type StatusKind uint8

const (
	StatusFree StatusKind = iota
	StatusReserved
	StatusData
	StatusBad
	StatusEoc
)

func (k StatusKind) String() string {
	switch k {
	case StatusFree:
		return "Free"
	case StatusReserved:
		return "Reserved"
	case StatusData:
		return "Data"
	case StatusBad:
		return "Bad"
	case StatusEoc:
		return "Eoc"
	default:
		return "Unknown"
	}
}

// Status is the decoded meaning of a FAT entry's 28-bit value. Exactly one
// of the variants in StatusKind applies to any given raw value; Next is only
// meaningful when Kind == StatusData, and Raw carries the original masked
// value for StatusEoc (so callers can distinguish 0x0FFFFFF8 from
// 0x0FFFFFFF, though both mean "end of chain").
type Status struct {
	Kind StatusKind
	Next Cluster
	Raw  uint32
}

// IsContinuable reports whether a chain walk may read the cluster this
// status belongs to and then continue to the next cluster in the chain.
// Only Data and Eoc clusters are continuable; Free and Reserved clusters
// encountered mid-chain are a structural error, and Bad clusters are an
// I/O error (spec.md §4.2).
func (s Status) IsContinuable() bool {
	return s.Kind == StatusData || s.Kind == StatusEoc
}

// FatEntry is a single 32-bit entry in the File Allocation Table.
type FatEntry uint32

// Status classifies the FAT entry per spec.md §3:
//
//	0                                  => Free
//	1, 0x0FFFFFF0..0x0FFFFFF6           => Reserved
//	2..0x0FFFFFEF                       => Data(cluster)
//	0x0FFFFFF7                          => Bad
//	0x0FFFFFF8..0x0FFFFFFF              => Eoc
func (e FatEntry) Status() Status {
	raw := uint32(e) & clusterMask
	switch {
	case raw == 0:
		return Status{Kind: StatusFree, Raw: raw}
	case raw == 1:
		return Status{Kind: StatusReserved, Raw: raw}
	case raw >= 0x0FFFFFF0 && raw <= 0x0FFFFFF6:
		return Status{Kind: StatusReserved, Raw: raw}
	case raw == 0x0FFFFFF7:
		return Status{Kind: StatusBad, Raw: raw}
	case raw >= 0x0FFFFFF8 && raw <= 0x0FFFFFFF:
		return Status{Kind: StatusEoc, Raw: raw}
	default: // 2..0x0FFFFFEF
		return Status{Kind: StatusData, Next: Cluster(raw), Raw: raw}
	}
}

func (e FatEntry) String() string {
	s := e.Status()
	if s.Kind == StatusData {
		return fmt.Sprintf("FatEntry(%s -> %s)", s.Kind, s.Next)
	}
	return fmt.Sprintf("FatEntry(%s, raw=0x%07X)", s.Kind, s.Raw)
}
