package fat32

// Geometry is the set of sector addresses and counts derived once from a
// parsed BIOS Parameter Block, per spec.md §3/§4.2. Every later component
// that needs to turn a cluster number into a sector address goes through a
// Geometry rather than re-deriving these numbers from the raw BPB fields.
//
// Grounded on original_source's VFat::from (the field assignments that
// follow the EBPB read) and drivers/fat/common.go's FATBootSector, which
// exposes the same derived quantities (first FAT sector, first data sector,
// sectors per cluster) off a parsed boot sector.
type Geometry struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	FATStartSector    uint32
	FATCount          uint8
	SectorsPerFAT     uint32
	DataStartSector   uint32
	DataSectors       uint32
	RootDirCluster    Cluster
	TotalSectors      uint32
}

// BytesPerCluster returns the number of bytes covered by one cluster.
func (g Geometry) BytesPerCluster() uint32 {
	return uint32(g.BytesPerSector) * uint32(g.SectorsPerCluster)
}

// ClusterCount returns the number of addressable data clusters, i.e. the
// highest valid cluster number is ClusterCount()+1 (cluster numbering starts
// at 2).
func (g Geometry) ClusterCount() uint32 {
	return g.DataSectors / uint32(g.SectorsPerCluster)
}

// FirstSectorOfCluster returns the first sector of a cluster's data, given
// the cluster's raw 28-bit index (cluster 0 and 1 are not valid data
// clusters; callers must check Status first).
func (g Geometry) FirstSectorOfCluster(c Cluster) uint32 {
	return g.DataStartSector + c.DataOffset()*uint32(g.SectorsPerCluster)
}

// FATSectorForEntry returns the sector within the first FAT, and the byte
// offset within that sector, holding the 32-bit entry for cluster c.
func (g Geometry) FATSectorForEntry(c Cluster) (sector uint32, byteOffset uint32) {
	entryOffset := uint32(c) * 4
	sectorsIn := entryOffset / uint32(g.BytesPerSector)
	return g.FATStartSector + sectorsIn, entryOffset % uint32(g.BytesPerSector)
}

// IsValidDataCluster reports whether c falls within the addressable data
// cluster range [2, ClusterCount()+1].
func (g Geometry) IsValidDataCluster(c Cluster) bool {
	off := c.DataOffset()
	return uint32(c) >= 2 && off < g.ClusterCount()
}
