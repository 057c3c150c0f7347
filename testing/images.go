// Package testing builds small, fully synthetic FAT32 volumes in memory for
// use in other packages' tests, the way the teacher's own testing/images.go
// built synthetic block-cache-backed images from a compressed fixture. This
// version builds the bytes from scratch (BPB, FAT, directory, and file
// clusters) instead of decompressing a checked-in fixture file, since a
// from-scratch builder can be driven directly by each test's own file tree.
package testing

import (
	"encoding/binary"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/go-vfat/fat32/blockdev"
	"github.com/go-vfat/fat32/volume"

	fat32 "github.com/go-vfat/fat32"
)

const (
	sectorSize        = 512
	sectorsPerCluster = 1
	reservedSectors   = 32
	numFATs           = 1
	eocMarker         = 0x0FFFFFF8
)

// Node describes one file or directory in a synthetic volume's tree. A
// directory's children are built recursively; a file's Content is written
// across as many clusters as it needs.
type Node struct {
	Name     string
	IsDir    bool
	Content  []byte
	Children []Node
}

// File is a convenience constructor for a file Node.
func File(name string, content []byte) Node {
	return Node{Name: name, Content: content}
}

// Dir is a convenience constructor for a directory Node.
func Dir(name string, children ...Node) Node {
	return Node{Name: name, IsDir: true, Children: children}
}

// builder accumulates cluster allocations while walking a tree of Nodes.
type builder struct {
	t           *testing.T
	nextCluster uint32
	fat         []uint32
	clusters    map[uint32][]byte
}

func newBuilder(t *testing.T) *builder {
	return &builder{
		t:           t,
		nextCluster: 2,
		clusters:    make(map[uint32][]byte),
	}
}

func (b *builder) allocate(n int) []uint32 {
	chain := make([]uint32, n)
	for i := range chain {
		chain[i] = b.nextCluster
		b.nextCluster++
	}
	return chain
}

func (b *builder) setFATChain(chain []uint32) {
	for i, c := range chain {
		if int(c) >= len(b.fat) {
			grown := make([]uint32, c+1)
			copy(grown, b.fat)
			b.fat = grown
		}
		if i == len(chain)-1 {
			b.fat[c] = eocMarker
		} else {
			b.fat[c] = chain[i+1]
		}
	}
}

// shortNameBytes renders name as an 11-byte padded 8.3 short entry name
// field. Names used in test fixtures are expected to already fit 8.3; this
// is not a general LFN-capable encoder.
func shortNameBytes(name string) [11]byte {
	var out [11]byte
	for i := range out {
		out[i] = ' '
	}
	base, ext, _ := strings.Cut(strings.ToUpper(name), ".")
	copy(out[0:8], base)
	copy(out[8:11], ext)
	return out
}

func buildDirEntry(name string, isDir bool, cluster uint32, size uint32) []byte {
	raw := make([]byte, 32)
	nameBytes := shortNameBytes(name)
	copy(raw[0:11], nameBytes[:])
	if isDir {
		raw[11] = byte(fat32.AttrDirectory)
	}
	binary.LittleEndian.PutUint16(raw[20:], uint16(cluster>>16))
	binary.LittleEndian.PutUint16(raw[26:], uint16(cluster))
	binary.LittleEndian.PutUint32(raw[28:], size)
	return raw
}

// writeNode allocates clusters for node (and recursively its children),
// populates b.clusters and b.fat, and returns node's own first cluster.
func (b *builder) writeNode(node Node) uint32 {
	if node.IsDir {
		chain := b.allocate(1)
		b.setFATChain(chain)

		var dirBytes []byte
		for _, child := range node.Children {
			childCluster := b.writeNode(child)
			var size uint32
			if !child.IsDir {
				size = uint32(len(child.Content))
			}
			dirBytes = append(dirBytes, buildDirEntry(child.Name, child.IsDir, childCluster, size)...)
		}
		b.clusters[chain[0]] = dirBytes
		return chain[0]
	}

	clusterCount := (len(node.Content) + sectorSize*sectorsPerCluster - 1) / (sectorSize * sectorsPerCluster)
	if clusterCount == 0 {
		clusterCount = 1
	}
	chain := b.allocate(clusterCount)
	b.setFATChain(chain)

	for i, c := range chain {
		start := i * sectorSize * sectorsPerCluster
		end := start + sectorSize*sectorsPerCluster
		if end > len(node.Content) {
			end = len(node.Content)
		}
		b.clusters[c] = node.Content[start:end]
	}
	return chain[0]
}

// Build assembles a complete FAT32 volume image containing root's children
// at the top level, and returns it as an in-memory io.ReadWriteSeeker the
// way bytesextra backs the teacher's own test images.
func Build(t *testing.T, root ...Node) io.ReadWriteSeeker {
	t.Helper()
	b := newBuilder(t)

	rootChain := b.allocate(1)
	b.setFATChain(rootChain)
	require.EqualValues(t, 2, rootChain[0], "root directory must be cluster 2")

	var rootBytes []byte
	for _, child := range root {
		childCluster := b.writeNode(child)
		var size uint32
		if !child.IsDir {
			size = uint32(len(child.Content))
		}
		rootBytes = append(rootBytes, buildDirEntry(child.Name, child.IsDir, childCluster, size)...)
	}
	b.clusters[rootChain[0]] = rootBytes

	totalClusters := uint32(len(b.fat))
	if totalClusters < b.nextCluster {
		totalClusters = b.nextCluster
	}
	fatBytes := make([]byte, totalClusters*4)
	for i := uint32(0); i < totalClusters && int(i) < len(b.fat); i++ {
		binary.LittleEndian.PutUint32(fatBytes[i*4:], b.fat[i])
	}

	sectorsPerFAT := uint32((len(fatBytes) + sectorSize - 1) / sectorSize)
	dataStartSector := uint32(reservedSectors) + numFATs*sectorsPerFAT
	dataSectors := (b.nextCluster - 2) * sectorsPerCluster
	totalSectors := dataStartSector + dataSectors

	raw := make([]byte, uint64(totalSectors)*sectorSize)
	writeBPB(raw, sectorsPerFAT, totalSectors)
	copy(raw[reservedSectors*sectorSize:], fatBytes)

	for cluster, data := range b.clusters {
		firstSector := dataStartSector + (cluster-2)*sectorsPerCluster
		offset := uint64(firstSector) * sectorSize
		copy(raw[offset:], data)
	}

	return bytesextra.NewReadWriteSeeker(raw)
}

// writeBPB fills in the handful of BPB/EBPB fields bpb.Read actually
// consumes, at the fixed byte offsets the real FAT32 boot sector layout
// uses (cross-checked against bpb/bpb_test.go's own fixture).
func writeBPB(raw []byte, sectorsPerFAT, totalSectors uint32) {
	binary.LittleEndian.PutUint16(raw[11:], sectorSize)
	raw[13] = sectorsPerCluster
	binary.LittleEndian.PutUint16(raw[14:], reservedSectors)
	raw[16] = numFATs
	binary.LittleEndian.PutUint16(raw[17:], 0) // RootEntryCount: 0 on FAT32
	binary.LittleEndian.PutUint32(raw[32:], totalSectors)
	binary.LittleEndian.PutUint32(raw[36:], sectorsPerFAT)
	binary.LittleEndian.PutUint32(raw[44:], 2) // RootCluster
	binary.LittleEndian.PutUint16(raw[510:], 0xAA55)
}

// Mount builds a synthetic volume (see Build) and mounts it through the real
// blockdev/volume wiring, returning a ready-to-use fat32.FS. This exercises
// the same code path OpenFile uses, just backed by memory instead of a file
// on disk.
func Mount(t *testing.T, root ...Node) *fat32.FS {
	t.Helper()
	stream := Build(t, root...)
	dev, err := blockdev.NewFileDevice(stream, sectorSize)
	require.NoError(t, err)

	fs, err := volume.Open(dev)
	require.NoError(t, err)
	return fs
}
