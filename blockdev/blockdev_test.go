package blockdev_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/go-vfat/fat32/blockdev"
)

func TestNewFileDeviceRejectsNonPowerOfTwoSectorSize(t *testing.T) {
	backing := bytesextra.NewReadWriteSeeker(make([]byte, 4096))
	_, err := blockdev.NewFileDevice(backing, 700)
	assert.Error(t, err)
}

func TestFileDeviceReadSector(t *testing.T) {
	raw := make([]byte, 512*4)
	for i := range raw {
		raw[i] = byte(i / 512)
	}
	backing := bytesextra.NewReadWriteSeeker(raw)

	dev, err := blockdev.NewFileDevice(backing, 512)
	require.NoError(t, err)
	assert.EqualValues(t, 512, dev.SectorSize())

	buf := make([]byte, 512)
	n, err := dev.ReadSector(2, buf)
	require.NoError(t, err)
	assert.Equal(t, 512, n)
	assert.Equal(t, byte(2), buf[0])
	assert.Equal(t, byte(2), buf[511])
}

func TestFileDeviceReadSectorShortBuffer(t *testing.T) {
	backing := bytesextra.NewReadWriteSeeker(make([]byte, 1024))
	dev, err := blockdev.NewFileDevice(backing, 512)
	require.NoError(t, err)

	_, err = dev.ReadSector(0, make([]byte, 10))
	assert.Error(t, err)
}

func TestFileDeviceReadSectorPastEnd(t *testing.T) {
	backing := bytesextra.NewReadWriteSeeker(make([]byte, 512))
	dev, err := blockdev.NewFileDevice(backing, 512)
	require.NoError(t, err)

	buf := make([]byte, 512)
	_, err = dev.ReadSector(5, buf)
	assert.Error(t, err)
}
