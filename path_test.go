package fat32_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	fat32 "github.com/go-vfat/fat32"
)

func TestSplitAbsolutePathRejectsRelative(t *testing.T) {
	geom := testGeometry()
	store := newFakeStore()
	fs := fat32.NewFS(store, geom)

	_, err := fs.Stat("relative/path")
	assert.ErrorIs(t, err, fat32.ErrInvalidInput)
}

func TestSplitAbsolutePathRejectsDotComponents(t *testing.T) {
	geom := testGeometry()
	store := newFakeStore()
	fs := fat32.NewFS(store, geom)

	_, err := fs.Stat("/a/../b")
	assert.ErrorIs(t, err, fat32.ErrInvalidInput)
}

func TestStatRootIsDirectory(t *testing.T) {
	geom := testGeometry()
	store := newFakeStore()
	fs := fat32.NewFS(store, geom)

	entry, err := fs.Stat("/")
	assert.NoError(t, err)
	assert.True(t, entry.IsDir())
}
