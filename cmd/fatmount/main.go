//go:build linux || darwin

// Command fatmount mounts a FAT32 image read-only at a given mountpoint
// using FUSE, and unmounts cleanly on SIGINT/SIGTERM.
//
// Grounded on ostafen-digler's internal/fuse/mount_linux.go for the overall
// fuse.Mount + serve-in-background + wait-for-signal shape, and on that
// package's broader use of golang.org/x/sys/unix for the actual unmount
// syscall on signal receipt rather than relying on the kernel to notice the
// process exiting.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/dsoprea/go-logging"
	"golang.org/x/sys/unix"

	"github.com/go-vfat/fat32/fusefs"
	"github.com/go-vfat/fat32/volume"
)

func main() {
	imagePath := flag.String("image", "", "path to the FAT32 image file")
	sectorSize := flag.Uint64("sector-size", 512, "device sector size in bytes")
	mountpoint := flag.String("mountpoint", "", "directory to mount the volume at")
	flag.Parse()

	if *imagePath == "" || *mountpoint == "" {
		flag.Usage()
		os.Exit(1)
	}

	fs, closer, err := volume.OpenFile(*imagePath, *sectorSize)
	log.PanicIf(err)
	defer closer.Close()

	conn, err := fusefs.Mount(*mountpoint, fs)
	log.PanicIf(err)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	<-sigc

	// Ask the kernel to drop the mount; Close below then unblocks the
	// in-flight Serve call that fusefs.Mount started.
	_ = unix.Unmount(*mountpoint, 0)
	conn.Close()
}
