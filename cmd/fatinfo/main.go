// Command fatinfo mounts a FAT32 volume and prints its root directory: the
// number of entries, then each entry's kind, size and name. It does not
// print the MBR, the BPB fields, or the derived geometry.
//
// Grounded directly on dsoprea-go-exfat's
// cmd/exfat_print_boot_sector_header/main.go: the same
// jessevdk/go-flags parser plus dsoprea/go-logging panic/recover shape,
// confined to main() so the core packages this calls into never panic
// themselves.
package main

import (
	"fmt"
	"os"

	log "github.com/dsoprea/go-logging"
	"github.com/jessevdk/go-flags"

	"github.com/go-vfat/fat32/volume"
)

type rootParameters struct {
	Filepath   string `short:"f" long:"filepath" description:"File-path of the FAT32 volume" required:"true"`
	SectorSize uint64 `short:"s" long:"sector-size" description:"Sector size in bytes" default:"512"`
}

var rootArguments = new(rootParameters)

func main() {
	defer func() {
		if state := recover(); state != nil {
			err := log.Wrap(state.(error))
			log.PrintError(err)
			os.Exit(-1)
		}
	}()

	p := flags.NewParser(rootArguments, flags.Default)

	_, err := p.Parse()
	if err != nil {
		os.Exit(1)
	}

	fs, closer, err := volume.OpenFile(rootArguments.Filepath, rootArguments.SectorSize)
	log.PanicIf(err)
	defer closer.Close()

	root := fs.Root()
	entries, err := fs.ReadDir(root)
	log.PanicIf(err)

	fmt.Printf("Root directory entries: %d\n", len(entries))
	for _, e := range entries {
		kind := "file"
		if e.IsDir() {
			kind = "dir"
		}
		fmt.Printf("  %-5s %10d  %s\n", kind, e.Size, e.Name)
	}
}
