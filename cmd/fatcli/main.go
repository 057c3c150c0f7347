// Command fatcli is a read-only command-line client for FAT32 volumes:
// list directories, print a file's contents, and print a path's metadata.
//
// Grounded on the teacher's cmd/main.go for the urfave/cli/v2 App/Command
// shape, generalized from that tool's single write-path "format" command to
// this project's read-only ls/cat/stat commands.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/gocarina/gocsv"
	"github.com/urfave/cli/v2"

	fat32 "github.com/go-vfat/fat32"
	"github.com/go-vfat/fat32/volume"
)

func main() {
	app := &cli.App{
		Name:  "fatcli",
		Usage: "Inspect FAT32 disk images read-only",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "image", Aliases: []string{"i"}, Required: true, Usage: "path to the FAT32 image file"},
			&cli.Uint64Flag{Name: "sector-size", Value: 512, Usage: "device sector size in bytes"},
		},
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List a directory's entries",
				ArgsUsage: "PATH",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "csv", Usage: "emit the listing as CSV instead of a table"},
				},
				Action: lsCommand,
			},
			{
				Name:      "cat",
				Usage:     "Print a file's contents to stdout",
				ArgsUsage: "PATH",
				Action:    catCommand,
			},
			{
				Name:      "stat",
				Usage:     "Print a path's metadata",
				ArgsUsage: "PATH",
				Action:    statCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

// csvRow is the flattened shape fatcli ls --csv emits one of per entry.
type csvRow struct {
	Name     string `csv:"name"`
	Type     string `csv:"type"`
	Size     int64  `csv:"size_bytes"`
	Modified string `csv:"modified"`
}

func openVolume(c *cli.Context) (*fat32.FS, io.Closer, error) {
	return volume.OpenFile(c.String("image"), c.Uint64("sector-size"))
}

func targetPath(c *cli.Context) string {
	if c.Args().Len() == 0 {
		return "/"
	}
	return c.Args().First()
}

func lsCommand(c *cli.Context) error {
	fs, closer, err := openVolume(c)
	if err != nil {
		return err
	}
	defer closer.Close()

	entries, err := fs.ReadDirPath(targetPath(c))
	if err != nil {
		return err
	}

	if c.Bool("csv") {
		rows := make([]csvRow, len(entries))
		for i, e := range entries {
			typ := "file"
			if e.IsDir() {
				typ = "dir"
			}
			rows[i] = csvRow{
				Name:     e.Name,
				Type:     typ,
				Size:     int64(e.Size),
				Modified: e.Metadata.Modified.UTC().Format("2006-01-02T15:04:05Z"),
			}
		}
		out, err := gocsv.MarshalString(&rows)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}

	for _, e := range entries {
		typ := "-"
		if e.IsDir() {
			typ = "d"
		}
		fmt.Printf("%s %10s  %s  %s\n", typ, humanize.Bytes(uint64(e.Size)), e.Metadata.Modified.Format("2006-01-02 15:04"), e.Name)
	}
	return nil
}

func catCommand(c *cli.Context) error {
	fs, closer, err := openVolume(c)
	if err != nil {
		return err
	}
	defer closer.Close()

	file, err := fs.Open(targetPath(c))
	if err != nil {
		return err
	}
	_, err = io.Copy(os.Stdout, file)
	return err
}

func statCommand(c *cli.Context) error {
	fs, closer, err := openVolume(c)
	if err != nil {
		return err
	}
	defer closer.Close()

	entry, err := fs.Stat(targetPath(c))
	if err != nil {
		return err
	}

	fmt.Printf("Name:      %s\n", entry.Name)
	fmt.Printf("Type:      %s\n", entryType(entry))
	fmt.Printf("Size:      %s (%d bytes)\n", humanize.Bytes(uint64(entry.Size)), entry.Size)
	fmt.Printf("Created:   %s\n", entry.Metadata.Created)
	fmt.Printf("Modified:  %s\n", entry.Metadata.Modified)
	fmt.Printf("Accessed:  %s\n", entry.Metadata.LastAccessed)
	fmt.Printf("ReadOnly:  %s\n", strconv.FormatBool(entry.Metadata.Attr.IsReadOnly()))
	return nil
}

func entryType(e fat32.Entry) string {
	if e.IsDir() {
		return "directory"
	}
	return "file"
}
