// Command muonfs inspects and manages Muon file system images.
package main

import (
	"fmt"
	"os"

	"github.com/doruche/muon"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "muonfs",
		Short: "Muon file system image tool",
	}

	root.AddCommand(mkfsCmd())
	root.AddCommand(lsCmd())
	root.AddCommand(catCmd())
	root.AddCommand(infoCmd())
	root.AddCommand(mountCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "muonfs: %s\n", err)
		os.Exit(1)
	}
}

func mkfsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkfs <image> <blocks> <inodes>",
		Short: "Create and format a new Muon image",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			blocks, err := parseUint32(args[1])
			if err != nil {
				return err
			}
			inodes, err := parseUint32(args[2])
			if err != nil {
				return err
			}

			dev, err := muon.CreateFileDevice(args[0], blocks)
			if err != nil {
				return err
			}
			defer dev.Close()

			fs, err := muon.Format(dev, blocks, inodes)
			if err != nil {
				return err
			}
			return fs.Unmount()
		},
	}
}

func lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <image> [path]",
		Short: "List a directory's entries",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) > 1 {
				path = args[1]
			}

			fs, dev, err := openReadOnly(args[0])
			if err != nil {
				return err
			}
			defer dev.Close()

			entries, err := fs.ReadDir(path)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Println(e.NameString())
			}
			return nil
		},
	}
}

func catCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <image> <path>",
		Short: "Print a regular file's contents",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, dev, err := openReadOnly(args[0])
			if err != nil {
				return err
			}
			defer dev.Close()

			buf := make([]byte, muon.BlockSize)
			var offset uint64
			for {
				n, err := fs.Fread(args[1], offset, buf)
				if n > 0 {
					os.Stdout.Write(buf[:n])
					offset += uint64(n)
				}
				if err != nil {
					return err
				}
				if n == 0 {
					break
				}
			}
			return nil
		},
	}
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <image>",
		Short: "Print superblock layout information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, dev, err := openReadOnly(args[0])
			if err != nil {
				return err
			}
			defer dev.Close()

			sb := fs.SuperBlock()
			fmt.Printf("total blocks:  %d\n", sb.TotalBlocks)
			fmt.Printf("block size:    %d\n", sb.BlockSize)
			fmt.Printf("free blocks:   %d\n", sb.FreeBlocks)
			fmt.Printf("num inodes:    %d\n", sb.NumInodes)
			fmt.Printf("free inodes:   %d\n", sb.FreeInodes)
			fmt.Printf("data bitmap:   start=%d len=%d\n", sb.DataBitmapStart, sb.DataBitmapLen)
			fmt.Printf("inode bitmap:  start=%d len=%d\n", sb.InodeBitmapStart, sb.InodeBitmapLen)
			fmt.Printf("inode table:   start=%d len=%d\n", sb.InodeTableStart, sb.InodeTableLen)
			fmt.Printf("data region:   start=%d len=%d\n", sb.DataStart, sb.DataLen)
			return nil
		},
	}
}

func parseUint32(s string) (uint32, error) {
	var v uint32
	_, err := fmt.Sscanf(s, "%d", &v)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return v, nil
}

// openReadOnly mounts image for inspection. The façade itself has no
// notion of read-only mode; commands that only read simply never call a
// mutating operation.
func openReadOnly(imagePath string) (*muon.FileSystem, *muon.FileDevice, error) {
	info, err := os.Stat(imagePath)
	if err != nil {
		return nil, nil, err
	}
	blocks := uint32(info.Size() / muon.BlockSize)

	dev, err := muon.OpenFileDevice(imagePath, blocks)
	if err != nil {
		return nil, nil, err
	}
	fs, err := muon.Mount(dev)
	if err != nil {
		dev.Close()
		return nil, nil, err
	}
	return fs, dev, nil
}
