//go:build fuse

package main

import (
	"github.com/doruche/muon"
	"github.com/spf13/cobra"
)

func mountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mount <image> <mountpoint>",
		Short: "Mount a Muon image via FUSE",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, dev, err := openReadOnly(args[0])
			if err != nil {
				return err
			}
			defer dev.Close()

			return muon.MountFUSE(fs, args[1])
		},
	}
}
