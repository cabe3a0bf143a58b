package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var packCmd = &cobra.Command{
	Use:   "pack <src-dir> <out-file>",
	Short: "Pack a directory into a zstd-compressed tar",
	Args:  cobra.ExactArgs(2),
	RunE:  runPack,
}

var unpackCmd = &cobra.Command{
	Use:   "unpack <archive> <dest-dir>",
	Short: "Unpack an archive and commit it to a directory",
	Args:  cobra.ExactArgs(2),
	RunE:  runUnpack,
}

func init() {
	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(unpackCmd)
}

func runPack(cmd *cobra.Command, args []string) (err error) {
	ws, err := newWorkspace()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	fs, err := ws.Fileset().Add(args[0])
	if err != nil {
		return err
	}

	out, err := os.Create(args[1])
	if err != nil {
		return err
	}
	if err := fs.Pack(out); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	fmt.Printf("packed %d files to %s\n", fs.Len(), args[1])
	return nil
}

func runUnpack(cmd *cobra.Command, args []string) (err error) {
	ws, err := newWorkspace()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	in, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	fs, err := ws.Fileset().AddArchive(in)
	if err != nil {
		return err
	}
	if _, err := fs.Commit(args[1]); err != nil {
		return err
	}
	fmt.Printf("unpacked %d files to %s\n", fs.Len(), args[1])
	return nil
}
