package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stagekit/fileset"
)

var diffCmd = &cobra.Command{
	Use:   "diff <before-dir> <after-dir>",
	Short: "Compare two directories as filesets",
	Long:  "Print paths added, removed and changed between two directory trees, by content hash.",
	Args:  cobra.ExactArgs(2),
	RunE:  runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) (err error) {
	ws, err := newWorkspace()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	before, err := ws.Fileset().Add(args[0])
	if err != nil {
		return err
	}
	after, err := ws.Fileset().Add(args[1])
	if err != nil {
		return err
	}

	for _, p := range fileset.Added(before, after).Ls() {
		fmt.Printf("A %s\n", p)
	}
	for _, p := range fileset.Removed(before, after).Ls() {
		fmt.Printf("D %s\n", p)
	}
	for _, p := range fileset.Changed(before, after).Ls() {
		fmt.Printf("M %s\n", p)
	}
	return nil
}
