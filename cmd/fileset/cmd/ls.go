package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lsIncludes, lsExcludes []string

var lsCmd = &cobra.Command{
	Use:   "ls <dir>",
	Short: "List a directory's fileset entries",
	Long:  "Walk a directory as a fileset and print each path with its content hash.",
	Args:  cobra.ExactArgs(1),
	RunE:  runLs,
}

func init() {
	lsCmd.Flags().StringSliceVar(&lsIncludes, "include", nil, "include glob (repeatable)")
	lsCmd.Flags().StringSliceVar(&lsExcludes, "exclude", nil, "exclude glob (repeatable)")
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, args []string) (err error) {
	ws, err := newWorkspace()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	opts, err := addOptions(lsIncludes, lsExcludes)
	if err != nil {
		return err
	}

	fs, err := ws.Fileset().Add(args[0], opts...)
	if err != nil {
		return err
	}

	for p, e := range fs.Entries() {
		fmt.Printf("%s\t%s\n", e.Hash[:12], p)
	}
	if fs.Len() == 0 {
		fmt.Println("(no entries)")
	}
	return nil
}
