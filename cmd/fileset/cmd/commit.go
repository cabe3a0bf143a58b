package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var commitIncludes, commitExcludes []string

var commitCmd = &cobra.Command{
	Use:   "commit <src-dir>... <dest-dir>",
	Short: "Materialize source directories into a destination",
	Long: "Add each source directory into one fileset (later sources overwrite " +
		"colliding paths) and commit the result to the destination via hard links.",
	Args: cobra.MinimumNArgs(2),
	RunE: runCommit,
}

func init() {
	commitCmd.Flags().StringSliceVar(&commitIncludes, "include", nil, "include glob (repeatable)")
	commitCmd.Flags().StringSliceVar(&commitExcludes, "exclude", nil, "exclude glob (repeatable)")
	rootCmd.AddCommand(commitCmd)
}

func runCommit(cmd *cobra.Command, args []string) (err error) {
	ws, err := newWorkspace()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	opts, err := addOptions(commitIncludes, commitExcludes)
	if err != nil {
		return err
	}

	fs := ws.Fileset()
	srcs, dest := args[:len(args)-1], args[len(args)-1]
	for _, src := range srcs {
		if fs, err = fs.Add(src, opts...); err != nil {
			return err
		}
	}

	if _, err := fs.Commit(dest); err != nil {
		return err
	}
	fmt.Printf("committed %d files to %s\n", fs.Len(), dest)
	return nil
}
