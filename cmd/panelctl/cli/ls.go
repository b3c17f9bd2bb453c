package cli

import (
	"fmt"
	"text/tabwriter"

	"bitwise74/bucket-panel/pkg/explorer"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func NewLsCommand() *cobra.Command {
	var prefix, search string

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List folders and files under a prefix",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}

			res, err := c.List(cmd.Context(), prefix, search)
			if err != nil {
				return err
			}

			view := explorer.Build(res.Files, prefix, search)
			if res.Explorer != nil {
				view = *res.Explorer
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, f := range view.Folders {
				fmt.Fprintf(w, "%s/\t%d items\t\n", f.Name, f.Count)
			}
			for _, f := range view.Files {
				fmt.Fprintf(w, "%s\t%s\t%s\n", f.FileName, humanize.IBytes(uint64(f.Size)), humanize.Time(f.LastModified))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n%d files, %s in %s\n",
				res.Stats.TotalFiles, humanize.IBytes(uint64(res.Stats.TotalSize)), res.Stats.Bucket)

			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "folder to list")
	cmd.Flags().StringVar(&search, "search", "", "filter by name, key or uploader")

	return cmd
}
