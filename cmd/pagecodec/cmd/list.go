/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored pages",
	Long: `List the pages in the page store, oldest first.

Example:
  pagecodec list --data-dir ./data`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := container.OpenStore()
		if err != nil {
			return err
		}
		defer st.Close()

		pages, err := st.List()
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd, pages)
		}
		if len(pages) == 0 {
			cmd.Println("No pages stored")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tENCODING\tTYPE\tVALUES\tSIZE\tCREATED")
		for _, d := range pages {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
				d.ID, d.Name, d.Encoding, d.Type, d.ValueCount, d.Size, d.Created.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Bool("json", false, "Print descriptors as JSON")
}
