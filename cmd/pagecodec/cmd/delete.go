/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jacques-n/parquet-mr/pkg/storage"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored page",
	Long: `Delete a page from the page store.

Example:
  pagecodec delete 2zG5T8Jg3nH3m1sXbI2Yy9Jx1Qp`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := storage.ParseID(args[0])
		if err != nil {
			return err
		}

		st, err := container.OpenStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Delete(id); err != nil {
			return err
		}
		cmd.Printf("Successfully deleted page '%s'\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
