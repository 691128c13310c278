/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacques-n/parquet-mr/pkg/storage"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get a stored page",
	Long: `Get a stored page and print its descriptor and decoded values as JSON.
With --raw the envelope is printed as hex, or written to --out.

Examples:
  pagecodec get 2zG5T8Jg3nH3m1sXbI2Yy9Jx1Qp
  pagecodec get 2zG5T8Jg3nH3m1sXbI2Yy9Jx1Qp --raw --out page.bin`,
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

		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			env, err := st.Raw(id)
			if err != nil {
				return err
			}
			if out, _ := cmd.Flags().GetString("out"); out != "" {
				return writeOutput(cmd, out, env)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(env))
			return nil
		}

		p, err := st.Get(id)
		if err != nil {
			return err
		}
		d, err := st.Describe(id)
		if err != nil {
			return err
		}
		vals, err := decodePage(p)
		if err != nil {
			return err
		}
		return printJSON(cmd, struct {
			*storage.Descriptor
			Values []any `json:"values"`
		}{d, vals})
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().Bool("raw", false, "Output the stored envelope")
	getCmd.Flags().StringP("out", "o", "", "Write the raw envelope to a file")
}
