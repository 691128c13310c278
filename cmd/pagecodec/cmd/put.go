/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacques-n/parquet-mr/pkg/codec"
)

// putCmd represents the put command
var putCmd = &cobra.Command{
	Use:   "put [values...]",
	Short: "Encode values and store the page",
	Long: `Encode values into a page and keep it in the page store. The id of the
stored page is printed.

Example:
  pagecodec put --name ids --type int64 --encoding DELTA_BINARY_PACKED 100 101 105`,
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := pageSpecFromFlags(cmd)
		if err != nil {
			return err
		}
		vals, err := readValues(cmd, spec.Type, args)
		if err != nil {
			return err
		}
		p, err := codec.Build(spec, vals)
		if err != nil {
			return err
		}

		st, err := container.OpenStore()
		if err != nil {
			return err
		}
		defer st.Close()

		name, _ := cmd.Flags().GetString("name")
		d, err := st.Put(name, p)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), d.ID.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(putCmd)
	addPageFlags(putCmd)
	putCmd.Flags().String("name", "", "Name recorded with the page")
}
