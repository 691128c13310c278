/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jacques-n/parquet-mr/pkg/codec"
	"github.com/jacques-n/parquet-mr/pkg/values/rle"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Show the structure of a page envelope",
	Long: `Show the header of a page envelope and the layout of its data section:
the runs of RLE and dictionary pages and the stream header of delta pages.
Values are not decoded.

Examples:
  pagecodec inspect page.bin
  pagecodec get <id> --raw | pagecodec inspect --hex --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "-"
		if len(args) == 1 {
			path = args[0]
		}
		isHex, _ := cmd.Flags().GetBool("hex")
		data, err := readPageBytes(cmd, path, isHex)
		if err != nil {
			return err
		}

		p, err := codec.NewPageCodec().Decode(data)
		if err != nil {
			return err
		}
		checksum := "ok"
		if err := p.Validate(); err != nil {
			checksum = err.Error()
		}
		layout, layoutErr := p.Layout()

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			report := struct {
				Header   pageHeader    `json:"header"`
				Checksum string        `json:"checksum"`
				Layout   *codec.Layout `json:"layout"`
				Error    string        `json:"error,omitempty"`
			}{Header: headerOf(p), Checksum: checksum, Layout: layout}
			if layoutErr != nil {
				report.Error = layoutErr.Error()
			}
			return printJSON(cmd, report)
		}

		printInspection(cmd, p, checksum, layout)
		return layoutErr
	},
}

type pageHeader struct {
	Version         uint8  `json:"version"`
	Encoding        string `json:"encoding"`
	Type            string `json:"type"`
	BitWidth        uint8  `json:"bit_width"`
	TypeLength      uint32 `json:"type_length"`
	ValueCount      uint32 `json:"value_count"`
	DictionaryCount uint32 `json:"dictionary_count"`
	DictionarySize  int    `json:"dictionary_size"`
	DataSize        int    `json:"data_size"`
	CRC32           uint32 `json:"crc32"`
}

func headerOf(p *codec.Page) pageHeader {
	return pageHeader{
		Version:         p.Version,
		Encoding:        p.Encoding.String(),
		Type:            p.Type.String(),
		BitWidth:        p.BitWidth,
		TypeLength:      p.TypeLength,
		ValueCount:      p.ValueCount,
		DictionaryCount: p.DictionaryCount,
		DictionarySize:  len(p.Dictionary),
		DataSize:        len(p.Data),
		CRC32:           p.CRC32,
	}
}

func printInspection(cmd *cobra.Command, p *codec.Page, checksum string, layout *codec.Layout) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	h := headerOf(p)
	fmt.Fprintf(w, "Version:\t%d\n", h.Version)
	fmt.Fprintf(w, "Encoding:\t%s\n", h.Encoding)
	fmt.Fprintf(w, "Type:\t%s\n", h.Type)
	fmt.Fprintf(w, "Bit width:\t%d\n", h.BitWidth)
	fmt.Fprintf(w, "Type length:\t%d\n", h.TypeLength)
	fmt.Fprintf(w, "Values:\t%d\n", h.ValueCount)
	fmt.Fprintf(w, "Dictionary:\t%d values, %d bytes\n", h.DictionaryCount, h.DictionarySize)
	fmt.Fprintf(w, "Data:\t%d bytes\n", h.DataSize)
	fmt.Fprintf(w, "CRC32:\t%08x (%s)\n", h.CRC32, checksum)
	_ = w.Flush()

	if layout == nil {
		return
	}
	if layout.LengthPrefix > 0 {
		cmd.Printf("\nLength prefix: %d bytes\n", layout.LengthPrefix)
	}
	if layout.IndexBitWidth > 0 {
		cmd.Printf("\nIndex bit width: %d\n", layout.IndexBitWidth)
	}
	if d := layout.Delta; d != nil {
		cmd.Printf("\nDelta header: block size %d, %d mini blocks, %d values, first value %d\n",
			d.BlockSize, d.MiniBlocks, d.TotalCount, d.FirstValue)
	}
	if len(layout.Runs) > 0 {
		cmd.Printf("\nRuns:\n")
		w = tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "OFFSET\tKIND\tLENGTH\tVALUE")
		for _, r := range layout.Runs {
			value := "-"
			if r.Kind == rle.RunLength {
				value = fmt.Sprint(r.Value)
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", r.Offset, r.Kind, r.Length, value)
		}
		_ = w.Flush()
	}
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("hex", false, "Input is hex encoded")
	inspectCmd.Flags().Bool("json", false, "Print the report as JSON")
}
