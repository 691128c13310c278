/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacques-n/parquet-mr/pkg/codec"
	"github.com/jacques-n/parquet-mr/pkg/values"
)

// decodeCmd represents the decode command
var decodeCmd = &cobra.Command{
	Use:   "decode [file]",
	Short: "Decode the values of a page",
	Long: `Decode a page and print its values as JSON.

Input is read from the file argument or stdin. Envelopes carry their own
parameters; bare data pages need --encoding, --type and --count.

Examples:
  pagecodec decode --envelope page.bin
  echo 8001040502020000 | pagecodec decode --hex -e DELTA_BINARY_PACKED -t int32 -n 5`,
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

		var p *codec.Page
		if envelope, _ := cmd.Flags().GetBool("envelope"); envelope {
			p, err = readEnvelope(data)
		} else {
			p, err = pageFromFlags(cmd, data)
		}
		if err != nil {
			return err
		}

		vals, err := decodePage(p)
		if err != nil {
			container.Logger().Debug("decode failed", "encoding", p.Encoding.String(), "type", p.Type.String(),
				"decoded", len(vals), "error", err)
			return err
		}
		return printJSON(cmd, vals)
	},
}

func readEnvelope(data []byte) (*codec.Page, error) {
	p, err := codec.NewPageCodec().Decode(data)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func pageFromFlags(cmd *cobra.Command, data []byte) (*codec.Page, error) {
	name, _ := cmd.Flags().GetString("encoding")
	enc, err := values.ParseEncoding(name)
	if err != nil {
		return nil, err
	}
	if enc.IsDictionary() {
		return nil, fmt.Errorf("%s pages carry a dictionary; decode them with --envelope", enc)
	}
	typeName, _ := cmd.Flags().GetString("type")
	typ, err := values.ParseType(typeName)
	if err != nil {
		return nil, err
	}
	if !cmd.Flags().Changed("count") {
		return nil, fmt.Errorf("--count is required for data pages")
	}

	count, _ := cmd.Flags().GetUint32("count")
	width, _ := cmd.Flags().GetUint8("bit-width")
	length, _ := cmd.Flags().GetUint32("type-length")
	return &codec.Page{
		Version:    codec.Version,
		Encoding:   enc,
		Type:       typ,
		BitWidth:   width,
		TypeLength: length,
		ValueCount: count,
		Data:       data,
	}, nil
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().Bool("envelope", false, "Input is a page envelope")
	decodeCmd.Flags().Bool("hex", false, "Input is hex encoded")
	decodeCmd.Flags().StringP("encoding", "e", "PLAIN", "Encoding of a data page")
	decodeCmd.Flags().StringP("type", "t", "", "Primitive type of a data page")
	decodeCmd.Flags().Uint32P("count", "n", 0, "Number of values in a data page")
	decodeCmd.Flags().Uint8("bit-width", 0, "Bit width of an RLE int32 data page")
	decodeCmd.Flags().Uint32("type-length", 0, "Length of fixed_len_byte_array values")
}
