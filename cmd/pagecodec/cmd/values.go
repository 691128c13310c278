/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacques-n/parquet-mr/pkg/codec"
	"github.com/jacques-n/parquet-mr/pkg/values"
)

// addPageFlags registers the flags describing a page to build.
func addPageFlags(c *cobra.Command) {
	c.Flags().StringP("encoding", "e", "PLAIN", "Value encoding")
	c.Flags().StringP("type", "t", "", "Primitive type of the values (required)")
	c.Flags().Int("bit-width", 0, "Bit width of RLE int32 values (0 infers it)")
	c.Flags().Int("type-length", 0, "Length of fixed_len_byte_array values")
	c.Flags().Int("delta-block-size", 0, "Values per delta block (0 uses the configured default)")
	c.Flags().Int("delta-mini-blocks", 0, "Mini blocks per delta block")
	c.Flags().StringP("input", "i", "", "Read values from a JSON array file instead of arguments (- for stdin)")
}

func pageSpecFromFlags(c *cobra.Command) (codec.PageSpec, error) {
	var spec codec.PageSpec

	name, _ := c.Flags().GetString("encoding")
	enc, err := values.ParseEncoding(name)
	if err != nil {
		return spec, err
	}
	typeName, _ := c.Flags().GetString("type")
	if typeName == "" {
		return spec, fmt.Errorf("--type is required")
	}
	typ, err := values.ParseType(typeName)
	if err != nil {
		return spec, err
	}

	spec.Encoding = enc
	spec.Type = typ
	spec.BitWidth, _ = c.Flags().GetInt("bit-width")
	spec.TypeLength, _ = c.Flags().GetInt("type-length")
	spec.DeltaBlockSize, _ = c.Flags().GetInt("delta-block-size")
	spec.DeltaMiniBlocks, _ = c.Flags().GetInt("delta-mini-blocks")
	if spec.DeltaBlockSize == 0 && container != nil {
		spec.DeltaBlockSize = container.Config().Codec.DeltaBlockSize
		spec.DeltaMiniBlocks = container.Config().Codec.DeltaMiniBlocks
	}
	return spec, nil
}

// readValues returns the values to encode, from --input or the arguments.
func readValues(c *cobra.Command, typ values.Type, args []string) ([]any, error) {
	input, _ := c.Flags().GetString("input")
	if input == "" {
		out := make([]any, len(args))
		for i, arg := range args {
			v, err := parseValue(typ, arg)
			if err != nil {
				return nil, fmt.Errorf("value %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	}

	data, err := readInput(c, input)
	if err != nil {
		return nil, err
	}
	var vals []any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&vals); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", input, err)
	}
	return vals, nil
}

// parseValue converts a command line argument to a value of typ.
func parseValue(typ values.Type, s string) (any, error) {
	switch typ {
	case values.Boolean:
		return strconv.ParseBool(s)
	case values.Int32:
		n, err := strconv.ParseInt(s, 10, 32)
		return int32(n), err
	case values.Int64:
		return strconv.ParseInt(s, 10, 64)
	case values.Float:
		f, err := strconv.ParseFloat(s, 32)
		return float32(f), err
	case values.Double:
		return strconv.ParseFloat(s, 64)
	case values.ByteArray, values.FixedLenByteArray:
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %s", values.ErrUnsupportedEncoding, typ)
	}
}

// readInput reads a file, or stdin for "-".
func readInput(c *cobra.Command, path string) ([]byte, error) {
	if path == "-" || path == "" {
		return io.ReadAll(c.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// readPageBytes reads binary page input, decoding it first if it is hex.
func readPageBytes(c *cobra.Command, path string, isHex bool) ([]byte, error) {
	data, err := readInput(c, path)
	if err != nil || !isHex {
		return data, err
	}
	b, err := hex.DecodeString(strings.Join(strings.Fields(string(data)), ""))
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return b, nil
}

func writeOutput(c *cobra.Command, path string, data []byte) error {
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	c.Printf("Wrote %d bytes to %s\n", len(data), path)
	return nil
}

func printJSON(c *cobra.Command, v any) error {
	enc := json.NewEncoder(c.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// decodePage decodes every value of p.
func decodePage(p *codec.Page) ([]any, error) {
	dec, err := p.NewDecoder(nil)
	if err != nil {
		return nil, err
	}
	return codec.DecodeValues(dec)
}
