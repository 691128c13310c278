package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacques-n/parquet-mr/pkg/di"
)

// resetFlags restores every flag to its default; cobra keeps flag values
// between executions of the same command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

type cli struct {
	t      *testing.T
	config string
	data   string
}

func newCLI(t *testing.T) *cli {
	dir := t.TempDir()
	return &cli{t: t, config: filepath.Join(dir, "config.yaml"), data: filepath.Join(dir, "data")}
}

func (c *cli) run(stdin string, args ...string) (string, error) {
	c.t.Helper()
	SetContainer(di.NewContainer())
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--config", c.config, "--data-dir", c.data}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run("", args...)
	require.NoError(c.t, err, out)
	return out
}

func TestEncodeCommand(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun("encode", "--type", "int32", "--encoding", "DELTA_BINARY_PACKED", "1", "2", "3", "4", "5")
	assert.Equal(t, "80010405020200000000\n", out)

	out = c.mustRun("encode", "-t", "int64", "--", "-7")
	assert.Equal(t, "f9ffffffffffffff\n", out)

	out = c.mustRun("encode", "-t", "byte_array", "-e", "RLE_DICTIONARY", "a", "a", "b", "c", "b")
	assert.Contains(t, out, "dictionary (3 values)")
	assert.Contains(t, out, "02039001\n")

	_, err := c.run("", "encode", "-t", "int32", "x")
	assert.Error(t, err)

	_, err = c.run("", "encode", "1")
	assert.ErrorContains(t, err, "--type is required")
}

func TestEncodeCommand_InputFile(t *testing.T) {
	c := newCLI(t)
	input := filepath.Join(t.TempDir(), "values.json")
	require.NoError(t, os.WriteFile(input, []byte(`[9007199254740993, -1]`), 0600))

	envelope := filepath.Join(t.TempDir(), "page.bin")
	c.mustRun("encode", "-t", "int64", "-e", "DELTA_BINARY_PACKED", "--input", input, "--envelope", "--out", envelope)

	out := c.mustRun("decode", "--envelope", envelope)
	var got []int64
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []int64{9007199254740993, -1}, got)
}

func TestDecodeCommand(t *testing.T) {
	c := newCLI(t)

	out, err := c.run("8001040502020000 0000\n", "decode", "--hex", "-e", "DELTA_BINARY_PACKED", "-t", "int32", "-n", "5")
	require.NoError(t, err, out)
	var got []int32
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []int32{1, 2, 3, 4, 5}, got)

	_, err = c.run("0100", "decode", "--hex", "-t", "int32")
	assert.ErrorContains(t, err, "--count is required")

	_, err = c.run("0100", "decode", "--hex", "-e", "PLAIN_DICTIONARY", "-t", "int32", "-n", "1")
	assert.ErrorContains(t, err, "--envelope")

	_, err = c.run("01000000", "decode", "--hex", "-t", "int32", "-n", "2")
	assert.ErrorContains(t, err, "could not read int32 with PLAIN encoding")

	_, err = c.run("zz", "decode", "--hex", "-t", "int32", "-n", "1")
	assert.ErrorContains(t, err, "invalid hex input")
}

func TestDictionaryEnvelope(t *testing.T) {
	c := newCLI(t)
	envelope := filepath.Join(t.TempDir(), "page.bin")

	out := c.mustRun("encode", "-t", "byte_array", "-e", "RLE_DICTIONARY", "--envelope", "--out", envelope, "a", "a", "b", "c", "b")
	assert.Contains(t, out, "Wrote")

	out = c.mustRun("decode", "--envelope", envelope)
	var got []string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"a", "a", "b", "c", "b"}, got)

	out = c.mustRun("inspect", envelope)
	assert.Contains(t, out, "RLE_DICTIONARY")
	assert.Contains(t, out, "(ok)")
	assert.Contains(t, out, "Index bit width: 2")
	assert.Contains(t, out, "bit-packed")
}

func TestInspectCommand_JSON(t *testing.T) {
	c := newCLI(t)
	envelope := filepath.Join(t.TempDir(), "page.bin")
	c.mustRun("encode", "-t", "int32", "-e", "DELTA_BINARY_PACKED", "--envelope", "--out", envelope, "1", "2", "3", "4", "5")

	out := c.mustRun("inspect", "--json", envelope)
	var report struct {
		Header struct {
			Encoding   string `json:"encoding"`
			ValueCount int    `json:"value_count"`
		} `json:"header"`
		Checksum string `json:"checksum"`
		Layout   struct {
			Delta struct {
				BlockSize  int `json:"block_size"`
				TotalCount int `json:"total_count"`
			} `json:"delta"`
		} `json:"layout"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "DELTA_BINARY_PACKED", report.Header.Encoding)
	assert.Equal(t, 5, report.Header.ValueCount)
	assert.Equal(t, "ok", report.Checksum)
	assert.Equal(t, 128, report.Layout.Delta.BlockSize)
	assert.Equal(t, 5, report.Layout.Delta.TotalCount)

	data, err := os.ReadFile(envelope)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(envelope, data, 0600))

	out = c.mustRun("inspect", envelope)
	assert.Contains(t, out, "page checksum mismatch")
}

func TestPageStoreCommands(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun("list")
	assert.Contains(t, out, "No pages stored")

	id := strings.TrimSpace(c.mustRun("put", "--name", "ids", "-t", "int64", "-e", "DELTA_BINARY_PACKED", "100", "101", "105"))
	require.NotEmpty(t, id)

	out = c.mustRun("list")
	assert.Contains(t, out, id)
	assert.Contains(t, out, "ids")
	assert.Contains(t, out, "DELTA_BINARY_PACKED")

	out = c.mustRun("get", id)
	var page struct {
		ID     string  `json:"id"`
		Name   string  `json:"name"`
		Values []int64 `json:"values"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, id, page.ID)
	assert.Equal(t, "ids", page.Name)
	assert.Equal(t, []int64{100, 101, 105}, page.Values)

	raw := c.mustRun("get", id, "--raw")
	out, err := c.run(raw, "inspect", "--hex")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Delta header: block size 128, 4 mini blocks, 3 values, first value 100")

	out = c.mustRun("delete", id)
	assert.Contains(t, out, "Successfully deleted page")

	_, err = c.run("", "get", id)
	assert.ErrorContains(t, err, "page not found")

	_, err = c.run("", "delete", "not-an-id")
	assert.ErrorContains(t, err, "invalid page id")
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("", "--log-level", "loud", "list")
	assert.ErrorContains(t, err, "invalid configuration")

	require.NoError(t, os.WriteFile(c.config, []byte("port: 0\n"), 0600))
	_, err = c.run("", "list")
	assert.ErrorContains(t, err, "port 0 out of range")
}

func TestRootCommand_NoContainer(t *testing.T) {
	SetContainer(nil)
	defer SetContainer(di.NewContainer())
	resetFlags(rootCmd)

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"list"})
	err := rootCmd.Execute()
	assert.ErrorContains(t, err, "dependency container not initialized")
}
