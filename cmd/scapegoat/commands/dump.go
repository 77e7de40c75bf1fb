package commands

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/scapegoat/pkg/safeconv"
	"github.com/Sumatoshi-tech/scapegoat/pkg/scapegoat"
)

// ErrNoDumpInput is returned when dump is invoked without keys.
var ErrNoDumpInput = errors.New("dump requires keys: positional integers, --file, --random N or --ascending N")

// DumpCommand holds configuration for the dump command.
type DumpCommand struct {
	alpha     float64
	filePath  string
	random    int
	ascending int
	seed      int64
	dot       bool
	outPath   string
}

// NewDumpCommand creates the dump command.
func NewDumpCommand() *cobra.Command {
	dc := &DumpCommand{}

	cmd := &cobra.Command{
		Use:   "dump [keys...]",
		Short: "Build a tree from the given keys and render its structure",
		Long: `Dump inserts the given keys into a fresh tree and renders the result,
either as an indented per-node text listing or as Graphviz DOT with
--dot. Keys come from positional arguments, a whitespace-separated
--file, --random N draws, or an --ascending N sequence.`,
		Args: cobra.ArbitraryArgs,
		RunE: dc.run,
	}

	cmd.Flags().Float64Var(&dc.alpha, "alpha", 0.65, "Balance parameter in (0.5, 1)")
	cmd.Flags().StringVar(&dc.filePath, "file", "", "Read whitespace-separated keys from this file")
	cmd.Flags().IntVar(&dc.random, "random", 0, "Insert this many random keys instead of positional ones")
	cmd.Flags().IntVar(&dc.ascending, "ascending", 0, "Insert keys 1..N instead of positional ones")
	cmd.Flags().Int64Var(&dc.seed, "seed", 1, "Random seed for --random")
	cmd.Flags().BoolVar(&dc.dot, "dot", false, "Render Graphviz DOT instead of the text listing")
	cmd.Flags().StringVar(&dc.outPath, "out", "", "Write the rendering to this file instead of stdout")

	return cmd
}

func (dc *DumpCommand) run(cmd *cobra.Command, args []string) error {
	keys, err := dc.resolveKeys(args)
	if err != nil {
		return err
	}

	tree, err := scapegoat.New[uint32](dc.alpha)
	if err != nil {
		return err
	}

	for _, key := range keys {
		tree.Insert(key)
	}

	if dc.outPath == "" {
		return renderTree(tree, cmd.OutOrStdout(), dc.dot)
	}

	file, err := os.Create(dc.outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", dc.outPath, err)
	}

	err = renderTree(tree, file, dc.dot)

	closeErr := file.Close()
	if err != nil {
		return err
	}

	if closeErr != nil {
		return fmt.Errorf("close %s: %w", dc.outPath, closeErr)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "dump written to %s\n", dc.outPath)

	return nil
}

func (dc *DumpCommand) resolveKeys(args []string) ([]uint32, error) {
	if len(args) > 0 {
		return parseKeys(args)
	}

	if dc.filePath != "" {
		data, err := os.ReadFile(dc.filePath)
		if err != nil {
			return nil, fmt.Errorf("read keys file %s: %w", dc.filePath, err)
		}

		fields := strings.Fields(string(data))
		if len(fields) == 0 {
			return nil, fmt.Errorf("%w: %s holds no keys", ErrNoDumpInput, dc.filePath)
		}

		return parseKeys(fields)
	}

	if dc.random > 0 {
		rng := rand.New(rand.NewSource(dc.seed))
		keys := make([]uint32, dc.random)

		for i := range keys {
			keys[i] = rng.Uint32()
		}

		return keys, nil
	}

	if dc.ascending > 0 {
		keys := make([]uint32, dc.ascending)

		for i := range keys {
			keys[i] = safeconv.MustIntToUint32(i + 1)
		}

		return keys, nil
	}

	return nil, ErrNoDumpInput
}

func parseKeys(fields []string) ([]uint32, error) {
	keys := make([]uint32, 0, len(fields))

	for _, field := range fields {
		parsed, err := strconv.ParseUint(field, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse key %q: %w", field, err)
		}

		keys = append(keys, uint32(parsed))
	}

	return keys, nil
}

func renderTree(tree *scapegoat.Tree[uint32], w io.Writer, dot bool) error {
	if dot {
		return tree.WriteDot(w)
	}

	return tree.DumpTo(w)
}
