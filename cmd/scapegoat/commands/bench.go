package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/scapegoat/pkg/safeconv"
	"github.com/Sumatoshi-tech/scapegoat/pkg/scapegoat"
)

var (
	errBenchSelfCheck = errors.New("bench self-check failed")

	// ErrBenchFlags is returned when bench is invoked with a
	// non-positive key count or an empty alpha list.
	ErrBenchFlags = errors.New("bench requires positive --keys and at least one --alphas value")
)

// BenchCommand holds configuration for the bench command.
type BenchCommand struct {
	alphas []float64
	keys   int
}

// NewBenchCommand creates the bench command.
func NewBenchCommand() *cobra.Command {
	bc := &BenchCommand{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure point-op and lifecycle throughput across alpha values",
		Long: `Bench times a fixed sequence of phases on one tree per alpha value:
ascending inserts, hit and miss searches, removal of half the working
set, and the hibernate/boot and pack/unpack lifecycle on the remainder.
Each phase reports wall time, ns/op and ops/s.`,
		Args: cobra.NoArgs,
		RunE: bc.run,
	}

	cmd.Flags().Float64SliceVar(&bc.alphas, "alphas", []float64{0.65}, "Alpha values to measure")
	cmd.Flags().IntVar(&bc.keys, "keys", 1<<16, "Working set size in keys")

	return cmd
}

func (bc *BenchCommand) run(cmd *cobra.Command, _ []string) error {
	if bc.keys <= 0 || len(bc.alphas) == 0 {
		return ErrBenchFlags
	}

	results := make([]benchResult, 0, len(bc.alphas))

	for _, alpha := range bc.alphas {
		phases, summary, err := runBench(alpha, bc.keys)
		if err != nil {
			return err
		}

		results = append(results, benchResult{Alpha: alpha, Phases: phases, Summary: summary})
	}

	renderBenchResults(cmd.OutOrStdout(), results)

	return nil
}

// benchPhase records one timed phase of a bench run.
type benchPhase struct {
	Name    string
	Ops     int
	Elapsed time.Duration
}

func (p benchPhase) nsPerOp() int64 {
	if p.Ops == 0 {
		return 0
	}

	return p.Elapsed.Nanoseconds() / int64(p.Ops)
}

func (p benchPhase) opsPerSecond() int64 {
	if p.Elapsed <= 0 {
		return int64(p.Ops)
	}

	return int64(float64(p.Ops) / p.Elapsed.Seconds())
}

type benchSummary struct {
	FinalKeys int
	Rebuilds  uint64
	Footprint uint64
}

// benchResult carries the phases and end state of one alpha's run.
type benchResult struct {
	Alpha   float64
	Phases  []benchPhase
	Summary benchSummary
}

func runBench(alpha float64, keys int) ([]benchPhase, benchSummary, error) {
	tree, err := scapegoat.New[uint32](alpha)
	if err != nil {
		return nil, benchSummary{}, err
	}

	seq := make([]uint32, keys)
	for i := range seq {
		seq[i] = safeconv.MustIntToUint32(i)
	}

	phases := make([]benchPhase, 0, 6)

	measure := func(name string, ops int, fn func() error) error {
		started := time.Now()

		err := fn()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		phases = append(phases, benchPhase{Name: name, Ops: ops, Elapsed: time.Since(started)})

		return nil
	}

	err = measure("insert ascending", keys, func() error {
		for _, key := range seq {
			tree.Insert(key)
		}

		return nil
	})
	if err != nil {
		return nil, benchSummary{}, err
	}

	err = measure("search hit", keys, func() error {
		for _, key := range seq {
			if !tree.Search(key) {
				return fmt.Errorf("%w: lost key %d", errBenchSelfCheck, key)
			}
		}

		return nil
	})
	if err != nil {
		return nil, benchSummary{}, err
	}

	miss := safeconv.MustIntToUint32(keys)

	err = measure("search miss", keys, func() error {
		for _, key := range seq {
			if tree.Search(key + miss) {
				return fmt.Errorf("%w: phantom key %d", errBenchSelfCheck, key+miss)
			}
		}

		return nil
	})
	if err != nil {
		return nil, benchSummary{}, err
	}

	err = measure("remove half", keys/2, func() error {
		for _, key := range seq[:keys/2] {
			if !tree.Remove(key) {
				return fmt.Errorf("%w: remove missed key %d", errBenchSelfCheck, key)
			}
		}

		return nil
	})
	if err != nil {
		return nil, benchSummary{}, err
	}

	err = measure("hibernate + boot", 1, func() error {
		tree.Hibernate()
		tree.Boot()

		return nil
	})
	if err != nil {
		return nil, benchSummary{}, err
	}

	err = measure("pack + unpack", 1, func() error {
		tree.Hibernate()

		packErr := scapegoat.Pack(tree)
		if packErr != nil {
			return packErr
		}

		packErr = scapegoat.Unpack(tree)
		if packErr != nil {
			return packErr
		}

		tree.Boot()

		return nil
	})
	if err != nil {
		return nil, benchSummary{}, err
	}

	summary := benchSummary{
		FinalKeys: tree.Len(),
		Rebuilds:  tree.Stats().Rebuilds,
		Footprint: tree.Arena().Footprint(),
	}

	return phases, summary, nil
}

func renderBenchResults(w io.Writer, results []benchResult) {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Alpha", "Phase", "Ops", "Elapsed", "ns/op", "ops/s"})

	for _, res := range results {
		for _, phase := range res.Phases {
			tbl.AppendRow(table.Row{
				fmt.Sprintf("%.2f", res.Alpha),
				phase.Name,
				humanize.Comma(int64(phase.Ops)),
				phase.Elapsed.Round(time.Microsecond).String(),
				humanize.Comma(phase.nsPerOp()),
				humanize.Comma(phase.opsPerSecond()),
			})
		}
	}

	fmt.Fprintln(w, tbl.Render())

	for _, res := range results {
		fmt.Fprintf(w, "alpha %.2f: final keys %s, rebuilds %s, arena footprint %s\n",
			res.Alpha,
			humanize.Comma(int64(res.Summary.FinalKeys)),
			humanize.Comma(safeconv.MustUint64ToInt64(res.Summary.Rebuilds)),
			humanize.Bytes(res.Summary.Footprint),
		)
	}
}
