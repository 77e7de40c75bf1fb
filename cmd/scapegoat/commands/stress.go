// Package commands implements CLI command handlers for the scapegoat
// workbench.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/scapegoat/internal/observability"
	"github.com/Sumatoshi-tech/scapegoat/pkg/config"
	"github.com/Sumatoshi-tech/scapegoat/pkg/safeconv"
	"github.com/Sumatoshi-tech/scapegoat/pkg/scapegoat"
)

// Stress operation mix and final-sweep probe count.
const (
	insertShare  = 50
	removeShare  = 30
	absentProbes = 1000
)

const metricsShutdownTimeout = 2 * time.Second

// ErrStressFailed is returned when the run observed an oracle divergence
// or a broken structural invariant.
var ErrStressFailed = errors.New("stress run detected an oracle divergence or a broken invariant")

// StressCommand holds configuration for the stress command.
type StressCommand struct {
	profilePath string
	emitProfile string
	noColor     bool

	alpha       float64
	ops         int
	seed        int64
	keyspace    uint32
	verifyEvery int
	shards      int
	metricsAddr string
}

// NewStressCommand creates the stress command.
func NewStressCommand() *cobra.Command {
	sc := &StressCommand{}

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run a randomized oracle stress over a sharded scapegoat set",
		Long: `Stress drives a sharded scapegoat set with a reproducible random mix of
inserts, removes and searches, checking every outcome against an exact
membership oracle and periodically verifying the structural invariants
of every shard. The run fails on the first divergence class observed.`,
		Args: cobra.NoArgs,
		RunE: sc.run,
	}

	cmd.Flags().StringVar(&sc.profilePath, "profile", "", "Profile file path (default: ./profile.yaml if present)")
	cmd.Flags().StringVar(&sc.emitProfile, "emit-profile", "", "Write the resolved profile as YAML to this path and exit")
	cmd.Flags().BoolVar(&sc.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().Float64Var(&sc.alpha, "alpha", 0.65, "Balance parameter in (0.5, 1)")
	cmd.Flags().IntVar(&sc.ops, "ops", 100000, "Number of random operations")
	cmd.Flags().Int64Var(&sc.seed, "seed", 1, "Random seed")
	cmd.Flags().Uint32Var(&sc.keyspace, "keyspace", 1<<20, "Keys are drawn from [0, keyspace)")
	cmd.Flags().IntVar(&sc.verifyEvery, "verify-every", 1024, "Invariant verification interval in ops (0 = final only)")
	cmd.Flags().IntVar(&sc.shards, "shards", 0, "Shard count (0 = single tree)")
	cmd.Flags().StringVar(&sc.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the run")

	return cmd
}

func (sc *StressCommand) run(cmd *cobra.Command, _ []string) error {
	if sc.noColor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	}

	profile, err := sc.resolveProfile(cmd)
	if err != nil {
		return err
	}

	if sc.emitProfile != "" {
		return writeProfileFile(profile, sc.emitProfile, cmd.OutOrStdout())
	}

	logger := newRunLogger(cmd, profile)
	metrics := observability.NewStressMetrics()

	stopMetrics, err := serveMetrics(profile.Stress.MetricsAddr, metrics, logger)
	if err != nil {
		return err
	}
	defer stopMetrics()

	logger.Info("stress run starting",
		"alpha", profile.Stress.Alpha,
		"ops", profile.Stress.Ops,
		"seed", profile.Stress.Seed,
		"keyspace", profile.Stress.Keyspace,
		"shards", profile.Stress.Shards,
	)

	result, err := runStress(profile.Stress, metrics, logger)
	if err != nil {
		return err
	}

	logger.Info("stress run finished", "elapsed", result.Elapsed.Round(time.Millisecond), "passed", result.Passed)

	renderStressResult(cmd.OutOrStdout(), result)

	if !result.Passed {
		return ErrStressFailed
	}

	return nil
}

// resolveProfile loads the profile and overlays explicitly set flags.
func (sc *StressCommand) resolveProfile(cmd *cobra.Command) (*config.Profile, error) {
	profile, err := config.Load(sc.profilePath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if flags.Changed("alpha") {
		profile.Stress.Alpha = sc.alpha
	}

	if flags.Changed("ops") {
		profile.Stress.Ops = sc.ops
	}

	if flags.Changed("seed") {
		profile.Stress.Seed = sc.seed
	}

	if flags.Changed("keyspace") {
		profile.Stress.Keyspace = sc.keyspace
	}

	if flags.Changed("verify-every") {
		profile.Stress.VerifyEvery = sc.verifyEvery
	}

	if flags.Changed("shards") {
		profile.Stress.Shards = sc.shards
	}

	if flags.Changed("metrics-addr") {
		profile.Stress.MetricsAddr = sc.metricsAddr
	}

	err = profile.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}

	return profile, nil
}

func writeProfileFile(profile *config.Profile, path string, out io.Writer) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create profile %s: %w", path, err)
	}

	err = profile.WriteYAML(file)

	closeErr := file.Close()
	if err != nil {
		return err
	}

	if closeErr != nil {
		return fmt.Errorf("close profile %s: %w", path, closeErr)
	}

	fmt.Fprintf(out, "profile written to %s\n", path)

	return nil
}

// newRunLogger builds the run logger from the profile, overridden by the
// root --log-level and --log-format flags when set.
func newRunLogger(cmd *cobra.Command, profile *config.Profile) *slog.Logger {
	level := profile.Logging.Level
	format := profile.Logging.Format

	flags := cmd.Flags()

	if v, err := flags.GetString("log-level"); err == nil && flags.Changed("log-level") {
		level = v
	}

	if v, err := flags.GetString("log-format"); err == nil && flags.Changed("log-format") {
		format = v
	}

	return observability.NewLogger(level, format)
}

// serveMetrics starts a scrape endpoint when addr is non-empty and
// returns a stop function. Listening happens synchronously so a bad
// address fails the run up front.
func serveMetrics(addr string, metrics *observability.StressMetrics, logger *slog.Logger) (func(), error) {
	if addr == "" {
		return func() {}, nil
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		serveErr := server.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", serveErr)
		}
	}()

	logger.Info("serving metrics", "addr", listener.Addr().String())

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()

		_ = server.Shutdown(shutdownCtx)
	}, nil
}

// stressResult aggregates the outcome of one stress run.
type stressResult struct {
	Ops           int
	Inserts       int
	Removes       int
	Searches      int
	Verifications int

	Divergences    int
	VerifyFailures int

	FinalKeys    int
	Rebuilds     uint64
	RootRebuilds uint64
	Footprint    uint64
	Elapsed      time.Duration

	Passed bool
}

func (r *stressResult) opsPerSecond() int64 {
	if r.Elapsed <= 0 {
		return int64(r.Ops)
	}

	return int64(float64(r.Ops) / r.Elapsed.Seconds())
}

func runStress(cfg config.StressConfig, metrics *observability.StressMetrics, logger *slog.Logger) (*stressResult, error) {
	set, err := scapegoat.NewShardedSet(cfg.Alpha, cfg.Shards)
	if err != nil {
		return nil, err
	}

	model := make(map[uint32]bool)
	rng := rand.New(rand.NewSource(cfg.Seed))
	res := &stressResult{Ops: cfg.Ops}
	started := time.Now()

	for op := range cfg.Ops {
		key := uint32(rng.Int63n(int64(cfg.Keyspace)))

		var got, want bool

		switch roll := rng.Int31n(100); {
		case roll < insertShare:
			want = !model[key]
			got = set.Insert(key)
			model[key] = true
			res.Inserts++
			metrics.Ops.WithLabelValues("insert").Inc()
		case roll < insertShare+removeShare:
			want = model[key]
			got = set.Remove(key)
			delete(model, key)
			res.Removes++
			metrics.Ops.WithLabelValues("remove").Inc()
		default:
			want = model[key]
			got = set.Search(key)
			res.Searches++
			metrics.Ops.WithLabelValues("search").Inc()
		}

		if got != want {
			res.Divergences++
			metrics.Failures.Inc()
			logger.Error("oracle divergence", "op", op, "key", key, "got", got, "want", want)
		}

		if cfg.VerifyEvery > 0 && (op+1)%cfg.VerifyEvery == 0 {
			res.Verifications++

			if !set.VerifyAll() {
				res.VerifyFailures++
				metrics.Failures.Inc()
				logger.Error("invariants broken", "op", op)
			}

			metrics.TreeSize.Set(float64(set.Len()))
			metrics.Rebuilds.Set(float64(sumShardStats(set).Rebuilds))
		}
	}

	finalSweep(set, model, cfg.Keyspace, rng, res, metrics, logger)

	stats := sumShardStats(set)
	res.FinalKeys = set.Len()
	res.Rebuilds = stats.Rebuilds
	res.RootRebuilds = stats.RootRebuilds
	res.Footprint = sumShardFootprint(set)
	res.Elapsed = time.Since(started)
	res.Passed = res.Divergences == 0 && res.VerifyFailures == 0

	return res, nil
}

// finalSweep closes the run with a full verification, a size cross-check
// and a membership sweep of every live key plus a sample of absent ones.
func finalSweep(
	set *scapegoat.ShardedSet,
	model map[uint32]bool,
	keyspace uint32,
	rng *rand.Rand,
	res *stressResult,
	metrics *observability.StressMetrics,
	logger *slog.Logger,
) {
	res.Verifications++

	if !set.VerifyAll() {
		res.VerifyFailures++
		metrics.Failures.Inc()
		logger.Error("invariants broken at final sweep")
	}

	if set.Len() != len(model) {
		res.Divergences++
		metrics.Failures.Inc()
		logger.Error("size mismatch", "set", set.Len(), "model", len(model))
	}

	for key := range model {
		if !set.Search(key) {
			res.Divergences++
			metrics.Failures.Inc()
			logger.Error("live key lost", "key", key)
		}
	}

	for range absentProbes {
		key := uint32(rng.Int63n(int64(keyspace)))
		if !model[key] && set.Search(key) {
			res.Divergences++
			metrics.Failures.Inc()
			logger.Error("phantom key found", "key", key)
		}
	}

	metrics.TreeSize.Set(float64(set.Len()))
	metrics.Rebuilds.Set(float64(sumShardStats(set).Rebuilds))
}

func sumShardStats(set *scapegoat.ShardedSet) scapegoat.Stats {
	var total scapegoat.Stats

	for _, shard := range set.Shards() {
		stats := shard.Stats()
		total.Rebuilds += stats.Rebuilds
		total.RootRebuilds += stats.RootRebuilds
		total.Hibernations += stats.Hibernations
	}

	return total
}

func sumShardFootprint(set *scapegoat.ShardedSet) uint64 {
	var total uint64

	for _, shard := range set.Shards() {
		total += shard.Arena().Footprint()
	}

	return total
}

func renderStressResult(w io.Writer, res *stressResult) {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Metric", "Value"})
	tbl.AppendRow(table.Row{"Operations", humanize.Comma(int64(res.Ops))})
	tbl.AppendRow(table.Row{"Inserts", humanize.Comma(int64(res.Inserts))})
	tbl.AppendRow(table.Row{"Removes", humanize.Comma(int64(res.Removes))})
	tbl.AppendRow(table.Row{"Searches", humanize.Comma(int64(res.Searches))})
	tbl.AppendRow(table.Row{"Verifications", humanize.Comma(int64(res.Verifications))})
	tbl.AppendRow(table.Row{"Final keys", humanize.Comma(int64(res.FinalKeys))})
	tbl.AppendRow(table.Row{"Rebuilds", humanize.Comma(safeconv.MustUint64ToInt64(res.Rebuilds))})
	tbl.AppendRow(table.Row{"Root rebuilds", humanize.Comma(safeconv.MustUint64ToInt64(res.RootRebuilds))})
	tbl.AppendRow(table.Row{"Arena footprint", humanize.Bytes(res.Footprint)})
	tbl.AppendRow(table.Row{"Elapsed", res.Elapsed.Round(time.Millisecond).String()})
	tbl.AppendRow(table.Row{"Throughput", humanize.Comma(res.opsPerSecond()) + " ops/s"})

	fmt.Fprintln(w, tbl.Render())

	if res.Passed {
		color.New(color.FgGreen).Fprintf(w, "STRESS PASS: %s operations, no divergences\n", humanize.Comma(int64(res.Ops)))

		return
	}

	color.New(color.FgRed).Fprintf(w, "STRESS FAIL: %d divergences, %d failed verifications\n",
		res.Divergences, res.VerifyFailures)
}
