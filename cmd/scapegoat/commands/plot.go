package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/scapegoat/pkg/safeconv"
	"github.com/Sumatoshi-tech/scapegoat/pkg/scapegoat"
)

// Plot display constants.
const (
	plotChartWidth  = "1200px"
	plotChartHeight = "500px"

	plotHeightFile   = "height.html"
	plotRebuildsFile = "rebuilds.html"
)

// ErrPlotFlags is returned when the plot command is invoked with a
// non-positive key count or sample count, or an empty alpha list.
var ErrPlotFlags = errors.New("plot requires positive --keys and --points and at least one --alphas value")

// PlotCommand holds configuration for the plot command.
type PlotCommand struct {
	keys   int
	points int
	outDir string
	alphas []float64
}

// NewPlotCommand creates the plot command.
func NewPlotCommand() *cobra.Command {
	pc := &PlotCommand{}

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render balance behavior charts across alpha values",
		Long: `Plot inserts an ascending key sequence into one tree per alpha value,
sampling tree height and cumulative rebuild count at a fixed stride.
The samples are rendered as two HTML line charts, height.html and
rebuilds.html, in the output directory.`,
		Args: cobra.NoArgs,
		RunE: pc.run,
	}

	cmd.Flags().IntVar(&pc.keys, "keys", 4096, "Ascending keys to insert per alpha")
	cmd.Flags().IntVar(&pc.points, "points", 64, "Samples to record per alpha")
	cmd.Flags().StringVar(&pc.outDir, "out", "scapegoat-plots", "Output directory for the rendered charts")
	cmd.Flags().Float64SliceVar(&pc.alphas, "alphas", []float64{0.55, 0.65, 0.75, 0.9}, "Alpha values to compare")

	return cmd
}

func (pc *PlotCommand) run(cmd *cobra.Command, _ []string) error {
	if pc.keys <= 0 || pc.points <= 0 || len(pc.alphas) == 0 {
		return ErrPlotFlags
	}

	labels, series, err := collectPlotSeries(pc.alphas, pc.keys, pc.points)
	if err != nil {
		return err
	}

	err = os.MkdirAll(pc.outDir, 0o755)
	if err != nil {
		return fmt.Errorf("create output directory %s: %w", pc.outDir, err)
	}

	heightChart := newLineChart(
		"Scapegoat Tree Height",
		fmt.Sprintf("ascending inserts of %d keys, sampled every %d", pc.keys, plotStride(pc.keys, pc.points)),
		"height (edges)",
		labels,
	)
	rebuildsChart := newLineChart(
		"Cumulative Rebuilds",
		fmt.Sprintf("ascending inserts of %d keys, sampled every %d", pc.keys, plotStride(pc.keys, pc.points)),
		"rebuilds",
		labels,
	)

	for _, ser := range series {
		heightChart.AddSeries(ser.Name, ser.Heights,
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
		rebuildsChart.AddSeries(ser.Name, ser.Rebuilds,
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	}

	for _, chart := range []struct {
		line *charts.Line
		name string
	}{
		{heightChart, plotHeightFile},
		{rebuildsChart, plotRebuildsFile},
	} {
		path := filepath.Join(pc.outDir, chart.name)

		err = writeChart(chart.line, path)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "plot written to %s\n", path)
	}

	return nil
}

// plotSeries carries one alpha's sampled curves.
type plotSeries struct {
	Name     string
	Heights  []opts.LineData
	Rebuilds []opts.LineData
}

func plotStride(keys, points int) int {
	stride := keys / points
	if stride < 1 {
		stride = 1
	}

	return stride
}

// collectPlotSeries grows one tree per alpha with ascending keys and
// samples height and rebuild count every stride. The sample positions
// depend only on keys and points, so every series shares one x axis.
func collectPlotSeries(alphas []float64, keys, points int) ([]string, []plotSeries, error) {
	stride := plotStride(keys, points)

	var labels []string

	series := make([]plotSeries, 0, len(alphas))

	for _, alpha := range alphas {
		tree, err := scapegoat.New[uint32](alpha)
		if err != nil {
			return nil, nil, err
		}

		ser := plotSeries{Name: fmt.Sprintf("alpha=%.2f", alpha)}

		var positions []string

		for i := 1; i <= keys; i++ {
			tree.Insert(safeconv.MustIntToUint32(i))

			if i%stride == 0 || i == keys {
				positions = append(positions, strconv.Itoa(i))
				ser.Heights = append(ser.Heights, opts.LineData{Value: tree.Height()})
				ser.Rebuilds = append(ser.Rebuilds, opts.LineData{Value: tree.Stats().Rebuilds})
			}
		}

		if labels == nil {
			labels = positions
		}

		series = append(series, ser)
	}

	return labels, series, nil
}

func newLineChart(title, subtitle, yName string, labels []string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: plotChartWidth, Height: plotChartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle, Left: "center"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "keys"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
	)
	line.SetXAxis(labels)

	return line
}

func writeChart(chart *charts.Line, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart %s: %w", path, err)
	}

	err = chart.Render(file)

	closeErr := file.Close()
	if err != nil {
		return fmt.Errorf("render chart %s: %w", path, err)
	}

	if closeErr != nil {
		return fmt.Errorf("close chart %s: %w", path, closeErr)
	}

	return nil
}
