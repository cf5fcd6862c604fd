package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/mesh-fracture/fracture"
	"go.uber.org/zap"
)

func main() {
	var outputPath string
	var verbose bool
	flag.StringVar(&outputPath, "output", "report.html", "path to output HTML report")
	flag.BoolVar(&verbose, "verbose", false, "print debug information")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: fracture_report [flags] <fragment_dir>")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		flag.Usage()
		os.Exit(1)
	}

	logger := fracture.NewLogger(verbose)
	defer logger.Sync()

	paths, err := filepath.Glob(filepath.Join(args[0], "*.bin"))
	essentials.Must(err)
	if len(paths) == 0 {
		logger.Fatal("no fragments found", zap.String("dir", args[0]))
	}

	var names []string
	var volumes, cutAreas []opts.BarData
	var surfaceTris, cutTris []opts.BarData
	var totalVolume float64
	for _, path := range paths {
		m, err := fracture.Load(path, fracture.ReadMesh)
		essentials.Must(err)
		volume := m.Volume()
		totalVolume += volume
		names = append(names, filepath.Base(path))
		volumes = append(volumes, opts.BarData{Value: volume})
		cutAreas = append(cutAreas, opts.BarData{Value: m.Area(fracture.CutSubmesh)})
		surfaceTris = append(surfaceTris, opts.BarData{
			Value: len(m.Submeshes[fracture.SurfaceSubmesh]) / 3,
		})
		cutTris = append(cutTris, opts.BarData{Value: len(m.Submeshes[fracture.CutSubmesh]) / 3})
		logger.Debug("loaded fragment", zap.String("path", path), zap.Float64("volume", volume))
	}
	logger.Info("loaded fragments",
		zap.Int("count", len(paths)),
		zap.Float64("total_volume", totalVolume))

	volumeChart := newBar(fmt.Sprintf("Fragment volume (total %.4f)", totalVolume), names)
	volumeChart.AddSeries("volume", volumes)

	areaChart := newBar("Cut face area", names)
	areaChart.AddSeries("area", cutAreas)

	triangleChart := newBar("Triangles per submesh", names)
	triangleChart.AddSeries("surface", surfaceTris,
		charts.WithBarChartOpts(opts.BarChart{Stack: "triangles"}))
	triangleChart.AddSeries("cut", cutTris,
		charts.WithBarChartOpts(opts.BarChart{Stack: "triangles"}))

	page := components.NewPage()
	page.AddCharts(volumeChart, areaChart, triangleChart)

	f, err := os.Create(outputPath)
	essentials.Must(err)
	defer f.Close()
	essentials.Must(page.Render(f))
	logger.Info("wrote report", zap.String("path", outputPath))
}

func newBar(title string, names []string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "1020px",
			Height: "400px",
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithLegendOpts(opts.Legend{Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Rotate: 45},
		}),
	)
	bar.SetXAxis(names)
	return bar
}
