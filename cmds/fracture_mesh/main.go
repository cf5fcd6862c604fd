package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/mesh-fracture/fracture"
	"github.com/unixpickle/model3d/model2d"
	"github.com/unixpickle/model3d/model3d"
	"go.uber.org/zap"
)

func main() {
	var fragments int
	var axesStr string
	var islands bool
	var seed int64
	var uvScale float64
	var verbose bool
	flag.IntVar(&fragments, "fragments", 8, "number of fragments to create")
	flag.StringVar(&axesStr, "axes", "xyz", "axes which cutting plane normals may use")
	flag.BoolVar(&islands, "islands", false, "split fragments into connected components")
	flag.Int64Var(&seed, "seed", 0, "random seed (0 for a time-based seed)")
	flag.Float64Var(&uvScale, "uv-scale", 1.0, "scale of texture coordinates on cut faces")
	flag.BoolVar(&verbose, "verbose", false, "print debug information")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: fracture_mesh [flags] <input.stl> <output_dir>")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		flag.Usage()
		os.Exit(1)
	}
	inputPath, outputDir := args[0], args[1]

	axes, err := fracture.ParseAxes(axesStr)
	essentials.Must(err)

	logger := fracture.NewLogger(verbose)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger.Info("loading mesh", zap.String("path", inputPath))
	tris, err := fracture.Load(inputPath, model3d.ReadSTL)
	essentials.Must(err)
	uv := fracture.UVOptions{Scale: model2d.XY(uvScale, uvScale)}
	mesh := fracture.NewMeshModel3D(model3d.NewMeshTriangles(tris), uv)

	if seed == 0 {
		seed = rand.Int63()
	}
	fragmenter := &fracture.Fragmenter{
		Count:   fragments,
		Axes:    axes,
		UV:      uv,
		Islands: islands,
		Rand:    rand.New(rand.NewSource(seed)),
		Logger:  logger,
	}
	logger.Debug("created fragmenter", zap.Int64("seed", seed))
	results, err := fragmenter.FractureMeshes(ctx, fracture.NewMeshFragmentBuffer(mesh))
	if err != nil {
		logger.Fatal("fracture failed", zap.Error(err))
	}

	logger.Info("writing fragments", zap.String("dir", outputDir), zap.Int("count", len(results)))
	essentials.Must(os.MkdirAll(outputDir, 0755))
	for i, m := range results {
		base := filepath.Join(outputDir, fmt.Sprintf("fragment_%03d", i))
		essentials.Must(fracture.Save(base+".bin", m, fracture.WriteMesh))
		essentials.Must(m.Model3D().SaveGroupedSTL(base + ".stl"))
		logger.Debug("wrote fragment",
			zap.Int("index", i),
			zap.Int("triangles", m.NumTriangles()),
			zap.Float64("volume", m.Volume()))
	}
}
