package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/mesh-fracture/fracture"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/model3d/render3d"
	"go.uber.org/zap"
)

func main() {
	var gridSize int
	var imageSize int
	var fps float64
	var frames int
	var explode float64
	var verbose bool
	flag.IntVar(&gridSize, "grid-size", 3, "grid size (used for rows and columns)")
	flag.IntVar(&imageSize, "image-size", 300, "size of each image in the grid")
	flag.Float64Var(&fps, "fps", 10.0, "FPS for GIF outputs")
	flag.IntVar(&frames, "frames", 20, "total number of frames for GIF outputs")
	flag.Float64Var(&explode, "explode", 0.3, "fraction of each fragment's offset to push it outward")
	flag.BoolVar(&verbose, "verbose", false, "print debug information")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: render_fragments [flags] <fragment_dir> <output.png>")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		flag.Usage()
		os.Exit(1)
	}
	inputDir, outputPath := args[0], args[1]

	logger := fracture.NewLogger(verbose)
	defer logger.Sync()

	logger.Info("loading fragments", zap.String("dir", inputDir))
	paths, err := filepath.Glob(filepath.Join(inputDir, "*.bin"))
	essentials.Must(err)
	if len(paths) == 0 {
		essentials.Die("no fragments found in", inputDir)
	}
	meshes := make([]*fracture.Mesh, len(paths))
	for i, path := range paths {
		meshes[i], err = fracture.Load(path, fracture.ReadMesh)
		if err != nil {
			logger.Fatal("failed to load fragment", zap.Error(err))
		}
		logger.Debug("loaded fragment", zap.String("path", path),
			zap.Int("triangles", meshes[i].NumTriangles()))
	}

	logger.Info("exploding fragments", zap.Float64("explode", explode))
	combined := model3d.NewMesh()
	center := combinedCenter(meshes)
	for _, m := range meshes {
		min, max := m.Bounds()
		offset := min.Mid(max).Sub(center).Scale(explode)
		combined.AddMesh(m.Translate(offset).Model3D())
	}
	logger.Info("combined fragments",
		zap.Int("fragments", len(meshes)),
		zap.Int("triangles", len(combined.TriangleSlice())))

	logger.Info("rendering", zap.String("output", outputPath))
	object := render3d.Objectify(model3d.MeshToCollider(combined), nil)
	ext := filepath.Ext(outputPath)
	if strings.ToLower(ext) == ".gif" {
		essentials.Must(
			render3d.SaveRotatingGIF(
				outputPath,
				object,
				model3d.Z(1),
				model3d.YZ(-1, 0.1).Normalize(),
				imageSize,
				frames,
				fps,
				nil,
			),
		)
	} else {
		essentials.Must(
			render3d.SaveRandomGrid(outputPath, object, gridSize, gridSize, imageSize, nil),
		)
	}
}

func combinedCenter(meshes []*fracture.Mesh) model3d.Coord3D {
	min, max := meshes[0].Bounds()
	for _, m := range meshes[1:] {
		min1, max1 := m.Bounds()
		min = min.Min(min1)
		max = max.Max(max1)
	}
	return min.Mid(max)
}
