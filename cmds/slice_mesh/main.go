package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/mesh-fracture/fracture"
	"github.com/unixpickle/model3d/model3d"
	"go.uber.org/zap"
)

func main() {
	normal := flagCoord(model3d.Z(1))
	var origin flagCoord
	var binary bool
	var verbose bool
	flag.Var(&normal, "normal", "comma-separated normal of the cutting plane")
	flag.Var(&origin, "origin", "comma-separated point on the cutting plane")
	flag.BoolVar(&binary, "binary", false, "write binary meshes instead of STL files")
	flag.BoolVar(&verbose, "verbose", false, "print debug information")
	flag.Parse()

	args := flag.Args()
	if len(args) != 3 {
		fmt.Fprintln(os.Stderr, "Usage: slice_mesh [flags] <input.stl> <top> <bottom>")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
		os.Exit(1)
	}
	inputPath, topPath, bottomPath := args[0], args[1], args[2]

	logger := fracture.NewLogger(verbose)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	logger.Info("loading mesh", zap.String("path", inputPath))
	tris, err := fracture.Load(inputPath, model3d.ReadSTL)
	essentials.Must(err)
	mesh := fracture.NewMeshModel3D(model3d.NewMeshTriangles(tris), fracture.UVOptions{})

	logger.Info("slicing mesh",
		zap.Stringer("normal", &normal),
		zap.Stringer("origin", &origin))
	top, bottom := fracture.Slice(
		fracture.NewMeshFragmentBuffer(mesh),
		model3d.Coord3D(normal),
		model3d.Coord3D(origin),
		fracture.UVOptions{},
	)

	for _, out := range []struct {
		path   string
		buffer *fracture.MeshFragmentBuffer
	}{{topPath, top}, {bottomPath, bottom}} {
		m := out.buffer.Mesh()
		logger.Info("writing half",
			zap.String("path", out.path),
			zap.Int("surface", out.buffer.NumTriangles(fracture.SurfaceSubmesh)),
			zap.Int("cut", out.buffer.NumTriangles(fracture.CutSubmesh)))
		if binary {
			essentials.Must(fracture.Save(out.path, m, fracture.WriteMesh))
		} else {
			essentials.Must(m.Model3D().SaveGroupedSTL(out.path))
		}
	}
}

type flagCoord model3d.Coord3D

func (f *flagCoord) String() string {
	return fmt.Sprintf("%g,%g,%g", f.X, f.Y, f.Z)
}

func (f *flagCoord) Set(value string) error {
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return errors.Errorf("expected 3 components but got %d", len(parts))
	}
	var arr [3]float64
	for i, part := range parts {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return errors.Wrapf(err, "unexpected part %q", part)
		}
		arr[i] = parsed
	}
	*f = flagCoord(model3d.NewCoord3DArray(arr))
	return nil
}
