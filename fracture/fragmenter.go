package fracture

import (
	"context"
	"math/rand"
	"strings"

	"github.com/pkg/errors"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"
	"go.uber.org/zap"
)

// Axes is a set of coordinate axes along which cutting planes may be
// oriented.
type Axes uint8

const (
	AxisX Axes = 1 << iota
	AxisY
	AxisZ

	AllAxes = AxisX | AxisY | AxisZ
)

// ParseAxes parses a string of axis names, such as "xz".
func ParseAxes(s string) (Axes, error) {
	var res Axes
	for _, ch := range strings.ToLower(s) {
		switch ch {
		case 'x':
			res |= AxisX
		case 'y':
			res |= AxisY
		case 'z':
			res |= AxisZ
		default:
			return 0, errors.Errorf("parse axes: unknown axis %q", ch)
		}
	}
	return res, nil
}

func (a Axes) String() string {
	var res strings.Builder
	for i, name := range "xyz" {
		if a&(1<<i) != 0 {
			res.WriteRune(name)
		}
	}
	return res.String()
}

// A Fragmenter repeatedly slices a mesh with random planes to break it into
// fragments.
type Fragmenter struct {
	// Count is the number of fragments to produce.
	Count int

	// Axes restricts the components of the random plane normals. Excluding
	// every axis produces zero normals, which do not cut anything.
	Axes Axes

	// UV configures texture coordinates of the generated cut faces.
	UV UVOptions

	// Islands, if true, makes FractureMeshes split each fragment into its
	// connected components.
	Islands bool

	// Rand is the source of plane orientations. If nil, the global source
	// from math/rand is used.
	Rand *rand.Rand

	// Logger receives progress and warnings. If nil, nothing is logged.
	Logger *zap.Logger
}

// Fracture breaks a mesh into f.Count fragments.
//
// Fragments are kept in a FIFO queue; each step removes the oldest fragment
// and slices it through the center of its bounding box with a random plane.
// The context is only checked between rounds of slicing, and an error is
// returned only if it is done.
func (f *Fragmenter) Fracture(ctx context.Context, m *MeshFragmentBuffer) ([]*MeshFragmentBuffer,
	error) {
	logger := f.logger()
	logger.Info("fracturing mesh",
		zap.Int("vertices", m.NumVertices()),
		zap.Int("fragments", f.Count),
		zap.Stringer("axes", f.Axes))

	queue := []*MeshFragmentBuffer{m}
	for len(queue) < f.Count {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "fracture")
		}

		// Every fragment currently queued is popped before any of the new
		// halves, so a whole round can be sliced at once. Normals are drawn
		// in queue order to keep results reproducible.
		batch := essentials.MinInt(len(queue), f.Count-len(queue))
		normals := make([]model3d.Coord3D, batch)
		for i := range normals {
			normals[i] = f.randomNormal()
		}
		halves := make([][2]*MeshFragmentBuffer, batch)
		essentials.ConcurrentMap(0, batch, func(i int) {
			min, max := queue[i].Bounds()
			top, bottom := slice(queue[i], normals[i], min.Mid(max), f.UV, logger)
			halves[i] = [2]*MeshFragmentBuffer{top, bottom}
		})
		queue = queue[batch:]
		for _, h := range halves {
			queue = append(queue, h[0], h[1])
		}
		logger.Debug("sliced fragments", zap.Int("batch", batch), zap.Int("queued", len(queue)))
	}

	logger.Info("fractured mesh", zap.Int("fragments", len(queue)))
	return queue, nil
}

// FractureMeshes is like Fracture, but converts the fragments into meshes and
// optionally splits them into islands.
func (f *Fragmenter) FractureMeshes(ctx context.Context, m *MeshFragmentBuffer) ([]*Mesh, error) {
	buffers, err := f.Fracture(ctx, m)
	if err != nil {
		return nil, err
	}
	meshes := make([]*Mesh, len(buffers))
	for i, b := range buffers {
		meshes[i] = b.Mesh()
	}
	if !f.Islands {
		return meshes, nil
	}

	islands := make([][]*Mesh, len(meshes))
	essentials.ConcurrentMap(0, len(meshes), func(i int) {
		islands[i] = FindIslands(meshes[i])
	})
	var res []*Mesh
	for _, x := range islands {
		res = append(res, x...)
	}
	f.logger().Info("split fragments into islands",
		zap.Int("fragments", len(meshes)),
		zap.Int("islands", len(res)))
	return res, nil
}

// SliceOnce slices a mesh with a single plane, using the fragmenter's UV
// options and logger.
func (f *Fragmenter) SliceOnce(m *MeshFragmentBuffer, normal, origin model3d.Coord3D) (top,
	bottom *MeshFragmentBuffer) {
	return slice(m, normal, origin, f.UV, f.logger())
}

func (f *Fragmenter) randomNormal() model3d.Coord3D {
	var arr [3]float64
	for i := range arr {
		if f.Axes&(1<<i) != 0 {
			arr[i] = f.float64()*2 - 1
		}
	}
	return model3d.NewCoord3DArray(arr)
}

func (f *Fragmenter) float64() float64 {
	if f.Rand != nil {
		return f.Rand.Float64()
	}
	return rand.Float64()
}

func (f *Fragmenter) logger() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}

// Fracture breaks a mesh into count fragments using random planes restricted
// to the given axes.
func Fracture(m *MeshFragmentBuffer, count int, axes Axes, uv UVOptions) []*MeshFragmentBuffer {
	f := &Fragmenter{Count: count, Axes: axes, UV: uv}
	res, err := f.Fracture(context.Background(), m)
	essentials.Must(err)
	return res
}
