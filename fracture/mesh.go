package fracture

import (
	"math"

	"github.com/unixpickle/model3d/model2d"
	"github.com/unixpickle/model3d/model3d"
)

// A Mesh is a finished triangle mesh with two submeshes: SurfaceSubmesh for
// the original surface and CutSubmesh for faces created by slicing.
//
// Each submesh is a flat list of vertex indices, three per triangle, wound
// counter-clockwise around the outward normal.
type Mesh struct {
	Vertices  []Vertex
	Submeshes [numSubmeshes][]int
}

// NewMeshRect creates an axis-aligned box with one vertex per corner.
//
// Corner normals point away from the center of the box, and texture
// coordinates are the corner's x and y fractions of the box.
func NewMeshRect(min, max model3d.Coord3D) *Mesh {
	center := min.Mid(max)
	size := max.Sub(min)
	res := &Mesh{}
	for i := 0; i < 8; i++ {
		p := min
		if i&1 != 0 {
			p.X = max.X
		}
		if i&2 != 0 {
			p.Y = max.Y
		}
		if i&4 != 0 {
			p.Z = max.Z
		}
		res.Vertices = append(res.Vertices, Vertex{
			Position: p,
			Normal:   p.Sub(center).Normalize(),
			UV:       model2d.XY((p.X-min.X)/size.X, (p.Y-min.Y)/size.Y),
		})
	}
	res.Submeshes[SurfaceSubmesh] = []int{
		// -z and +z
		0, 2, 3, 0, 3, 1,
		4, 5, 7, 4, 7, 6,
		// -y and +y
		0, 1, 5, 0, 5, 4,
		2, 6, 7, 2, 7, 3,
		// -x and +x
		0, 4, 6, 0, 6, 2,
		1, 3, 7, 1, 7, 5,
	}
	return res
}

// NewMeshModel3D converts a model3d mesh into a Mesh with flat normals.
//
// Texture coordinates are projected onto the plane of each triangle's
// dominant normal axis, then scaled and offset according to uv.
func NewMeshModel3D(m *model3d.Mesh, uv UVOptions) *Mesh {
	res := &Mesh{}
	uvScale := uv.scale()
	for _, t := range m.TriangleSlice() {
		normal := t.Normal()
		abs := normal.Abs()
		for _, c := range t {
			var planar model2d.Coord
			if abs.X >= abs.Y && abs.X >= abs.Z {
				planar = model2d.XY(c.Y, c.Z)
			} else if abs.Y >= abs.Z {
				planar = model2d.XY(c.X, c.Z)
			} else {
				planar = model2d.XY(c.X, c.Y)
			}
			res.Submeshes[SurfaceSubmesh] = append(res.Submeshes[SurfaceSubmesh], len(res.Vertices))
			res.Vertices = append(res.Vertices, Vertex{
				Position: c,
				Normal:   normal,
				UV:       planar.Mul(uvScale).Add(uv.Offset),
			})
		}
	}
	return res
}

// NumTriangles gets the total number of triangles in all submeshes.
func (m *Mesh) NumTriangles() int {
	var res int
	for _, indices := range m.Submeshes {
		res += len(indices) / 3
	}
	return res
}

// IterateTriangles calls f with the vertex positions of every triangle.
func (m *Mesh) IterateTriangles(f func(submesh int, t *model3d.Triangle)) {
	for submesh, indices := range m.Submeshes {
		for i := 0; i+2 < len(indices); i += 3 {
			f(submesh, &model3d.Triangle{
				m.Vertices[indices[i]].Position,
				m.Vertices[indices[i+1]].Position,
				m.Vertices[indices[i+2]].Position,
			})
		}
	}
}

// Model3D converts the mesh to a model3d mesh, dropping triangles with zero
// area.
func (m *Mesh) Model3D() *model3d.Mesh {
	res := model3d.NewMesh()
	m.IterateTriangles(func(_ int, t *model3d.Triangle) {
		if t.Area() > 0 {
			res.Add(t)
		}
	})
	return res
}

// Volume computes the signed volume enclosed by the mesh, which is positive
// for closed meshes with outward-facing triangles.
func (m *Mesh) Volume() float64 {
	var res float64
	m.IterateTriangles(func(_ int, t *model3d.Triangle) {
		res += t[0].Dot(t[1].Cross(t[2]))
	})
	return res / 6
}

// Area computes the total area of a submesh.
func (m *Mesh) Area(submesh int) float64 {
	var res float64
	m.IterateTriangles(func(s int, t *model3d.Triangle) {
		if s == submesh {
			res += t.Area()
		}
	})
	return res
}

// Bounds computes the axis-aligned bounding box of the vertices.
func (m *Mesh) Bounds() (min, max model3d.Coord3D) {
	if len(m.Vertices) == 0 {
		return
	}
	min = model3d.XYZ(math.Inf(1), math.Inf(1), math.Inf(1))
	max = min.Scale(-1)
	for _, v := range m.Vertices {
		min = min.Min(v.Position)
		max = max.Max(v.Position)
	}
	return
}

// Translate creates a copy of the mesh moved by offset.
func (m *Mesh) Translate(offset model3d.Coord3D) *Mesh {
	res := &Mesh{Vertices: make([]Vertex, len(m.Vertices))}
	for i, v := range m.Vertices {
		v.Position = v.Position.Add(offset)
		res.Vertices[i] = v
	}
	for i, indices := range m.Submeshes {
		res.Submeshes[i] = append([]int{}, indices...)
	}
	return res
}
