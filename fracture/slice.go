package fracture

import (
	"github.com/unixpickle/model3d/model2d"
	"github.com/unixpickle/model3d/model3d"
	"go.uber.org/zap"
)

// UVOptions controls the texture coordinates generated for cut faces.
type UVOptions struct {
	// Scale multiplies the planar coordinates of the cut face.
	// If zero, (1, 1) is used.
	Scale model2d.Coord

	// Offset is added after scaling.
	Offset model2d.Coord
}

func (u UVOptions) scale() model2d.Coord {
	if u.Scale == (model2d.Coord{}) {
		return model2d.XY(1, 1)
	}
	return u.Scale
}

// Slice splits a mesh across the plane with the given normal through origin,
// filling the cut on both sides.
//
// The top result contains the geometry on the side the normal points
// towards, and the bottom result the rest. Both halves receive the same cut
// face in their CutSubmesh, facing outwards from each half.
func Slice(
	m *MeshFragmentBuffer,
	normal, origin model3d.Coord3D,
	uv UVOptions,
) (top, bottom *MeshFragmentBuffer) {
	return slice(m, normal, origin, uv, zap.L())
}

func slice(
	m *MeshFragmentBuffer,
	normal, origin model3d.Coord3D,
	uv UVOptions,
	logger *zap.Logger,
) (top, bottom *MeshFragmentBuffer) {
	numVertices := m.NumVertices()
	numTriangles := m.NumTriangles(SurfaceSubmesh) + m.NumTriangles(CutSubmesh)
	top = NewMeshFragmentBufferSize(numVertices, numTriangles)
	bottom = NewMeshFragmentBufferSize(numVertices, numTriangles)
	top.indexMap = make([]int, numVertices)
	bottom.indexMap = make([]int, numVertices)

	// Cut-face vertices from earlier slices become regular vertices of the
	// halves; only the new cut face lives in CutVertices.
	above := make([]bool, numVertices)
	for i := 0; i < numVertices; i++ {
		v := m.Vertex(i)
		if IsAbovePlane(v.Position, normal, origin) {
			above[i] = true
			top.addMappedVertex(v, i)
		} else {
			bottom.addMappedVertex(v, i)
		}
	}

	s := &splitter{
		source: m,
		top:    top,
		bottom: bottom,
		above:  above,
		normal: normal,
		origin: origin,
	}
	for submesh, indices := range m.Triangles {
		for i := 0; i+2 < len(indices); i += 3 {
			v1, v2, v3 := indices[i], indices[i+1], indices[i+2]
			a1, a2, a3 := above[v1], above[v2], above[v3]
			if a1 == a2 && a2 == a3 {
				if a1 {
					top.addMappedTriangle(v1, v2, v3, submesh)
				} else {
					bottom.addMappedTriangle(v1, v2, v3, submesh)
				}
			} else {
				s.SplitTriangle([3]int{v1, v2, v3}, submesh)
			}
		}
	}

	for _, b := range []*MeshFragmentBuffer{top, bottom} {
		b.indexMap = nil
		b.WeldCutFaceVertices()
	}
	fillCutFaces(top, bottom, normal, uv, logger)
	return
}

// splitter divides triangles which straddle the cutting plane.
type splitter struct {
	source *MeshFragmentBuffer
	top    *MeshFragmentBuffer
	bottom *MeshFragmentBuffer
	above  []bool
	normal model3d.Coord3D
	origin model3d.Coord3D
}

// SplitTriangle cuts a straddling triangle into one piece on the side of its
// lone vertex and two pieces on the other side, preserving its winding.
//
// The two new cut-face vertices and the boundary edge between them are added
// to both halves.
func (s *splitter) SplitTriangle(tri [3]int, submesh int) {
	// Rotate so that the vertex alone on its side comes first.
	var lone int
	for i := 0; i < 3; i++ {
		if s.above[tri[(i+1)%3]] == s.above[tri[(i+2)%3]] {
			lone = i
			break
		}
	}
	a, b, c := tri[lone], tri[(lone+1)%3], tri[(lone+2)%3]

	loneSide, otherSide := s.top, s.bottom
	if !s.above[a] {
		loneSide, otherSide = otherSide, loneSide
	}

	xab, okAB := s.intersect(a, b)
	xca, okCA := s.intersect(c, a)
	if !okAB || !okCA {
		// In the case of rounding error putting us outside the triangle,
		// we keep the whole triangle on the majority side.
		idx := len(otherSide.Vertices)
		otherSide.Vertices = append(otherSide.Vertices, s.source.Vertex(a))
		otherSide.addTriangle(idx, otherSide.indexMap[b], otherSide.indexMap[c], submesh)
		return
	}

	// Surface vertices at the intersections, for the pieces on both sides.
	lab := len(loneSide.Vertices)
	loneSide.Vertices = append(loneSide.Vertices, xab, xca)
	loneSide.addTriangle(loneSide.indexMap[a], lab, lab+1, submesh)

	oab := len(otherSide.Vertices)
	otherSide.Vertices = append(otherSide.Vertices, xab, xca)
	otherSide.addTriangle(oab, otherSide.indexMap[b], otherSide.indexMap[c], submesh)
	otherSide.addTriangle(oab, otherSide.indexMap[c], oab+1, submesh)

	// The lone piece runs from xab to xca, so the cap on the lone side must
	// run from xca to xab, and the cap on the other side the opposite way.
	for _, side := range []*MeshFragmentBuffer{loneSide, otherSide} {
		idx := len(side.CutVertices)
		side.CutVertices = append(
			side.CutVertices,
			Vertex{Position: xab.Position},
			Vertex{Position: xca.Position},
		)
		if side == loneSide {
			side.Constraints = append(side.Constraints, NewEdgeConstraint(idx+1, idx))
		} else {
			side.Constraints = append(side.Constraints, NewEdgeConstraint(idx, idx+1))
		}
	}
}

// intersect finds where the edge between two source vertices on opposite
// sides crosses the plane.
//
// The intersection is always computed from the upper vertex to the lower one,
// so that triangles sharing an edge produce identical cut points.
func (s *splitter) intersect(i, j int) (Vertex, bool) {
	if !s.above[i] {
		i, j = j, i
	}
	upper, lower := s.source.Vertex(i), s.source.Vertex(j)
	_, t, ok := LinePlaneIntersection(upper.Position, lower.Position, s.normal, s.origin)
	if !ok {
		return Vertex{}, false
	}
	return lerpVertex(upper, lower, t), true
}

// fillCutFaces triangulates the cut face of the top half and copies it, with
// flipped winding and normals, to the bottom half.
func fillCutFaces(top, bottom *MeshFragmentBuffer, normal model3d.Coord3D, uv UVOptions,
	logger *zap.Logger) {
	if len(top.CutVertices) < 3 {
		logger.Debug("skipping degenerate cut face", zap.Int("vertices", len(top.CutVertices)))
		return
	}

	positions := make([]model3d.Coord3D, len(top.CutVertices))
	for i, v := range top.CutVertices {
		positions[i] = v.Position
	}

	// The cap of the top half faces down, against the plane normal.
	triangulation := TriangulateConstrained(positions, top.Constraints, normal.Scale(-1))
	if n := len(triangulation.Unenforced); n > 0 {
		edges := make([][2]int, 0, n)
		for _, c := range triangulation.Unenforced {
			edges = append(edges, [2]int{c.V1, c.V2})
		}
		logger.Warn(
			"cut face constraints could not be enforced",
			zap.Int("unenforced", n),
			zap.Int("constraints", len(top.Constraints)),
			zap.Any("edges", edges),
		)
	}

	unitNormal := normal.Normalize()
	uvScale := uv.scale()
	for i := range top.CutVertices {
		var texCoord model2d.Coord
		if i < len(triangulation.Coords) {
			c := triangulation.Coords[i].Scale(triangulation.Scale)
			texCoord = c.Mul(uvScale).Add(uv.Offset)
		}
		top.CutVertices[i].Normal = unitNormal.Scale(-1)
		top.CutVertices[i].UV = texCoord
		bottom.CutVertices[i].Normal = unitNormal
		bottom.CutVertices[i].UV = texCoord
	}

	topOffset := len(top.Vertices)
	bottomOffset := len(bottom.Vertices)
	tris := triangulation.Triangles
	for i := 0; i+2 < len(tris); i += 3 {
		top.addTriangle(topOffset+tris[i], topOffset+tris[i+1], topOffset+tris[i+2], CutSubmesh)
		bottom.addTriangle(
			bottomOffset+tris[i],
			bottomOffset+tris[i+2],
			bottomOffset+tris[i+1],
			CutSubmesh,
		)
	}
}
