package fracture

import (
	"github.com/unixpickle/model3d/model2d"
	"github.com/unixpickle/model3d/model3d"
)

const (
	// SurfaceSubmesh holds triangles inherited from the source mesh.
	SurfaceSubmesh = 0

	// CutSubmesh holds triangles generated to fill cut faces.
	CutSubmesh = 1

	numSubmeshes = 2
)

// A Vertex is a single mesh vertex.
//
// Two vertices are considered the same point when their positions are equal,
// regardless of their normals and texture coordinates.
type Vertex struct {
	Position model3d.Coord3D
	Normal   model3d.Coord3D
	UV       model2d.Coord
}

func lerpVertex(a, b Vertex, s float64) Vertex {
	normal := a.Normal.Scale(1 - s).Add(b.Normal.Scale(s))
	if norm := normal.Norm(); norm != 0 {
		normal = normal.Scale(1 / norm)
	}
	return Vertex{
		Position: a.Position.Scale(1 - s).Add(b.Position.Scale(s)),
		Normal:   normal,
		UV:       a.UV.Scale(1 - s).Add(b.UV.Scale(s)),
	}
}

// An EdgeConstraint is an edge between two vertices which must be present in a
// constrained triangulation.
//
// For cut faces the direction is significant: the triangle that keeps the
// edge, going from V1 to V2, lies inside the filled region.
//
// T1, T2 and T1Edge optionally cache where the edge was last seen in a
// triangulation: T1 contains the directed edge V1->V2 as its edge T1Edge, and
// T2 is the triangle on the other side. A negative value means unknown.
type EdgeConstraint struct {
	V1 int
	V2 int

	T1     int
	T2     int
	T1Edge int
}

// NewEdgeConstraint creates a constraint with no cached adjacency.
func NewEdgeConstraint(v1, v2 int) EdgeConstraint {
	return EdgeConstraint{V1: v1, V2: v2, T1: noTriangle, T2: noTriangle, T1Edge: -1}
}

// Equals checks if e and other connect the same pair of vertices, in either
// direction.
func (e EdgeConstraint) Equals(other EdgeConstraint) bool {
	return (e.V1 == other.V1 && e.V2 == other.V2) || (e.V1 == other.V2 && e.V2 == other.V1)
}

// Reverse gets the same edge in the opposite direction.
func (e EdgeConstraint) Reverse() EdgeConstraint {
	return NewEdgeConstraint(e.V2, e.V1)
}

func (e EdgeConstraint) key() edgeKey {
	return newEdgeKey(e.V1, e.V2)
}

// edgeKey identifies an undirected edge.
type edgeKey [2]int

func newEdgeKey(v1, v2 int) edgeKey {
	if v1 > v2 {
		v1, v2 = v2, v1
	}
	return edgeKey{v1, v2}
}

// A MeshFragmentBuffer stores a mesh while it is being sliced.
//
// Vertices holds the surface vertices and CutVertices the vertices of the most
// recently generated cut face. Triangles indexes into the concatenation of
// Vertices and CutVertices, with one index list per submesh.
//
// Constraints stores the boundary edges of the cut face, as indices into
// CutVertices, while the buffer is being filled by a slice.
type MeshFragmentBuffer struct {
	Vertices    []Vertex
	CutVertices []Vertex
	Triangles   [numSubmeshes][]int
	Constraints []EdgeConstraint

	// indexMap maps vertex indices of the buffer being sliced into indices in
	// Vertices. It is only valid during a slice.
	indexMap []int
}

// NewMeshFragmentBufferSize creates an empty buffer with capacity for
// roughly the given number of vertices and triangles.
func NewMeshFragmentBufferSize(vertexCount, triangleCount int) *MeshFragmentBuffer {
	res := &MeshFragmentBuffer{
		Vertices:    make([]Vertex, 0, vertexCount),
		CutVertices: make([]Vertex, 0, vertexCount/10),
		Constraints: make([]EdgeConstraint, 0, vertexCount/10),
	}
	res.Triangles[SurfaceSubmesh] = make([]int, 0, triangleCount*3)
	res.Triangles[CutSubmesh] = make([]int, 0, triangleCount*3/10)
	return res
}

// NewMeshFragmentBuffer creates a buffer holding a copy of a mesh, ready to be
// sliced.
func NewMeshFragmentBuffer(m *Mesh) *MeshFragmentBuffer {
	res := &MeshFragmentBuffer{
		Vertices: append([]Vertex{}, m.Vertices...),
	}
	for i, indices := range m.Submeshes {
		res.Triangles[i] = append([]int{}, indices...)
	}
	return res
}

// NumVertices gets the total number of surface and cut-face vertices.
func (m *MeshFragmentBuffer) NumVertices() int {
	return len(m.Vertices) + len(m.CutVertices)
}

// NumTriangles gets the number of triangles in a submesh.
func (m *MeshFragmentBuffer) NumTriangles(submesh int) int {
	return len(m.Triangles[submesh]) / 3
}

// Vertex gets a vertex by its combined index.
func (m *MeshFragmentBuffer) Vertex(i int) Vertex {
	if i < len(m.Vertices) {
		return m.Vertices[i]
	}
	return m.CutVertices[i-len(m.Vertices)]
}

// Bounds computes the axis-aligned bounding box of all vertices.
func (m *MeshFragmentBuffer) Bounds() (min, max model3d.Coord3D) {
	if m.NumVertices() == 0 {
		return
	}
	min = m.Vertex(0).Position
	max = min
	for _, vs := range [][]Vertex{m.Vertices, m.CutVertices} {
		for _, v := range vs {
			min = min.Min(v.Position)
			max = max.Max(v.Position)
		}
	}
	return
}

// Mesh converts the buffer into a finished mesh, where the cut-face vertices
// follow the surface vertices.
func (m *MeshFragmentBuffer) Mesh() *Mesh {
	vertices := make([]Vertex, 0, m.NumVertices())
	vertices = append(vertices, m.Vertices...)
	vertices = append(vertices, m.CutVertices...)
	res := &Mesh{Vertices: vertices}
	for i, indices := range m.Triangles {
		res.Submeshes[i] = append([]int{}, indices...)
	}
	return res
}

// addMappedVertex adds a surface vertex from the buffer being sliced,
// recording where it ended up.
func (m *MeshFragmentBuffer) addMappedVertex(v Vertex, sourceIndex int) {
	m.indexMap[sourceIndex] = len(m.Vertices)
	m.Vertices = append(m.Vertices, v)
}

// addMappedTriangle adds a triangle whose vertices are indices into the
// buffer being sliced.
func (m *MeshFragmentBuffer) addMappedTriangle(v1, v2, v3, submesh int) {
	m.Triangles[submesh] = append(
		m.Triangles[submesh],
		m.indexMap[v1],
		m.indexMap[v2],
		m.indexMap[v3],
	)
}

// addTriangle adds a triangle whose vertices are indices into m.Vertices.
func (m *MeshFragmentBuffer) addTriangle(v1, v2, v3, submesh int) {
	m.Triangles[submesh] = append(m.Triangles[submesh], v1, v2, v3)
}

// WeldCutFaceVertices merges cut-face vertices with exactly equal positions,
// updating the constraints to refer to the merged vertices.
//
// This must be called before any triangles refer to cut-face vertices.
func (m *MeshFragmentBuffer) WeldCutFaceVertices() {
	welded := make([]Vertex, 0, len(m.CutVertices))
	remap := make([]int, len(m.CutVertices))
	seen := make(map[model3d.Coord3D]int, len(m.CutVertices))
	for i, v := range m.CutVertices {
		if j, ok := seen[v.Position]; ok {
			remap[i] = j
		} else {
			remap[i] = len(welded)
			seen[v.Position] = len(welded)
			welded = append(welded, v)
		}
	}
	m.CutVertices = welded
	for i, c := range m.Constraints {
		m.Constraints[i] = NewEdgeConstraint(remap[c.V1], remap[c.V2])
	}
}
