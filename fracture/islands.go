package fracture

import (
	"github.com/unixpickle/model3d/model3d"
	"golang.org/x/exp/slices"
)

// FindIslands splits a mesh into its connected components.
//
// Two vertices are connected if they share a triangle or if their positions
// are exactly equal, so pieces that are only joined through duplicated
// vertices stay together. Each island keeps the submesh of every triangle.
// Vertices which belong to no triangle are dropped.
func FindIslands(m *Mesh) []*Mesh {
	numVertices := len(m.Vertices)

	type triangleRef struct {
		submesh int
		offset  int
	}
	var triangles []triangleRef
	vertexTriangles := make([][]int, numVertices)
	for submesh, indices := range m.Submeshes {
		for i := 0; i+2 < len(indices); i += 3 {
			id := len(triangles)
			triangles = append(triangles, triangleRef{submesh: submesh, offset: i})
			for _, v := range indices[i : i+3] {
				vertexTriangles[v] = append(vertexTriangles[v], id)
			}
		}
	}
	coincident := coincidentVertices(m.Vertices)

	visitedVertices := make([]bool, numVertices)
	visitedTriangles := make([]bool, len(triangles))
	localIndex := make([]int, numVertices)

	var results []*Mesh
	var queue []int
	for seed := 0; seed < numVertices; seed++ {
		if visitedVertices[seed] {
			continue
		}
		visitedVertices[seed] = true
		queue = append(queue[:0], seed)

		var islandVertices, islandTriangles []int
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			islandVertices = append(islandVertices, v)

			for _, t := range vertexTriangles[v] {
				if visitedTriangles[t] {
					continue
				}
				visitedTriangles[t] = true
				islandTriangles = append(islandTriangles, t)
				ref := triangles[t]
				for _, other := range m.Submeshes[ref.submesh][ref.offset : ref.offset+3] {
					if !visitedVertices[other] {
						visitedVertices[other] = true
						queue = append(queue, other)
					}
				}
			}
			for _, other := range coincident[v] {
				if !visitedVertices[other] {
					visitedVertices[other] = true
					queue = append(queue, other)
				}
			}
		}

		if len(islandTriangles) == 0 {
			continue
		}

		island := &Mesh{Vertices: make([]Vertex, len(islandVertices))}
		for i, v := range islandVertices {
			localIndex[v] = i
			island.Vertices[i] = m.Vertices[v]
		}
		slices.Sort(islandTriangles)
		for _, t := range islandTriangles {
			ref := triangles[t]
			for _, v := range m.Submeshes[ref.submesh][ref.offset : ref.offset+3] {
				island.Submeshes[ref.submesh] = append(island.Submeshes[ref.submesh], localIndex[v])
			}
		}
		results = append(results, island)
	}
	return results
}

// coincidentVertices finds, for every vertex, the other vertices at exactly
// the same position.
func coincidentVertices(vertices []Vertex) [][]int {
	groups := map[model3d.Coord3D][]int{}
	for i, v := range vertices {
		groups[v.Position] = append(groups[v.Position], i)
	}
	res := make([][]int, len(vertices))
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		for _, v := range group {
			others := make([]int, 0, len(group)-1)
			for _, other := range group {
				if other != v {
					others = append(others, other)
				}
			}
			res[v] = others
		}
	}
	return res
}
