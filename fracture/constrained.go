package fracture

import (
	"github.com/unixpickle/model3d/model3d"
)

// TriangulateConstrained triangulates points lying on a plane with the given
// normal, such that every constraint appears as an edge of the result.
//
// The directed constraints are assumed to form closed loops bounding the
// region to fill, with the region on the side of each constraint that a
// clockwise-wound 2D triangle holding the edge from V1 to V2 would occupy. In
// 3D, this means the loops wind counter-clockwise around normal. Triangles
// outside of these loops, including inside of holes, are discarded.
//
// Constraints which cannot be inserted are skipped and reported in the
// result's Unenforced field. Without constraints, this is equivalent to
// Triangulate.
func TriangulateConstrained(
	points []model3d.Coord3D,
	constraints []EdgeConstraint,
	normal model3d.Coord3D,
) *Triangulation {
	t := newTriangulator(points, normal)
	if t == nil {
		return &Triangulation{}
	}
	t.insertAll()
	if len(constraints) == 0 {
		return t.result(nil)
	}

	enforcer := newConstraintEnforcer(t, constraints)
	var unenforced []EdgeConstraint
	for _, c := range constraints {
		if !enforcer.Enforce(c) {
			unenforced = append(unenforced, c)
		}
	}
	res := t.result(enforcer.BoundedRegion())
	res.Unenforced = unenforced
	return res
}

// constraintEnforcer inserts constraint edges into a finished triangulation.
type constraintEnforcer struct {
	t           *triangulator
	constraints []EdgeConstraint
	constrained map[edgeKey]bool
}

func newConstraintEnforcer(t *triangulator, constraints []EdgeConstraint) *constraintEnforcer {
	t.vertexTriangle = make([]int, len(t.points))
	for i := range t.vertexTriangle {
		t.vertexTriangle[i] = noTriangle
	}
	for i, tri := range t.tris {
		for _, v := range tri.V {
			t.vertexTriangle[v] = i
		}
	}
	res := &constraintEnforcer{
		t:           t,
		constraints: constraints,
		constrained: map[edgeKey]bool{},
	}
	for _, c := range constraints {
		if res.validConstraint(c) {
			res.constrained[c.key()] = true
		}
	}
	return res
}

func (c *constraintEnforcer) validConstraint(e EdgeConstraint) bool {
	n := c.t.n
	return e.V1 >= 0 && e.V2 >= 0 && e.V1 < n && e.V2 < n && e.V1 != e.V2 &&
		c.t.vertexTriangle[e.V1] != noTriangle && c.t.vertexTriangle[e.V2] != noTriangle
}

// Enforce makes sure the edge e is present in the triangulation.
//
// Returns false if the edge could not be inserted. Degenerate constraints,
// where both endpoints are the same vertex, are ignored.
func (c *constraintEnforcer) Enforce(e EdgeConstraint) bool {
	if e.V1 == e.V2 {
		return true
	}
	if !c.validConstraint(e) {
		return false
	}
	if c.edgeExists(e.V1, e.V2) {
		return true
	}
	start, ok := c.findStartingEdge(e)
	if !ok {
		return false
	}
	crossing, ok := c.findCrossingEdges(e, start)
	if !ok {
		return false
	}
	newEdges, ok := c.removeCrossingEdges(e, crossing)
	if !ok {
		return false
	}
	c.restoreDelaunay(e, newEdges)
	return true
}

// BoundedRegion finds the triangles inside the region bounded by the
// constraints.
//
// Triangles holding a constraint edge in the constraint's direction seed a
// flood fill which never crosses a constraint edge.
func (c *constraintEnforcer) BoundedRegion() []bool {
	t := c.t
	directed := make(map[[2]int]bool, len(c.constraints))
	for _, e := range c.constraints {
		directed[[2]int{e.V1, e.V2}] = true
	}

	keep := make([]bool, len(t.tris))
	var queue []int
	for i, tri := range t.tris {
		for k := 0; k < 3; k++ {
			if directed[[2]int{tri.V[k], tri.V[(k+1)%3]}] {
				keep[i] = true
				queue = append(queue, i)
				break
			}
		}
	}

	for len(queue) > 0 {
		tri := &t.tris[queue[0]]
		queue = queue[1:]
		for k, neighbor := range tri.N {
			if neighbor == noTriangle || keep[neighbor] {
				continue
			}
			if c.constrained[newEdgeKey(tri.V[k], tri.V[(k+1)%3])] {
				continue
			}
			keep[neighbor] = true
			queue = append(queue, neighbor)
		}
	}
	return keep
}

// edgeExists checks if v1 and v2 share a triangle edge.
func (c *constraintEnforcer) edgeExists(v1, v2 int) bool {
	var found bool
	c.t.iterateFan(v1, func(tri, i int) bool {
		rec := &c.t.tris[tri]
		if rec.V[(i+1)%3] == v2 || rec.V[(i+2)%3] == v2 {
			found = true
			return false
		}
		return true
	})
	return found
}

// findStartingEdge finds the edge opposite to e.V1 in one of the triangles
// around e.V1 which the constraint crosses.
func (c *constraintEnforcer) findStartingEdge(e EdgeConstraint) (res EdgeConstraint, ok bool) {
	t := c.t
	p1, p2 := t.coords(e.V1), t.coords(e.V2)
	t.iterateFan(e.V1, func(tri, i int) bool {
		rec := &t.tris[tri]
		k := (i + 1) % 3
		a, b := rec.V[k], rec.V[(k+1)%3]
		if SegmentsIntersect(p1, p2, t.coords(a), t.coords(b), false) {
			res = EdgeConstraint{V1: a, V2: b, T1: tri, T2: rec.N[k], T1Edge: k}
			ok = true
			return false
		}
		return true
	})
	return
}

// findCrossingEdges walks from the starting edge towards e.V2, recording
// every edge which the constraint crosses.
func (c *constraintEnforcer) findCrossingEdges(
	e EdgeConstraint,
	start EdgeConstraint,
) ([]EdgeConstraint, bool) {
	t := c.t
	p1, p2 := t.coords(e.V1), t.coords(e.V2)
	edges := []EdgeConstraint{start}
	cur := start
	for steps := 0; steps < len(t.tris); steps++ {
		next := cur.T2
		if next == noTriangle {
			return nil, false
		}
		rec := &t.tris[next]
		j := rec.indexOf(cur.V2)
		if j < 0 || rec.N[j] != cur.T1 {
			return nil, false
		}
		if rec.V[(j+2)%3] == e.V2 {
			return edges, true
		}
		found := false
		for _, k := range [2]int{(j + 1) % 3, (j + 2) % 3} {
			a, b := rec.V[k], rec.V[(k+1)%3]
			if SegmentsIntersect(p1, p2, t.coords(a), t.coords(b), false) {
				cur = EdgeConstraint{V1: a, V2: b, T1: next, T2: rec.N[k], T1Edge: k}
				edges = append(edges, cur)
				found = true
				break
			}
		}
		if !found {
			// The constraint passes exactly through a vertex.
			return nil, false
		}
	}
	return nil, false
}

// removeCrossingEdges flips edges until none of them cross e, returning the
// edges created along the way which do not cross e.
//
// Returns false if a full pass over the remaining edges cannot flip any of
// them.
func (c *constraintEnforcer) removeCrossingEdges(
	e EdgeConstraint,
	crossing []EdgeConstraint,
) ([]EdgeConstraint, bool) {
	t := c.t
	p1, p2 := t.coords(e.V1), t.coords(e.V2)
	queue := crossing
	var newEdges []EdgeConstraint
	var stalled int
	for len(queue) > 0 {
		edge := queue[0]
		queue = queue[1:]

		tri, k, ok := c.locateEdge(edge)
		if !ok {
			continue
		}
		rec := &t.tris[tri]
		if rec.N[k] == noTriangle {
			return newEdges, false
		}
		a, b, p := rec.V[k], rec.V[(k+1)%3], rec.V[(k+2)%3]
		q := t.oppositeVertex(rec.N[k], tri)
		convex := QuadIsConvex(t.coords(a), t.coords(q), t.coords(b), t.coords(p))
		if !convex || c.constrained[newEdgeKey(a, b)] {
			queue = append(queue, edge)
			stalled++
			if stalled > len(queue) {
				return newEdges, false
			}
			continue
		}
		stalled = 0

		diagonal := c.flipEdge(tri, k)
		if SegmentsIntersect(p1, p2, t.coords(diagonal.V1), t.coords(diagonal.V2), false) {
			queue = append(queue, diagonal)
		} else {
			newEdges = append(newEdges, diagonal)
		}
	}
	return newEdges, true
}

// restoreDelaunay flips the newly created edges until they are all locally
// Delaunay, never flipping a constraint.
func (c *constraintEnforcer) restoreDelaunay(e EdgeConstraint, newEdges []EdgeConstraint) {
	t := c.t
	for pass := 0; pass < len(t.tris); pass++ {
		var swapped bool
		for i, edge := range newEdges {
			if edge.Equals(e) || c.constrained[edge.key()] {
				continue
			}
			tri, k, ok := c.locateEdge(edge)
			if !ok {
				continue
			}
			rec := &t.tris[tri]
			if rec.N[k] == noTriangle || !t.swapTest(tri, k) {
				continue
			}
			a, b, p := rec.V[k], rec.V[(k+1)%3], rec.V[(k+2)%3]
			q := t.oppositeVertex(rec.N[k], tri)
			if !QuadIsConvex(t.coords(a), t.coords(q), t.coords(b), t.coords(p)) {
				continue
			}
			newEdges[i] = c.flipEdge(tri, k)
			swapped = true
		}
		if !swapped {
			return
		}
	}
}

// flipEdge swaps the diagonal across edge k of tri and returns the new
// diagonal.
func (c *constraintEnforcer) flipEdge(tri, k int) EdgeConstraint {
	neighbor := c.t.flip(tri, k)
	rec := &c.t.tris[tri]
	return EdgeConstraint{V1: rec.V[1], V2: rec.V[2], T1: tri, T2: neighbor, T1Edge: 1}
}

// locateEdge finds the triangle holding the directed edge from edge.V1 to
// edge.V2, using the cached adjacency when it is still valid.
func (c *constraintEnforcer) locateEdge(edge EdgeConstraint) (tri, k int, ok bool) {
	t := c.t
	if edge.T1 >= 0 && edge.T1 < len(t.tris) && edge.T1Edge >= 0 {
		rec := &t.tris[edge.T1]
		if rec.V[edge.T1Edge] == edge.V1 && rec.V[(edge.T1Edge+1)%3] == edge.V2 {
			return edge.T1, edge.T1Edge, true
		}
	}
	t.iterateFan(edge.V1, func(fanTri, i int) bool {
		if t.tris[fanTri].V[(i+1)%3] == edge.V2 {
			tri, k, ok = fanTri, i, true
			return false
		}
		return true
	})
	return
}

// iterateFan calls f for every triangle around vertex v, along with the
// index of v within the triangle, until f returns false.
func (t *triangulator) iterateFan(v int, f func(tri, i int) bool) {
	start := t.vertexTriangle[v]
	if start == noTriangle {
		return
	}

	// Rotate across the edge leaving v until we return to the start or hit
	// the boundary of the triangulation.
	tri := start
	for steps := 0; steps < len(t.tris); steps++ {
		i := t.tris[tri].indexOf(v)
		if i < 0 || !f(tri, i) {
			return
		}
		tri = t.tris[tri].N[i]
		if tri == start {
			return
		} else if tri == noTriangle {
			break
		}
	}
	if tri != noTriangle {
		return
	}

	// Rotate the other way from the start to cover the rest of an open fan.
	tri = start
	for steps := 0; steps < len(t.tris); steps++ {
		i := t.tris[tri].indexOf(v)
		tri = t.tris[tri].N[(i+2)%3]
		if tri == noTriangle {
			return
		}
		i = t.tris[tri].indexOf(v)
		if i < 0 || !f(tri, i) {
			return
		}
	}
}
