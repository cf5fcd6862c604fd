package fracture

import (
	"math"

	"github.com/unixpickle/model3d/model2d"
	"github.com/unixpickle/model3d/model3d"
)

// noTriangle marks a missing neighbor in the triangle table.
const noTriangle = -1

// Corners of the super-triangle, far outside of the unit square that the
// input points are normalized into. The corners are wound clockwise.
var superTriangle = [3]model2d.Coord{
	{X: -100, Y: -100},
	{X: 0, Y: 100},
	{X: 100, Y: -100},
}

// A TriangulationPoint is an input point projected onto the triangulation
// plane.
type TriangulationPoint struct {
	// Index is the index of the point in the original input.
	Index int

	// Coords are the normalized 2D coordinates of the point.
	Coords model2d.Coord

	// Bin is the spatial bin used to order point insertion.
	Bin int
}

// A Triangulation is the result of triangulating a planar point set.
type Triangulation struct {
	// Triangles is a flat list of point indices, three per triangle.
	//
	// Triangles are wound counter-clockwise around the normal passed to the
	// triangulator, i.e. they face along the normal.
	Triangles []int

	// Coords stores the normalized 2D coordinates of every input point, each
	// component in the range [0, 1].
	Coords []model2d.Coord

	// Scale is the factor that was divided out of the projected coordinates
	// to normalize them.
	Scale float64

	// Unenforced lists the constraints that could not be inserted into the
	// triangulation.
	Unenforced []EdgeConstraint
}

// NumTriangles gets the number of triangles in the triangulation.
func (t *Triangulation) NumTriangles() int {
	return len(t.Triangles) / 3
}

// Triangulate computes the Delaunay triangulation of points, which are assumed
// to lie on a plane with the given normal.
//
// If fewer than three points are given, or if all the points project onto the
// same location, an empty triangulation is returned.
func Triangulate(points []model3d.Coord3D, normal model3d.Coord3D) *Triangulation {
	return TriangulateConstrained(points, nil, normal)
}

// triangle is a record in the triangle table.
//
// Vertices are wound clockwise in the 2D plane. N[i] is the neighbor across
// the edge from V[i] to V[(i+1)%3].
type triangle struct {
	V [3]int
	N [3]int
}

func (t *triangle) indexOf(v int) int {
	for i, x := range t.V {
		if x == v {
			return i
		}
	}
	return -1
}

func (t *triangle) replaceNeighbor(old, new int) {
	for i, n := range t.N {
		if n == old {
			t.N[i] = new
			return
		}
	}
}

// triangulator is an incremental Delaunay triangulation engine.
//
// Points [0, n) are the input points, and points n, n+1 and n+2 are the
// corners of the super-triangle.
type triangulator struct {
	points []TriangulationPoint
	n      int
	scale  float64

	tris         []triangle
	lastTriangle int
	stack        []int

	// vertexTriangle maps each point to some triangle which contains it.
	// It is only maintained once constraints are being inserted.
	vertexTriangle []int
}

// newTriangulator projects and normalizes the points, returning nil if the
// point set is degenerate.
func newTriangulator(inputs []model3d.Coord3D, normal model3d.Coord3D) *triangulator {
	n := len(inputs)
	if n < 3 {
		return nil
	}
	normNorm := normal.Norm()
	if normNorm == 0 || math.IsNaN(normNorm) {
		return nil
	}
	e1, e2 := planeBasis(normal.Scale(1 / normNorm))

	points := make([]TriangulationPoint, n+3)
	min := model2d.XY(math.Inf(1), math.Inf(1))
	max := model2d.XY(math.Inf(-1), math.Inf(-1))
	for i, c := range inputs {
		p := model2d.XY(c.Dot(e1), c.Dot(e2))
		min = min.Min(p)
		max = max.Max(p)
		points[i] = TriangulationPoint{Index: i, Coords: p}
	}

	// Use the same scale on both axes to avoid distorting the geometry.
	size := max.Sub(min)
	scale := math.Max(size.X, size.Y)
	if scale == 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil
	}
	for i := range points[:n] {
		points[i].Coords = points[i].Coords.Sub(min).Scale(1 / scale)
	}
	for i, c := range superTriangle {
		points[n+i] = TriangulationPoint{Index: n + i, Coords: c}
	}

	return &triangulator{
		points: points,
		n:      n,
		scale:  scale,
	}
}

// planeBasis creates two orthonormal in-plane axes such that e1 x e2 points
// opposite to normal, so clockwise 2D triangles face along normal in 3D.
func planeBasis(normal model3d.Coord3D) (e1, e2 model3d.Coord3D) {
	helper := model3d.X(1)
	if math.Abs(normal.X) > 0.9 {
		helper = model3d.Y(1)
	}
	e1 = normal.Cross(helper).Normalize()
	e2 = e1.Cross(normal)
	return
}

func (t *triangulator) coords(v int) model2d.Coord {
	return t.points[v].Coords
}

// insertAll inserts every input point in spatially coherent order.
func (t *triangulator) insertAll() {
	perRow := binsPerRow(t.n)
	for i := range t.points[:t.n] {
		c := t.points[i].Coords
		t.points[i].Bin = binIndex(c.X, c.Y, perRow)
	}
	order := BinSort(t.points, t.n, perRow*perRow, func(p TriangulationPoint) int {
		return p.Bin
	})

	t.tris = make([]triangle, 1, 2*t.n+1)
	t.tris[0] = triangle{
		V: [3]int{t.n, t.n + 1, t.n + 2},
		N: [3]int{noTriangle, noTriangle, noTriangle},
	}
	t.lastTriangle = 0
	for _, p := range order[:t.n] {
		t.insert(p.Index)
	}
}

// insert adds a point to the triangulation, splitting the triangle containing
// it and restoring the Delaunay property around it.
func (t *triangulator) insert(p int) {
	c := t.coords(p)
	tri := t.locate(c)
	if tri == noTriangle {
		return
	}
	rec := t.tris[tri]
	for _, v := range rec.V {
		if t.coords(v) == c {
			// Duplicate point; it cannot be part of a valid triangulation.
			return
		}
	}

	v1, v2, v3 := rec.V[0], rec.V[1], rec.V[2]
	n12, n23, n31 := rec.N[0], rec.N[1], rec.N[2]
	t1 := len(t.tris)
	t2 := t1 + 1

	// The new point always ends up as the third vertex, so the edge opposite
	// to it is edge 0 of each new triangle.
	t.tris[tri] = triangle{V: [3]int{v1, v2, p}, N: [3]int{n12, t1, t2}}
	t.tris = append(
		t.tris,
		triangle{V: [3]int{v2, v3, p}, N: [3]int{n23, t2, tri}},
		triangle{V: [3]int{v3, v1, p}, N: [3]int{n31, tri, t1}},
	)
	if n23 != noTriangle {
		t.tris[n23].replaceNeighbor(tri, t1)
	}
	if n31 != noTriangle {
		t.tris[n31].replaceNeighbor(tri, t2)
	}

	t.stack = append(t.stack[:0], tri, t1, t2)
	for len(t.stack) > 0 {
		cur := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		neighbor := t.tris[cur].N[0]
		if neighbor == noTriangle || !t.swapTest(cur, 0) {
			continue
		}
		t.flip(cur, 0)
		t.stack = append(t.stack, cur, neighbor)
	}

	t.lastTriangle = tri
}

// locate finds a triangle containing c by walking the adjacency graph from
// the most recently created triangle.
//
// A point on an edge up to rounding may appear to be outside of both
// triangles sharing that edge. In this case, the triangle which the point is
// least outside of is returned, and the flips done by insert remove the
// resulting sliver. The result is only noTriangle if there are no triangles.
func (t *triangulator) locate(c model2d.Coord) int {
	tri := t.lastTriangle
	for steps := 0; steps <= len(t.tris); steps++ {
		next := t.stepTowards(tri, c)
		if next == tri {
			return tri
		} else if next == noTriangle {
			break
		}
		tri = next
	}

	best := noTriangle
	bestMargin := math.Inf(-1)
	for i := range t.tris {
		if t.stepTowards(i, c) == i {
			return i
		}
		if margin := t.containmentMargin(i, c); margin > bestMargin {
			best, bestMargin = i, margin
		}
	}
	return best
}

// containmentMargin computes the smallest distance from c to the inside of
// any edge of tri. It is negative if c is outside of the triangle.
func (t *triangulator) containmentMargin(tri int, c model2d.Coord) float64 {
	rec := &t.tris[tri]
	res := math.Inf(1)
	for i := 0; i < 3; i++ {
		a := t.coords(rec.V[i])
		b := t.coords(rec.V[(i+1)%3])
		edge := b.Sub(a)
		length := edge.Norm()
		if length == 0 {
			return math.Inf(-1)
		}
		res = math.Min(res, -cross2D(edge, c.Sub(a))/length)
	}
	return res
}

// stepTowards returns tri if it contains c, otherwise the neighbor across the
// first edge which c is not on the right side of.
func (t *triangulator) stepTowards(tri int, c model2d.Coord) int {
	rec := &t.tris[tri]
	for i := 0; i < 3; i++ {
		a := t.coords(rec.V[i])
		b := t.coords(rec.V[(i+1)%3])
		if !IsPointOnRightSide(a, b, c) {
			return rec.N[i]
		}
	}
	return tri
}

// swapTest checks if edge k of tri violates the Delaunay property, i.e. if
// the opposite angles of the two triangles sharing it sum to more than pi.
func (t *triangulator) swapTest(tri, k int) bool {
	rec := &t.tris[tri]
	neighbor := rec.N[k]
	a := t.coords(rec.V[k])
	b := t.coords(rec.V[(k+1)%3])
	p := t.coords(rec.V[(k+2)%3])
	q := t.coords(t.oppositeVertex(neighbor, tri))
	return shouldSwap(a, b, p, q)
}

// shouldSwap implements the swap test of Cline and Renka for the edge a-b
// shared by triangles a,b,p and b,a,q.
func shouldSwap(a, b, p, q model2d.Coord) bool {
	pa, pb := a.Sub(p), b.Sub(p)
	qa, qb := a.Sub(q), b.Sub(q)
	cosP := pa.Dot(pb)
	cosQ := qa.Dot(qb)
	if cosP >= 0 && cosQ >= 0 {
		return false
	} else if cosP < 0 && cosQ < 0 {
		return true
	}
	sinP := math.Abs(cross2D(pa, pb))
	sinQ := math.Abs(cross2D(qa, qb))
	return sinP*cosQ+sinQ*cosP < 0
}

// oppositeVertex finds the vertex of tri which is not on the edge it shares
// with neighbor.
func (t *triangulator) oppositeVertex(tri, neighbor int) int {
	rec := &t.tris[tri]
	for j, n := range rec.N {
		if n == neighbor {
			return rec.V[(j+2)%3]
		}
	}
	panic("triangles are not adjacent")
}

// flip swaps the diagonal of the quad formed by tri and the neighbor across
// its edge k.
//
// If tri is (a, b, p) with edge k from a to b, and the neighbor is (b, a, q),
// then afterwards tri is (a, q, p) and the neighbor is (q, b, p). The new
// diagonal runs from q to p as edge 1 of tri.
//
// The neighbor index is returned.
func (t *triangulator) flip(tri, k int) int {
	rec := t.tris[tri]
	a := rec.V[k]
	b := rec.V[(k+1)%3]
	p := rec.V[(k+2)%3]
	neighbor := rec.N[k]
	nbp := rec.N[(k+1)%3]
	npa := rec.N[(k+2)%3]

	other := t.tris[neighbor]
	j := other.indexOf(b)
	q := other.V[(j+2)%3]
	naq := other.N[(j+1)%3]
	nqb := other.N[(j+2)%3]

	t.tris[tri] = triangle{V: [3]int{a, q, p}, N: [3]int{naq, neighbor, npa}}
	t.tris[neighbor] = triangle{V: [3]int{q, b, p}, N: [3]int{nqb, nbp, tri}}
	if naq != noTriangle {
		t.tris[naq].replaceNeighbor(neighbor, tri)
	}
	if nbp != noTriangle {
		t.tris[nbp].replaceNeighbor(tri, neighbor)
	}

	if t.vertexTriangle != nil {
		t.vertexTriangle[a] = tri
		t.vertexTriangle[q] = tri
		t.vertexTriangle[p] = tri
		t.vertexTriangle[b] = neighbor
	}

	return neighbor
}

// touchesSuperTriangle checks if a triangle uses a super-triangle corner.
func (t *triangulator) touchesSuperTriangle(tri int) bool {
	for _, v := range t.tris[tri].V {
		if v >= t.n {
			return true
		}
	}
	return false
}

// result collects the surviving triangles, skipping any that touch the
// super-triangle or are rejected by keep.
func (t *triangulator) result(keep []bool) *Triangulation {
	res := &Triangulation{
		Coords: make([]model2d.Coord, t.n),
		Scale:  t.scale,
	}
	for i, p := range t.points[:t.n] {
		res.Coords[i] = p.Coords
	}
	res.Triangles = make([]int, 0, 3*len(t.tris))
	for i, tri := range t.tris {
		if t.touchesSuperTriangle(i) || (keep != nil && !keep[i]) {
			continue
		}
		for _, v := range tri.V {
			res.Triangles = append(res.Triangles, t.points[v].Index)
		}
	}
	return res
}
