package fracture

import (
	"github.com/unixpickle/model3d/model2d"
	"github.com/unixpickle/model3d/model3d"
)

// IsAbovePlane checks if p is on the side of the plane that normal n points
// towards. Points exactly on the plane (through o) count as above.
func IsAbovePlane(p, n, o model3d.Coord3D) bool {
	return n.Dot(p.Sub(o)) >= 0
}

// LinePlaneIntersection finds the point where the segment from a to b crosses
// the plane with normal n through o.
//
// The returned s is the fraction of the way from a to b, so attributes can be
// interpolated as a*(1-s) + b*s. If a == b, n is zero, the segment is parallel
// to the plane, or the plane does not cross the segment, ok is false.
func LinePlaneIntersection(a, b, n, o model3d.Coord3D) (x model3d.Coord3D, s float64, ok bool) {
	if a == b || n == model3d.Origin {
		return
	}

	// Signed distances (scaled by |n|) of both endpoints.
	da := n.Dot(a.Sub(o))
	db := n.Dot(b.Sub(o))
	if da == 0 {
		return a, 0, true
	} else if db == 0 {
		return b, 1, true
	} else if da == db {
		return
	}

	s = da / (da - db)
	if s < 0 || s > 1 {
		return model3d.Coord3D{}, 0, false
	}
	return a.Add(b.Sub(a).Scale(s)), s, true
}

// IsPointOnRightSide checks if p is on the right side of the directed line
// from a to b. Points on the line count as being on the right.
func IsPointOnRightSide(a, b, p model2d.Coord) bool {
	return cross2D(b.Sub(a), p.Sub(a)) <= 0
}

// SegmentsIntersect checks if the segment a1-a2 properly crosses b1-b2.
//
// If the segments share an endpoint, includeSharedEndpoints is returned
// without further testing.
func SegmentsIntersect(a1, a2, b1, b2 model2d.Coord, includeSharedEndpoints bool) bool {
	if a1 == b1 || a1 == b2 || a2 == b1 || a2 == b2 {
		return includeSharedEndpoints
	}
	da := a2.Sub(a1)
	db := b2.Sub(b1)
	s1 := cross2D(da, b1.Sub(a1))
	s2 := cross2D(da, b2.Sub(a1))
	s3 := cross2D(db, a1.Sub(b1))
	s4 := cross2D(db, a2.Sub(b1))
	return ((s1 > 0 && s2 < 0) || (s1 < 0 && s2 > 0)) &&
		((s3 > 0 && s4 < 0) || (s3 < 0 && s4 > 0))
}

// QuadIsConvex checks if the quad q1, q2, q3, q4 (in winding order) is
// convex, i.e. if its two diagonals cross.
//
// Degenerate quads which repeat a corner are triangles, and are treated as
// convex.
func QuadIsConvex(q1, q2, q3, q4 model2d.Coord) bool {
	return SegmentsIntersect(q1, q3, q2, q4, true)
}

func cross2D(a, b model2d.Coord) float64 {
	return a.X*b.Y - a.Y*b.X
}
