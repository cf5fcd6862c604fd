package fracture

import (
	"math"
	"testing"

	"github.com/unixpickle/model3d/model2d"
	"github.com/unixpickle/model3d/model3d"
	"go.uber.org/zap/zaptest"
)

func TestSliceOctahedron(t *testing.T) {
	source := NewMeshFragmentBuffer(testOctahedron())
	top, bottom := slice(source, model3d.Z(1), model3d.Z(0.3), UVOptions{}, zaptest.NewLogger(t))

	// Four faces straddle the plane, and each split adds two triangles.
	surfaceCount := top.NumTriangles(SurfaceSubmesh) + bottom.NumTriangles(SurfaceSubmesh)
	if surfaceCount != 8+2*4 {
		t.Errorf("expected %d surface triangles but got %d", 8+2*4, surfaceCount)
	}
	if top.NumTriangles(SurfaceSubmesh) != 4 {
		t.Errorf("expected 4 top surface triangles but got %d", top.NumTriangles(SurfaceSubmesh))
	}
	if len(top.CutVertices) != 4 || len(bottom.CutVertices) != 4 {
		t.Fatalf("expected 4 welded cut vertices but got %d and %d", len(top.CutVertices),
			len(bottom.CutVertices))
	}
	if top.NumTriangles(CutSubmesh) != 2 || bottom.NumTriangles(CutSubmesh) != 2 {
		t.Fatalf("expected 2 cut triangles per side but got %d and %d",
			top.NumTriangles(CutSubmesh), bottom.NumTriangles(CutSubmesh))
	}

	for i, v := range top.CutVertices {
		if v.Normal.Dist(model3d.Z(-1)) > 1e-8 {
			t.Errorf("top cut vertex %d has normal %v", i, v.Normal)
		}
		if bottom.CutVertices[i].Normal.Dist(model3d.Z(1)) > 1e-8 {
			t.Errorf("bottom cut vertex %d has normal %v", i, bottom.CutVertices[i].Normal)
		}
	}

	for _, x := range []struct {
		name      string
		buffer    *MeshFragmentBuffer
		capNormal model3d.Coord3D
		volume    float64
	}{
		{"top", top, model3d.Z(-1), 0.98 * 0.7 / 3},
		{"bottom", bottom, model3d.Z(1), 4.0/3 - 0.98*0.7/3},
	} {
		mesh := x.buffer.Mesh()
		checkClosed(t, x.name, mesh)
		if area := mesh.Area(CutSubmesh); math.Abs(area-0.98) > 1e-8 {
			t.Errorf("%s: expected cap area 0.98 but got %f", x.name, area)
		}
		if volume := mesh.Volume(); math.Abs(volume-x.volume) > 1e-8 {
			t.Errorf("%s: expected volume %f but got %f", x.name, x.volume, volume)
		}
		mesh.IterateTriangles(func(submesh int, tri *model3d.Triangle) {
			if submesh == CutSubmesh && tri.Normal().Dot(x.capNormal) < 1-1e-8 {
				t.Errorf("%s: cap triangle has normal %v", x.name, tri.Normal())
			}
		})
	}
}

func TestSliceUnitCube(t *testing.T) {
	cube := NewMeshRect(model3d.XYZ(-0.5, -0.5, -0.5), model3d.XYZ(0.5, 0.5, 0.5))
	top, bottom := Slice(NewMeshFragmentBuffer(cube), model3d.Y(1), model3d.Origin, UVOptions{})

	// Every side triangle straddles the plane.
	surfaceCount := top.NumTriangles(SurfaceSubmesh) + bottom.NumTriangles(SurfaceSubmesh)
	if surfaceCount != 12+2*8 {
		t.Errorf("expected %d surface triangles but got %d", 12+2*8, surfaceCount)
	}
	if top.NumTriangles(CutSubmesh) != bottom.NumTriangles(CutSubmesh) {
		t.Errorf("cut triangle counts differ: %d and %d", top.NumTriangles(CutSubmesh),
			bottom.NumTriangles(CutSubmesh))
	}
	for name, b := range map[string]*MeshFragmentBuffer{"top": top, "bottom": bottom} {
		m := b.Mesh()
		checkClosed(t, name, m)
		if area := m.Area(CutSubmesh); math.Abs(area-1) > 1e-8 {
			t.Errorf("%s: expected cap area 1 but got %f", name, area)
		}
		if v := m.Volume(); math.Abs(v-0.5) > 1e-8 {
			t.Errorf("%s: expected volume 0.5 but got %f", name, v)
		}
	}

	// The original corners all survive in one of the halves.
	positions := map[model3d.Coord3D]bool{}
	for _, b := range []*MeshFragmentBuffer{top, bottom} {
		for _, v := range b.Vertices {
			positions[v.Position] = true
		}
	}
	for i, v := range cube.Vertices {
		if !positions[v.Position] {
			t.Errorf("corner %d is missing", i)
		}
	}
}

func TestSliceMiss(t *testing.T) {
	source := NewMeshFragmentBuffer(testOctahedron())
	top, bottom := Slice(source, model3d.Z(1), model3d.Z(5), UVOptions{})
	if top.NumVertices() != 0 || top.NumTriangles(SurfaceSubmesh) != 0 {
		t.Errorf("top should be empty")
	}
	if bottom.NumVertices() != 6 || bottom.NumTriangles(SurfaceSubmesh) != 8 {
		t.Errorf("bottom should contain the whole mesh")
	}
	if bottom.NumTriangles(CutSubmesh) != 0 {
		t.Errorf("no cut face expected")
	}
}

func TestSliceTwice(t *testing.T) {
	logger := zaptest.NewLogger(t)
	source := NewMeshFragmentBuffer(testOctahedron())
	_, bottom := slice(source, model3d.Z(1), model3d.Z(0.3), UVOptions{}, logger)
	expected := bottom.Mesh().Volume()

	left, right := slice(bottom, model3d.XYZ(1, 0.2, 0.1), model3d.X(0.1), UVOptions{}, logger)
	if len(left.CutVertices) != len(right.CutVertices) {
		t.Fatalf("cut vertex counts differ: %d and %d", len(left.CutVertices),
			len(right.CutVertices))
	}
	if left.NumTriangles(CutSubmesh) <= bottom.NumTriangles(CutSubmesh) {
		t.Errorf("expected new cut triangles on the left")
	}
	volume := left.Mesh().Volume() + right.Mesh().Volume()
	if math.Abs(volume-expected) > 1e-8 {
		t.Errorf("expected total volume %f but got %f", expected, volume)
	}
}

func TestSliceUV(t *testing.T) {
	source := NewMeshFragmentBuffer(testOctahedron())
	uv := UVOptions{Scale: model2d.XY(2, 2), Offset: model2d.XY(10, 10)}
	top, _ := Slice(source, model3d.Z(1), model3d.Origin, uv)
	for i, v := range top.CutVertices {
		if v.UV.X < 10 || v.UV.Y < 10 || v.UV.X > 14+1e-8 || v.UV.Y > 14+1e-8 {
			t.Errorf("cut vertex %d has texture coordinates %v", i, v.UV)
		}
	}
}

func TestWeldCutFaceVertices(t *testing.T) {
	b := &MeshFragmentBuffer{
		CutVertices: []Vertex{
			{Position: model3d.X(1)},
			{Position: model3d.Y(1)},
			{Position: model3d.Y(1)},
			{Position: model3d.Z(1)},
			{Position: model3d.Z(1)},
			{Position: model3d.X(1)},
		},
		Constraints: []EdgeConstraint{
			NewEdgeConstraint(0, 1),
			NewEdgeConstraint(2, 3),
			NewEdgeConstraint(4, 5),
		},
	}
	b.WeldCutFaceVertices()
	if len(b.CutVertices) != 3 {
		t.Fatalf("expected 3 vertices but got %d", len(b.CutVertices))
	}
	expected := loopConstraints(0, 1, 2)
	for i, c := range b.Constraints {
		if c != expected[i] {
			t.Errorf("constraint %d: expected %v but got %v", i, expected[i], c)
		}
	}

	b.WeldCutFaceVertices()
	if len(b.CutVertices) != 3 {
		t.Fatal("welding should be idempotent")
	}
}

// checkClosed makes sure that every directed edge of the mesh is matched by
// an edge in the opposite direction, comparing vertices by position.
func checkClosed(t *testing.T, name string, m *Mesh) {
	edges := map[[2]model3d.Coord3D]int{}
	m.IterateTriangles(func(_ int, tri *model3d.Triangle) {
		for i := 0; i < 3; i++ {
			edges[[2]model3d.Coord3D{tri[i], tri[(i+1)%3]}]++
		}
	})
	for edge, count := range edges {
		reverse := [2]model3d.Coord3D{edge[1], edge[0]}
		if edges[reverse] != count {
			t.Fatalf("%s: edge %v appears %d times but its reverse %d times", name, edge,
				count, edges[reverse])
		}
	}
}

func testOctahedron() *Mesh {
	positions := []model3d.Coord3D{
		model3d.X(1), model3d.X(-1),
		model3d.Y(1), model3d.Y(-1),
		model3d.Z(1), model3d.Z(-1),
	}
	res := &Mesh{}
	for _, p := range positions {
		res.Vertices = append(res.Vertices, Vertex{Position: p, Normal: p})
	}
	res.Submeshes[SurfaceSubmesh] = []int{
		0, 2, 4, 2, 1, 4, 1, 3, 4, 3, 0, 4,
		2, 0, 5, 1, 2, 5, 3, 1, 5, 0, 3, 5,
	}
	return res
}
