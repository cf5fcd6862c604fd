package fracture

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseAxes(t *testing.T) {
	cases := map[string]Axes{
		"":    0,
		"x":   AxisX,
		"xz":  AxisX | AxisZ,
		"ZYX": AllAxes,
	}
	for s, expected := range cases {
		actual, err := ParseAxes(s)
		if err != nil {
			t.Fatal(err)
		}
		if actual != expected {
			t.Errorf("%q: expected %v but got %v", s, expected, actual)
		}
	}
	if _, err := ParseAxes("xw"); err == nil {
		t.Error("expected error for unknown axis")
	}
	if s := (AxisX | AxisZ).String(); s != "xz" {
		t.Errorf("unexpected string %q", s)
	}
}

func TestFragmenterFracture(t *testing.T) {
	for _, count := range []int{1, 2, 5, 8} {
		f := &Fragmenter{
			Count:  count,
			Axes:   AllAxes,
			Rand:   rand.New(rand.NewSource(int64(count))),
			Logger: zaptest.NewLogger(t),
		}
		source := NewMeshFragmentBuffer(NewMeshRect(model3d.Origin, model3d.XYZ(1, 1, 1)))
		fragments, err := f.Fracture(context.Background(), source)
		if err != nil {
			t.Fatal(err)
		}
		if len(fragments) != count {
			t.Fatalf("expected %d fragments but got %d", count, len(fragments))
		}

		var volume float64
		var capArea float64
		for _, fragment := range fragments {
			m := fragment.Mesh()
			volume += m.Volume()
			capArea += m.Area(CutSubmesh)
		}
		if math.Abs(volume-1) > 1e-6 {
			t.Errorf("count %d: expected total volume 1 but got %f", count, volume)
		}
		if count == 1 && capArea != 0 {
			t.Errorf("unexpected cut area for a single fragment: %f", capArea)
		} else if count > 1 && capArea == 0 {
			t.Errorf("count %d: expected cut faces", count)
		}
	}
}

func TestFragmenterDenseTorus(t *testing.T) {
	source := testTorus(48, 16)
	checkClosed(t, "torus", source)
	expectedVolume := source.Volume()
	for seed := int64(0); seed < 3; seed++ {
		core, warnings := observer.New(zapcore.WarnLevel)
		f := &Fragmenter{
			Count:  12,
			Axes:   AllAxes,
			Rand:   rand.New(rand.NewSource(seed)),
			Logger: zap.New(core),
		}
		fragments, err := f.Fracture(context.Background(), NewMeshFragmentBuffer(source))
		if err != nil {
			t.Fatal(err)
		}
		if warnings.Len() != 0 {
			t.Fatalf("seed %d: unexpected warning: %s", seed, warnings.All()[0].Message)
		}

		var volume float64
		for i, fragment := range fragments {
			m := fragment.Mesh()
			checkClosed(t, "fragment", m)
			volume += m.Volume()

			// The newest cut face uses every one of its vertices.
			used := make([]bool, len(fragment.CutVertices))
			for _, idx := range fragment.Triangles[CutSubmesh] {
				if idx >= len(fragment.Vertices) {
					used[idx-len(fragment.Vertices)] = true
				}
			}
			for j, x := range used {
				if !x {
					t.Fatalf("seed %d: fragment %d: cut vertex %d is unused", seed, i, j)
				}
			}
		}
		if math.Abs(volume-expectedVolume) > 1e-6 {
			t.Errorf("seed %d: expected total volume %f but got %f", seed, expectedVolume, volume)
		}
	}
}

func TestFragmenterAxes(t *testing.T) {
	// With only the z axis, every cut face is horizontal.
	f := &Fragmenter{Count: 4, Axes: AxisZ, Rand: rand.New(rand.NewSource(0))}
	source := NewMeshFragmentBuffer(testOctahedron())
	fragments, err := f.Fracture(context.Background(), source)
	if err != nil {
		t.Fatal(err)
	}
	for _, fragment := range fragments {
		fragment.Mesh().IterateTriangles(func(submesh int, tri *model3d.Triangle) {
			if submesh == CutSubmesh && math.Abs(tri.Normal().Z) < 1-1e-8 {
				t.Fatalf("cut triangle has normal %v", tri.Normal())
			}
		})
	}
}

func TestFragmenterCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &Fragmenter{Count: 4, Axes: AllAxes}
	source := NewMeshFragmentBuffer(testOctahedron())
	if _, err := f.Fracture(ctx, source); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation error but got %v", err)
	}
	if _, err := f.FractureMeshes(ctx, source); err == nil {
		t.Fatal("expected error")
	}
}

func TestFragmenterIslands(t *testing.T) {
	m := combineMeshes(testOctahedron(), testOctahedron().Translate(model3d.XYZ(3, 0.2, 0)))
	f := &Fragmenter{Count: 1, Islands: true}
	meshes, err := f.FractureMeshes(context.Background(), NewMeshFragmentBuffer(m))
	if err != nil {
		t.Fatal(err)
	}
	if len(meshes) != 2 {
		t.Fatalf("expected 2 islands but got %d", len(meshes))
	}

	f.Islands = false
	meshes, err = f.FractureMeshes(context.Background(), NewMeshFragmentBuffer(m))
	if err != nil {
		t.Fatal(err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh but got %d", len(meshes))
	}
}

func TestFracture(t *testing.T) {
	source := NewMeshFragmentBuffer(testOctahedron())
	fragments := Fracture(source, 3, AxisX|AxisY, UVOptions{})
	if len(fragments) != 3 {
		t.Fatalf("expected 3 fragments but got %d", len(fragments))
	}
	var volume float64
	for _, fragment := range fragments {
		volume += fragment.Mesh().Volume()
	}
	if math.Abs(volume-4.0/3) > 1e-6 {
		t.Errorf("expected total volume %f but got %f", 4.0/3, volume)
	}
}

// testTorus creates a closed torus around the z axis with the given number of
// segments around the ring and around the tube.
func testTorus(ringSegments, tubeSegments int) *Mesh {
	res := &Mesh{}
	for i := 0; i < ringSegments; i++ {
		theta := 2 * math.Pi * float64(i) / float64(ringSegments)
		dir := model3d.XYZ(math.Cos(theta), math.Sin(theta), 0)
		for j := 0; j < tubeSegments; j++ {
			phi := 2 * math.Pi * float64(j) / float64(tubeSegments)
			normal := dir.Scale(math.Cos(phi)).Add(model3d.Z(math.Sin(phi)))
			res.Vertices = append(res.Vertices, Vertex{
				Position: dir.Add(normal.Scale(0.4)),
				Normal:   normal,
			})
		}
	}
	index := func(i, j int) int {
		return (i%ringSegments)*tubeSegments + j%tubeSegments
	}
	for i := 0; i < ringSegments; i++ {
		for j := 0; j < tubeSegments; j++ {
			a, b, c, d := index(i, j), index(i+1, j), index(i+1, j+1), index(i, j+1)
			res.Submeshes[SurfaceSubmesh] = append(res.Submeshes[SurfaceSubmesh],
				a, b, c, a, c, d)
		}
	}
	return res
}
