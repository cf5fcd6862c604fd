package fracture

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model2d"
	"github.com/unixpickle/model3d/model3d"
)

const floatsPerVertex = 8

// readChunkSize is the maximum number of values decoded per read, which
// bounds memory use when a header overstates the size of the data.
const readChunkSize = 1 << 16

// WriteMesh serializes m in a 32-bit precision binary format.
//
// The format is a header of three uint32 values (vertex count and the index
// count of each submesh), followed by position, normal and UV for every
// vertex as float32 values, followed by the uint32 indices of each submesh.
func WriteMesh(w io.Writer, m *Mesh) error {
	header := []uint32{
		uint32(len(m.Vertices)),
		uint32(len(m.Submeshes[SurfaceSubmesh])),
		uint32(len(m.Submeshes[CutSubmesh])),
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return errors.Wrap(err, "write mesh")
	}

	data := make([]float32, 0, floatsPerVertex*len(m.Vertices))
	for _, v := range m.Vertices {
		data = append(
			data,
			float32(v.Position.X), float32(v.Position.Y), float32(v.Position.Z),
			float32(v.Normal.X), float32(v.Normal.Y), float32(v.Normal.Z),
			float32(v.UV.X), float32(v.UV.Y),
		)
	}
	if err := binary.Write(w, binary.LittleEndian, data); err != nil {
		return errors.Wrap(err, "write mesh")
	}

	for _, indices := range m.Submeshes {
		encoded := make([]uint32, len(indices))
		for i, x := range indices {
			encoded[i] = uint32(x)
		}
		if err := binary.Write(w, binary.LittleEndian, encoded); err != nil {
			return errors.Wrap(err, "write mesh")
		}
	}
	return nil
}

// ReadMesh reads the output written by WriteMesh.
func ReadMesh(r io.Reader) (*Mesh, error) {
	var header [3]uint32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, errors.Wrap(err, "read mesh")
	}
	numVertices := int(header[0])
	for _, n := range header[1:] {
		if n%3 != 0 {
			return nil, errors.Errorf("read mesh: index count %d is not a multiple of 3", n)
		}
	}

	data, err := readValues[float32](r, floatsPerVertex*numVertices)
	if err != nil {
		return nil, errors.Wrap(err, "read mesh vertices")
	}
	res := &Mesh{Vertices: make([]Vertex, numVertices)}
	for i := range res.Vertices {
		x := data[i*floatsPerVertex : (i+1)*floatsPerVertex]
		res.Vertices[i] = Vertex{
			Position: model3d.XYZ(float64(x[0]), float64(x[1]), float64(x[2])),
			Normal:   model3d.XYZ(float64(x[3]), float64(x[4]), float64(x[5])),
			UV:       model2d.XY(float64(x[6]), float64(x[7])),
		}
	}

	for submesh, n := range header[1:] {
		encoded, err := readValues[uint32](r, int(n))
		if err != nil {
			return nil, errors.Wrap(err, "read mesh indices")
		}
		indices := make([]int, n)
		for i, x := range encoded {
			if int(x) >= numVertices {
				return nil, errors.Errorf("read mesh: index %d out of bounds", x)
			}
			indices[i] = int(x)
		}
		res.Submeshes[submesh] = indices
	}
	return res, nil
}

func readValues[T float32 | uint32](r io.Reader, n int) ([]T, error) {
	res := make([]T, 0, essentials.MinInt(n, readChunkSize))
	for len(res) < n {
		chunk := make([]T, essentials.MinInt(n-len(res), readChunkSize))
		if err := binary.Read(r, binary.LittleEndian, chunk); err != nil {
			return nil, err
		}
		res = append(res, chunk...)
	}
	return res, nil
}

// Load opens a file and decodes it with f.
func Load[T any](path string, f func(r io.Reader) (T, error)) (T, error) {
	var zero T
	file, err := os.Open(path)
	if err != nil {
		return zero, errors.Wrap(err, "load")
	}
	defer file.Close()
	res, err := f(bufio.NewReader(file))
	if err != nil {
		return zero, errors.Wrapf(err, "load %s", path)
	}
	return res, nil
}

// Save creates a file and encodes obj into it with f.
func Save[T any](path string, obj T, f func(w io.Writer, obj T) error) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "save")
	}
	w := bufio.NewWriter(file)
	if err := f(w, obj); err != nil {
		file.Close()
		return errors.Wrapf(err, "save %s", path)
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return errors.Wrapf(err, "save %s", path)
	}
	return errors.Wrapf(file.Close(), "save %s", path)
}
