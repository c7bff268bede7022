package datasets

import (
	"encoding/binary"
	"io"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/messiest/gaussian-processes/pkg/errors"
)

// IDX type codes for the element types this package reads and writes.
const (
	idxUint8   = 0x08
	idxFloat64 = 0x0E
)

// ReadIDXMatrix reads a 2-D IDX file into a dense matrix. Element types
// uint8 and float64 are supported; uint8 values come back as float64.
func ReadIDXMatrix(r io.Reader) (*mat.Dense, error) {
	dtype, dims, err := readIDXHeader(r)
	if err != nil {
		return nil, err
	}
	if len(dims) != 2 {
		return nil, errors.NewValueError("ReadIDXMatrix", "expected a 2-dimensional IDX file")
	}

	rows, cols := dims[0], dims[1]
	data := make([]float64, rows*cols)
	switch dtype {
	case idxUint8:
		buf := make([]byte, rows*cols)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, errors.Wrap(err, "reading IDX payload")
		}
		for i, b := range buf {
			data[i] = float64(b)
		}
	case idxFloat64:
		if err := binary.Read(r, binary.BigEndian, data); err != nil {
			return nil, errors.Wrap(err, "reading IDX payload")
		}
	default:
		return nil, errors.Newf("unsupported IDX element type 0x%02x", dtype)
	}
	return mat.NewDense(rows, cols, data), nil
}

// ReadIDXLabels reads a 1-D uint8 IDX file into integer class labels.
func ReadIDXLabels(r io.Reader) ([]int, error) {
	dtype, dims, err := readIDXHeader(r)
	if err != nil {
		return nil, err
	}
	if len(dims) != 1 {
		return nil, errors.NewValueError("ReadIDXLabels", "expected a 1-dimensional IDX file")
	}
	if dtype != idxUint8 {
		return nil, errors.Newf("unsupported IDX label type 0x%02x", dtype)
	}

	buf := make([]byte, dims[0])
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errors.Wrap(err, "reading IDX payload")
	}
	labels := make([]int, len(buf))
	for i, b := range buf {
		labels[i] = int(b)
	}
	return labels, nil
}

// ReadIDXImages reads a 3-D uint8 IDX image file and flattens each image
// into one matrix row, returning the matrix and the image height and width.
func ReadIDXImages(r io.Reader) (*mat.Dense, int, int, error) {
	dtype, dims, err := readIDXHeader(r)
	if err != nil {
		return nil, 0, 0, err
	}
	if len(dims) != 3 {
		return nil, 0, 0, errors.NewValueError("ReadIDXImages", "expected a 3-dimensional IDX file")
	}
	if dtype != idxUint8 {
		return nil, 0, 0, errors.Newf("unsupported IDX image type 0x%02x", dtype)
	}

	n, h, w := dims[0], dims[1], dims[2]
	buf := make([]byte, n*h*w)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, 0, 0, errors.Wrap(err, "reading IDX payload")
	}
	data := make([]float64, len(buf))
	for i, b := range buf {
		data[i] = float64(b)
	}
	return mat.NewDense(n, h*w, data), h, w, nil
}

// WriteIDXMatrix writes a dense matrix as a 2-D float64 IDX file.
func WriteIDXMatrix(w io.Writer, m *mat.Dense) error {
	rows, cols := m.Dims()
	if err := writeIDXHeader(w, idxFloat64, []int{rows, cols}); err != nil {
		return err
	}
	for i := 0; i < rows; i++ {
		if err := binary.Write(w, binary.BigEndian, m.RawRowView(i)); err != nil {
			return errors.Wrap(err, "writing IDX payload")
		}
	}
	return nil
}

// WriteIDXLabels writes class labels as a 1-D uint8 IDX file. Labels must
// fit in a byte.
func WriteIDXLabels(w io.Writer, labels []int) error {
	if err := writeIDXHeader(w, idxUint8, []int{len(labels)}); err != nil {
		return err
	}
	buf := make([]byte, len(labels))
	for i, l := range labels {
		if l < 0 || l > math.MaxUint8 {
			return errors.NewValueError("WriteIDXLabels", "label does not fit in a byte")
		}
		buf[i] = byte(l)
	}
	_, err := w.Write(buf)
	return errors.Wrap(err, "writing IDX payload")
}

func readIDXHeader(r io.Reader) (dtype byte, dims []int, err error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return 0, nil, errors.Wrap(err, "reading IDX magic")
	}
	if magic[0] != 0 || magic[1] != 0 {
		return 0, nil, errors.New("invalid IDX magic")
	}
	ndim := int(magic[3])
	if ndim < 1 || ndim > 3 {
		return 0, nil, errors.Newf("unsupported IDX rank %d", ndim)
	}

	dims = make([]int, ndim)
	for i := range dims {
		var d uint32
		if err := binary.Read(r, binary.BigEndian, &d); err != nil {
			return 0, nil, errors.Wrap(err, "reading IDX dimensions")
		}
		dims[i] = int(d)
	}
	return magic[2], dims, nil
}

func writeIDXHeader(w io.Writer, dtype byte, dims []int) error {
	magic := [4]byte{0, 0, dtype, byte(len(dims))}
	if _, err := w.Write(magic[:]); err != nil {
		return errors.Wrap(err, "writing IDX magic")
	}
	for _, d := range dims {
		if err := binary.Write(w, binary.BigEndian, uint32(d)); err != nil {
			return errors.Wrap(err, "writing IDX dimensions")
		}
	}
	return nil
}
