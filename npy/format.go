package npy

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

var npyMagic = []byte("\x93NUMPY")

var dtypeSizes = map[string]int{
	"|u1": 1, "|i1": 1,
	"<u2": 2, "<i2": 2,
	"<u4": 4, "<i4": 4,
	"<u8": 8, "<i8": 8,
	"<f4": 4, "<f8": 8,
}

func dtypeOf[T Element]() string {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return "|u1"
	case int8:
		return "|i1"
	case uint16:
		return "<u2"
	case int16:
		return "<i2"
	case uint32:
		return "<u4"
	case int32:
		return "<i4"
	case uint64:
		return "<u8"
	case int64:
		return "<i8"
	case float32:
		return "<f4"
	case float64:
		return "<f8"
	}
	panic("npy: unreachable")
}

// Read decodes a .npy stream holding elements of exactly type T. A
// stream with a different dtype yields a bad array; use ReadAsFloat64
// for dtype converting reads. One dimensional streams load as a single
// row.
func Read[T Element](r io.Reader) *Array[T] {
	descr, rows, cols, raw, err := readRaw(r)
	if err != nil {
		return errorArray[T]("%s", err)
	}
	if want := dtypeOf[T](); descr != want {
		return errorArray[T]("dtype mismatch: file holds %s, want %s", descr, want)
	}
	return FromSlice(rows, cols, decodeElems[T](raw, rows*cols))
}

// ReadFile decodes the named .npy file with elements of exactly type T.
func ReadFile[T Element](path string) *Array[T] {
	f, err := os.Open(path)
	if err != nil {
		return errorArray[T]("%s", err)
	}
	defer f.Close()

	a := Read[T](f)
	if !a.Good() {
		return errorArray[T]("%s: %s", path, a.Error())
	}
	return a
}

// ReadAsFloat64 decodes a .npy stream of any supported dtype,
// converting each element to float64.
func ReadAsFloat64(r io.Reader) *Array[float64] {
	descr, rows, cols, raw, err := readRaw(r)
	if err != nil {
		return errorArray[float64]("%s", err)
	}

	n := rows * cols
	out := make([]float64, n)
	switch descr {
	case "|u1":
		for i := 0; i < n; i++ {
			out[i] = float64(raw[i])
		}
	case "|i1":
		for i := 0; i < n; i++ {
			out[i] = float64(int8(raw[i]))
		}
	case "<u2":
		for i := 0; i < n; i++ {
			out[i] = float64(binary.LittleEndian.Uint16(raw[2*i:]))
		}
	case "<i2":
		for i := 0; i < n; i++ {
			out[i] = float64(int16(binary.LittleEndian.Uint16(raw[2*i:])))
		}
	case "<u4":
		for i := 0; i < n; i++ {
			out[i] = float64(binary.LittleEndian.Uint32(raw[4*i:]))
		}
	case "<i4":
		for i := 0; i < n; i++ {
			out[i] = float64(int32(binary.LittleEndian.Uint32(raw[4*i:])))
		}
	case "<u8":
		for i := 0; i < n; i++ {
			out[i] = float64(binary.LittleEndian.Uint64(raw[8*i:]))
		}
	case "<i8":
		for i := 0; i < n; i++ {
			out[i] = float64(int64(binary.LittleEndian.Uint64(raw[8*i:])))
		}
	case "<f4":
		for i := 0; i < n; i++ {
			out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:])))
		}
	case "<f8":
		for i := 0; i < n; i++ {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
		}
	default:
		return errorArray[float64]("unsupported dtype %q", descr)
	}
	return FromSlice(rows, cols, out)
}

// ReadFileAsFloat64 decodes the named .npy file, converting each
// element to float64.
func ReadFileAsFloat64(path string) *Array[float64] {
	f, err := os.Open(path)
	if err != nil {
		return errorArray[float64]("%s", err)
	}
	defer f.Close()

	a := ReadAsFloat64(f)
	if !a.Good() {
		return errorArray[float64]("%s: %s", path, a.Error())
	}
	return a
}

// Save encodes the array as a version 1.0 .npy stream.
func (a *Array[T]) Save(w io.Writer) error {
	if !a.Good() {
		return fmt.Errorf("cannot save bad array: %s", a.err)
	}

	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%d, %d), }",
		dtypeOf[T](), a.rows, a.cols)
	// Pad the header so the data section starts 64 byte aligned.
	if r := (len(npyMagic) + 4 + len(header) + 1) % 64; r != 0 {
		header += strings.Repeat(" ", 64-r)
	}

	buf := make([]byte, 0, len(npyMagic)+4+len(header)+1+len(a.data)*dtypeSizes[dtypeOf[T]()])
	buf = append(buf, npyMagic...)
	buf = append(buf, 1, 0)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(header)+1))
	buf = append(buf, header...)
	buf = append(buf, '\n')
	buf = appendElems(buf, a.data)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write array: %w", err)
	}
	return nil
}

// SaveToFile encodes the array into the named file.
func (a *Array[T]) SaveToFile(path string) error {
	var buf bytes.Buffer
	if err := a.Save(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func readRaw(r io.Reader) (string, int, int, []byte, error) {
	var preamble [8]byte
	if _, err := io.ReadFull(r, preamble[:]); err != nil {
		return "", 0, 0, nil, fmt.Errorf("failed to read preamble: %w", err)
	}
	if !bytes.Equal(preamble[:6], npyMagic) {
		return "", 0, 0, nil, fmt.Errorf("not a NumPy file")
	}

	major, minor := preamble[6], preamble[7]
	var headerLen int
	switch major {
	case 1:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return "", 0, 0, nil, fmt.Errorf("failed to read header length: %w", err)
		}
		headerLen = int(binary.LittleEndian.Uint16(b[:]))
	case 2:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return "", 0, 0, nil, fmt.Errorf("failed to read header length: %w", err)
		}
		headerLen = int(binary.LittleEndian.Uint32(b[:]))
	default:
		return "", 0, 0, nil, fmt.Errorf("unsupported format version %d.%d", major, minor)
	}

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return "", 0, 0, nil, fmt.Errorf("failed to read header: %w", err)
	}

	descr, fortran, rows, cols, err := parseHeader(string(header))
	if err != nil {
		return "", 0, 0, nil, err
	}
	if fortran {
		return "", 0, 0, nil, fmt.Errorf("fortran order arrays are not supported")
	}
	size, ok := dtypeSizes[descr]
	if !ok {
		return "", 0, 0, nil, fmt.Errorf("unsupported dtype %q", descr)
	}

	data := make([]byte, rows*cols*size)
	if _, err := io.ReadFull(r, data); err != nil {
		return "", 0, 0, nil, fmt.Errorf("truncated data section: %w", err)
	}
	return descr, rows, cols, data, nil
}

func parseHeader(header string) (string, bool, int, int, error) {
	descr, err := quotedField(header, "descr")
	if err != nil {
		return "", false, 0, 0, err
	}

	order, err := bareField(header, "fortran_order")
	if err != nil {
		return "", false, 0, 0, err
	}
	var fortran bool
	switch order {
	case "True":
		fortran = true
	case "False":
		fortran = false
	default:
		return "", false, 0, 0, fmt.Errorf("bad fortran_order value %q", order)
	}

	shape, err := parenField(header, "shape")
	if err != nil {
		return "", false, 0, 0, err
	}
	rows, cols, err := parseShape(shape)
	if err != nil {
		return "", false, 0, 0, err
	}
	return descr, fortran, rows, cols, nil
}

func fieldAfter(header, name string) (string, error) {
	key := "'" + name + "':"
	i := strings.Index(header, key)
	if i < 0 {
		return "", fmt.Errorf("header misses field %s", name)
	}
	return strings.TrimLeft(header[i+len(key):], " "), nil
}

func quotedField(header, name string) (string, error) {
	rest, err := fieldAfter(header, name)
	if err != nil {
		return "", err
	}
	if len(rest) == 0 || rest[0] != '\'' {
		return "", fmt.Errorf("header field %s is not quoted", name)
	}
	end := strings.IndexByte(rest[1:], '\'')
	if end < 0 {
		return "", fmt.Errorf("header field %s is not terminated", name)
	}
	return rest[1 : 1+end], nil
}

func bareField(header, name string) (string, error) {
	rest, err := fieldAfter(header, name)
	if err != nil {
		return "", err
	}
	end := strings.IndexAny(rest, ",}")
	if end < 0 {
		end = len(rest)
	}
	return strings.TrimSpace(rest[:end]), nil
}

func parenField(header, name string) (string, error) {
	rest, err := fieldAfter(header, name)
	if err != nil {
		return "", err
	}
	if len(rest) == 0 || rest[0] != '(' {
		return "", fmt.Errorf("header field %s is not a tuple", name)
	}
	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return "", fmt.Errorf("header field %s is not terminated", name)
	}
	return rest[1:end], nil
}

func parseShape(shape string) (int, int, error) {
	var dims []int
	for _, part := range strings.Split(shape, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil || d < 0 {
			return 0, 0, fmt.Errorf("bad shape dimension %q", part)
		}
		dims = append(dims, d)
	}
	switch len(dims) {
	case 1:
		return 1, dims[0], nil
	case 2:
		return dims[0], dims[1], nil
	default:
		return 0, 0, fmt.Errorf("unsupported %d dimensional shape", len(dims))
	}
}

func decodeElems[T Element](raw []byte, n int) []T {
	out := make([]T, n)
	switch data := any(out).(type) {
	case []uint8:
		copy(data, raw)
	case []int8:
		for i := range data {
			data[i] = int8(raw[i])
		}
	case []uint16:
		for i := range data {
			data[i] = binary.LittleEndian.Uint16(raw[2*i:])
		}
	case []int16:
		for i := range data {
			data[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
		}
	case []uint32:
		for i := range data {
			data[i] = binary.LittleEndian.Uint32(raw[4*i:])
		}
	case []int32:
		for i := range data {
			data[i] = int32(binary.LittleEndian.Uint32(raw[4*i:]))
		}
	case []uint64:
		for i := range data {
			data[i] = binary.LittleEndian.Uint64(raw[8*i:])
		}
	case []int64:
		for i := range data {
			data[i] = int64(binary.LittleEndian.Uint64(raw[8*i:]))
		}
	case []float32:
		for i := range data {
			data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
		}
	case []float64:
		for i := range data {
			data[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
		}
	}
	return out
}

func appendElems[T Element](buf []byte, data []T) []byte {
	switch data := any(data).(type) {
	case []uint8:
		buf = append(buf, data...)
	case []int8:
		for _, v := range data {
			buf = append(buf, byte(v))
		}
	case []uint16:
		for _, v := range data {
			buf = binary.LittleEndian.AppendUint16(buf, v)
		}
	case []int16:
		for _, v := range data {
			buf = binary.LittleEndian.AppendUint16(buf, uint16(v))
		}
	case []uint32:
		for _, v := range data {
			buf = binary.LittleEndian.AppendUint32(buf, v)
		}
	case []int32:
		for _, v := range data {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(v))
		}
	case []uint64:
		for _, v := range data {
			buf = binary.LittleEndian.AppendUint64(buf, v)
		}
	case []int64:
		for _, v := range data {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(v))
		}
	case []float32:
		for _, v := range data {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	case []float64:
		for _, v := range data {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		}
	}
	return buf
}
