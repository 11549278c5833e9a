// Package npy implements two dimensional arrays backed by the NumPy
// .npy file format, the exchange format between the trace synthesis
// tools and the statistical distinguishers.
//
// Arrays carry an error status instead of returning errors from every
// accessor. Operations on an array that failed to load yield zero
// values, and the failure reason stays available:
//
//	a := npy.ReadFile[float64]("traces.npy")
//	if !a.Good() {
//		log.Fatalf("traces.npy: %s", a.Error())
//	}
//
// Out of range indices are programming errors and panic.
package npy

import (
	"fmt"
)

// Element enumerates the element types the .npy codec understands.
type Element interface {
	uint8 | int8 | uint16 | int16 | uint32 | int32 | uint64 | int64 | float32 | float64
}

// Array is a rows x cols matrix in row major order.
type Array[T Element] struct {
	rows int
	cols int
	data []T
	err  string
}

// New returns a zero filled rows x cols array.
func New[T Element](rows, cols int) *Array[T] {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("npy: invalid shape (%d, %d)", rows, cols))
	}
	return &Array[T]{
		rows: rows,
		cols: cols,
		data: make([]T, rows*cols),
	}
}

// FromSlice wraps data, in row major order, as a rows x cols array. The
// array takes ownership of the slice.
func FromSlice[T Element](rows, cols int, data []T) *Array[T] {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("npy: invalid shape (%d, %d)", rows, cols))
	}
	if len(data) != rows*cols {
		panic(fmt.Sprintf("npy: %d elements cannot fill a (%d, %d) array",
			len(data), rows, cols))
	}
	return &Array[T]{rows: rows, cols: cols, data: data}
}

func errorArray[T Element](format string, args ...interface{}) *Array[T] {
	return &Array[T]{err: fmt.Sprintf(format, args...)}
}

// Good reports whether the array is usable.
func (a *Array[T]) Good() bool { return a.err == "" }

// Error returns the failure reason for a bad array, or "".
func (a *Array[T]) Error() string { return a.err }

// Rows returns the number of rows.
func (a *Array[T]) Rows() int { return a.rows }

// Cols returns the number of columns.
func (a *Array[T]) Cols() int { return a.cols }

// Size returns the number of elements.
func (a *Array[T]) Size() int { return a.rows * a.cols }

// ElemSize returns the size of one element in bytes.
func (a *Array[T]) ElemSize() int { return dtypeSizes[dtypeOf[T]()] }

// At returns the element at row r, column c.
func (a *Array[T]) At(r, c int) T {
	return a.data[a.index(r, c)]
}

// Set stores v at row r, column c.
func (a *Array[T]) Set(r, c int, v T) {
	a.data[a.index(r, c)] = v
}

// Row returns row r as a slice sharing the array's storage.
func (a *Array[T]) Row(r int) []T {
	if r < 0 || r >= a.rows {
		panic(fmt.Sprintf("npy: row %d out of range for (%d, %d) array",
			r, a.rows, a.cols))
	}
	return a.data[r*a.cols : (r+1)*a.cols]
}

func (a *Array[T]) index(r, c int) int {
	if r < 0 || r >= a.rows || c < 0 || c >= a.cols {
		panic(fmt.Sprintf("npy: index (%d, %d) out of range for (%d, %d) array",
			r, c, a.rows, a.cols))
	}
	return r*a.cols + c
}

// Axis selects the direction of a concatenation.
type Axis int

const (
	// AxisRows stacks arrays vertically.
	AxisRows Axis = iota

	// AxisCols joins arrays side by side.
	AxisCols
)

// Concatenate joins a and b along the given axis. Shape mismatches and
// bad inputs yield a bad array.
func Concatenate[T Element](a, b *Array[T], axis Axis) *Array[T] {
	if !a.Good() {
		return errorArray[T]("%s", a.Error())
	}
	if !b.Good() {
		return errorArray[T]("%s", b.Error())
	}

	switch axis {
	case AxisRows:
		if a.cols != b.cols {
			return errorArray[T](
				"cannot stack (%d, %d) on (%d, %d): column counts differ",
				a.rows, a.cols, b.rows, b.cols)
		}
		out := New[T](a.rows+b.rows, a.cols)
		copy(out.data, a.data)
		copy(out.data[len(a.data):], b.data)
		return out

	case AxisCols:
		if a.rows != b.rows {
			return errorArray[T](
				"cannot join (%d, %d) with (%d, %d): row counts differ",
				a.rows, a.cols, b.rows, b.cols)
		}
		out := New[T](a.rows, a.cols+b.cols)
		for r := 0; r < a.rows; r++ {
			copy(out.Row(r), a.Row(r))
			copy(out.Row(r)[a.cols:], b.Row(r))
		}
		return out

	default:
		panic(fmt.Sprintf("npy: unknown axis %d", axis))
	}
}
