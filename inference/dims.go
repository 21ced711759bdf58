// Package inference - Tensor dimensions exchanged with the engine.
package inference

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"gorgonia.org/tensor"
)

// MaxDims is the largest rank the engine can describe.
const MaxDims = 8

// DynamicDim marks an axis whose extent is only known at run time.
const DynamicDim = -1

// Dims is the ordered list of axis extents of a tensor. A rank 0 (empty) Dims is a scalar.
type Dims []int

// MakeDims returns a Dims holding a copy of the given extents.
func MakeDims(extents ...int) Dims {
	if extents == nil {
		return Dims{}
	}
	return Dims(slices.Clone(extents))
}

// Rank returns the number of axes.
func (d Dims) Rank() int { return len(d) }

// IsScalar reports whether d describes a scalar.
func (d Dims) IsScalar() bool { return len(d) == 0 }

// Volume returns the number of elements, or DynamicDim if any axis is dynamic. A scalar has
// one element.
func (d Dims) Volume() int {
	if slices.ContainsFunc(d, func(extent int) bool { return extent < 0 }) {
		return DynamicDim
	}
	return d.Shape().TotalSize()
}

// Shape converts d into a gorgonia tensor shape.
func (d Dims) Shape() tensor.Shape {
	return tensor.Shape(slices.Clone([]int(d)))
}

// String implements fmt.Stringer, e.g. "[1000 4]".
func (d Dims) String() string {
	parts := make([]string, len(d))
	for i, extent := range d {
		parts[i] = strconv.Itoa(extent)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// ParseDims parses a comma separated list of extents such as "1000,4". An empty string is a
// scalar and "-1" marks a dynamic axis.
//
// Arguments:
//   - s: The textual dims.
//
// Returns:
//   - Dims: The parsed dims.
//   - error: An error if an extent is not an integer, is below -1 or the rank exceeds MaxDims.
func ParseDims(s string) (Dims, error) {
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "[]"))
	if s == "" {
		return Dims{}, nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == 'x' || r == ' ' })
	if len(fields) > MaxDims {
		return nil, fmt.Errorf("dims %q: rank %d exceeds the maximum of %d", s, len(fields), MaxDims)
	}
	dims := make(Dims, 0, len(fields))
	for _, field := range fields {
		extent, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("dims %q: invalid extent %q: %w", s, field, err)
		}
		if extent < DynamicDim {
			return nil, fmt.Errorf("dims %q: negative extent %d", s, extent)
		}
		dims = append(dims, extent)
	}
	return dims, nil
}
