// Package inference - Element types and precisions of engine tensors.
package inference

import (
	"fmt"

	"github.com/gomlx/gopjrt/dtypes"
)

// Precision represents the precision of a tensor, as operators and tooling print it.
type Precision string

// Precision constants are the supported precisions for inference.
const (
	PrecisionINT8  Precision = "INT8"
	PrecisionINT32 Precision = "INT32"
	PrecisionBOOL  Precision = "BOOL"
	PrecisionFP16  Precision = "FP16"
	PrecisionFP32  Precision = "FP32"
)

// DataType is the element type of an engine tensor.
//
// The numbering is the engine's own and it is persisted inside serialized plans, so existing
// values must never be renumbered.
type DataType int32

const (
	// DataTypeFloat is 32-bit IEEE floating point.
	DataTypeFloat DataType = 0
	// DataTypeHalf is 16-bit IEEE floating point.
	DataTypeHalf DataType = 1
	// DataTypeInt8 is signed 8-bit integer (quantized).
	DataTypeInt8 DataType = 2
	// DataTypeInt32 is signed 32-bit integer.
	DataTypeInt32 DataType = 3
	// DataTypeBool is an 8-bit boolean.
	DataTypeBool DataType = 4
)

var dataTypeDTypes = map[DataType]dtypes.DType{
	DataTypeFloat: dtypes.Float32,
	DataTypeHalf:  dtypes.Float16,
	DataTypeInt8:  dtypes.Int8,
	DataTypeInt32: dtypes.Int32,
	DataTypeBool:  dtypes.Bool,
}

var dataTypePrecisions = map[DataType]Precision{
	DataTypeFloat: PrecisionFP32,
	DataTypeHalf:  PrecisionFP16,
	DataTypeInt8:  PrecisionINT8,
	DataTypeInt32: PrecisionINT32,
	DataTypeBool:  PrecisionBOOL,
}

// DType returns the portable dtype for the engine data type, or dtypes.InvalidDType if the
// value is not one of the known data types.
func (t DataType) DType() dtypes.DType {
	if dt, ok := dataTypeDTypes[t]; ok {
		return dt
	}
	return dtypes.InvalidDType
}

// Valid reports whether t is one of the known data types.
func (t DataType) Valid() bool {
	_, ok := dataTypeDTypes[t]
	return ok
}

// Size returns the number of bytes of one element, or 0 for unknown data types.
func (t DataType) Size() int {
	if !t.Valid() {
		return 0
	}
	return int(t.DType().Memory())
}

// IsFloat reports whether t is a floating point type (Float or Half).
func (t DataType) IsFloat() bool {
	return t.Valid() && t.DType().IsFloat()
}

// Precision returns the precision name of the data type.
func (t DataType) Precision() Precision {
	return dataTypePrecisions[t]
}

// String implements fmt.Stringer.
func (t DataType) String() string {
	if p, ok := dataTypePrecisions[t]; ok {
		return string(p)
	}
	return fmt.Sprintf("DataType(%d)", int32(t))
}

// DataTypeFromPrecision maps a precision name back to its data type.
//
// Arguments:
//   - p: The precision name, e.g. "FP16".
//
// Returns:
//   - DataType: The matching data type.
//   - error: An error if no data type has that precision.
func DataTypeFromPrecision(p Precision) (DataType, error) {
	for t, candidate := range dataTypePrecisions {
		if candidate == p {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unsupported precision: %s", p)
}

// MarshalText implements encoding.TextMarshaler.
func (t DataType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("cannot marshal unknown data type %d", int32(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *DataType) UnmarshalText(text []byte) error {
	parsed, err := DataTypeFromPrecision(Precision(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
