package inference

import "fmt"

// TensorFormat is the memory layout of an engine tensor.
type TensorFormat int32

const (
	// FormatLinear is the default row-major layout.
	FormatLinear TensorFormat = iota
	// FormatCHW2 packs channels in pairs (vectorized half precision).
	FormatCHW2
	// FormatHWC8 is channel-last with channels padded to a multiple of 8.
	FormatHWC8
	// FormatCHW4 packs channels in groups of 4 (vectorized int8).
	FormatCHW4
	// FormatCHW16 packs channels in groups of 16.
	FormatCHW16
	// FormatCHW32 packs channels in groups of 32.
	FormatCHW32
)

var formatNames = map[TensorFormat]string{
	FormatLinear: "LINEAR",
	FormatCHW2:   "CHW2",
	FormatHWC8:   "HWC8",
	FormatCHW4:   "CHW4",
	FormatCHW16:  "CHW16",
	FormatCHW32:  "CHW32",
}

// String implements fmt.Stringer.
func (f TensorFormat) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("TensorFormat(%d)", int32(f))
}
