package inference

import "fmt"

// DevicePtr is the opaque address of a buffer owned by the engine. The zero value means the
// buffer is absent.
type DevicePtr uintptr

// IsNil reports whether the buffer is absent.
func (p DevicePtr) IsNil() bool { return p == 0 }

// Stream is the opaque token of the execution stream work is enqueued on. The zero value is the
// device's default stream.
type Stream uintptr

// TensorDesc describes one input or output slot of an operator: its dims, element type and
// memory layout. Scale is only meaningful for quantized (Int8) tensors.
type TensorDesc struct {
	Dims   Dims         `json:"dims"   yaml:"dims"`
	Type   DataType     `json:"type"   yaml:"type"`
	Format TensorFormat `json:"format" yaml:"format"`
	Scale  float32      `json:"scale"  yaml:"scale"`
}

// LinearDesc returns a row-major descriptor with the given type and dims.
func LinearDesc(t DataType, extents ...int) TensorDesc {
	return TensorDesc{Dims: MakeDims(extents...), Type: t, Format: FormatLinear, Scale: 1}
}

// String implements fmt.Stringer, e.g. "(FP32)[1000 4]/LINEAR".
func (d TensorDesc) String() string {
	return fmt.Sprintf("(%s)%s/%s", d.Type, d.Dims, d.Format)
}

// Bytes returns the size of a buffer holding the tensor, or DynamicDim if an axis is dynamic.
func (d TensorDesc) Bytes() int {
	volume := d.Dims.Volume()
	if volume < 0 {
		return DynamicDim
	}
	return volume * d.Type.Size()
}
