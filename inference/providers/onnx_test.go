package providers

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-combinednms/inference"
)

func tensorInfo(name string, dt ort.TensorElementDataType, dims ...int64) ort.InputOutputInfo {
	return ort.InputOutputInfo{
		Name:         name,
		OrtValueType: ort.ONNXTypeTensor,
		Dimensions:   ort.NewShape(dims...),
		DataType:     dt,
	}
}

func TestDataTypeFromONNX(t *testing.T) {
	tests := []struct {
		onnx ort.TensorElementDataType
		want inference.DataType
	}{
		{ort.TensorElementDataTypeFloat, inference.DataTypeFloat},
		{ort.TensorElementDataTypeFloat16, inference.DataTypeHalf},
		{ort.TensorElementDataTypeInt8, inference.DataTypeInt8},
		{ort.TensorElementDataTypeInt32, inference.DataTypeInt32},
		{ort.TensorElementDataTypeBool, inference.DataTypeBool},
	}
	for _, tt := range tests {
		got, err := DataTypeFromONNX(tt.onnx)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	for _, unsupported := range []ort.TensorElementDataType{
		ort.TensorElementDataTypeDouble, ort.TensorElementDataTypeInt64, ort.TensorElementDataTypeString,
	} {
		_, err := DataTypeFromONNX(unsupported)
		assert.Error(t, err)
	}
}

func TestTensorDescFromInfo(t *testing.T) {
	tests := []struct {
		name      string
		info      ort.InputOutputInfo
		dropBatch bool
		want      inference.TensorDesc
	}{
		{
			name: "explicit boxes",
			info: tensorInfo("boxes", ort.TensorElementDataTypeFloat, 8, 1000, 4),
			want: inference.LinearDesc(inference.DataTypeFloat, 8, 1000, 4),
		},
		{
			name:      "implicit scores",
			info:      tensorInfo("scores", ort.TensorElementDataTypeFloat16, 8, 1000, 90),
			dropBatch: true,
			want:      inference.LinearDesc(inference.DataTypeHalf, 1000, 90),
		},
		{
			name: "dynamic batch kept",
			info: tensorInfo("boxes", ort.TensorElementDataTypeFloat, -1, 1000, 4),
			want: inference.LinearDesc(inference.DataTypeFloat, inference.DynamicDim, 1000, 4),
		},
		{
			name:      "dynamic batch dropped",
			info:      tensorInfo("boxes", ort.TensorElementDataTypeFloat, -1, 1000, 1, 4),
			dropBatch: true,
			want:      inference.LinearDesc(inference.DataTypeFloat, 1000, 1, 4),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TensorDescFromInfo(tt.info, tt.dropBatch)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTensorDescFromInfoErrors(t *testing.T) {
	tests := []struct {
		name      string
		info      ort.InputOutputInfo
		dropBatch bool
		message   string
	}{
		{
			name:    "dynamic anchors",
			info:    tensorInfo("boxes", ort.TensorElementDataTypeFloat, 1, -1, 4),
			message: "dynamic axis 1",
		},
		{
			name:      "dynamic first axis after dropping batch",
			info:      tensorInfo("boxes", ort.TensorElementDataTypeFloat, 1, -1, 4),
			dropBatch: true,
			message:   "dynamic axis 0",
		},
		{
			name:    "int64 element type",
			info:    tensorInfo("classes", ort.TensorElementDataTypeInt64, 1, 100),
			message: `tensor "classes"`,
		},
		{
			name:      "scalar without batch",
			info:      tensorInfo("count", ort.TensorElementDataTypeInt32),
			dropBatch: true,
			message:   "no batch axis",
		},
		{
			name: "sequence",
			info: ort.InputOutputInfo{
				Name: "detections", OrtValueType: ort.ONNXTypeSequence, DataType: ort.TensorElementDataTypeFloat,
			},
			message: "not a tensor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TensorDescFromInfo(tt.info, tt.dropBatch)
			assert.ErrorContains(t, err, tt.message)
		})
	}
}

func TestSelectDescs(t *testing.T) {
	infos := []ort.InputOutputInfo{
		tensorInfo("scores", ort.TensorElementDataTypeFloat, 1, 1000, 90),
		tensorInfo("boxes", ort.TensorElementDataTypeFloat, 1, 1000, 4),
	}

	descs, err := selectDescs(infos, true, []string{"boxes", "scores"})
	require.NoError(t, err)
	assert.Equal(t, []inference.TensorDesc{
		inference.LinearDesc(inference.DataTypeFloat, 1000, 4),
		inference.LinearDesc(inference.DataTypeFloat, 1000, 90),
	}, descs)

	_, err = selectDescs(infos, true, []string{"boxes", "anchors"})
	assert.ErrorContains(t, err, `model has no output "anchors"`)
}

// TestLoadOutputDescs needs the onnxruntime shared library and a detector model exporting
// "boxes" and "scores" outputs.
func TestLoadOutputDescs(t *testing.T) {
	modelPath := os.Getenv("NMSPLAN_TEST_MODEL")
	if modelPath == "" {
		t.Skip("NMSPLAN_TEST_MODEL not set")
	}

	descs, err := LoadOutputDescs(modelPath, false, "boxes", "scores")
	require.NoError(t, err)
	require.Len(t, descs, 2)
	assert.Equal(t, 4, descs[0].Dims[descs[0].Dims.Rank()-1])
	assert.Equal(t, descs[0].Type, descs[1].Type)
}
