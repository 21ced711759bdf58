// Package providers - Operator descriptors derived from ONNX detector models.
package providers

import (
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
	"k8s.io/klog/v2"

	"github.com/nvr-ai/go-combinednms/inference"
)

var onnxDataTypes = map[ort.TensorElementDataType]inference.DataType{
	ort.TensorElementDataTypeFloat:   inference.DataTypeFloat,
	ort.TensorElementDataTypeFloat16: inference.DataTypeHalf,
	ort.TensorElementDataTypeInt8:    inference.DataTypeInt8,
	ort.TensorElementDataTypeInt32:   inference.DataTypeInt32,
	ort.TensorElementDataTypeBool:    inference.DataTypeBool,
}

// DataTypeFromONNX maps an ONNX element type onto the engine data type.
//
// Arguments:
//   - t: The ONNX tensor element type.
//
// Returns:
//   - inference.DataType: The engine data type.
//   - error: An error if the engine has no such data type (e.g. float64 or int64).
func DataTypeFromONNX(t ort.TensorElementDataType) (inference.DataType, error) {
	if dt, ok := onnxDataTypes[t]; ok {
		return dt, nil
	}
	return 0, errors.Errorf("unsupported ONNX element type %v", t)
}

// TensorDescFromInfo builds the linear descriptor of a model input or output.
//
// Arguments:
//   - info: The tensor metadata read from the model.
//   - dropBatch: Whether to drop the leading batch axis, for implicit batch operators.
//
// Returns:
//   - inference.TensorDesc: The descriptor. A dynamic batch axis that is kept stays DynamicDim.
//   - error: An error if info is not a tensor, has an unsupported element type or a dynamic
//     axis other than the batch axis.
func TensorDescFromInfo(info ort.InputOutputInfo, dropBatch bool) (inference.TensorDesc, error) {
	if info.OrtValueType != ort.ONNXTypeTensor {
		return inference.TensorDesc{}, errors.Errorf("%q is not a tensor", info.Name)
	}
	dt, err := DataTypeFromONNX(info.DataType)
	if err != nil {
		return inference.TensorDesc{}, errors.WithMessagef(err, "tensor %q", info.Name)
	}
	shape := info.Dimensions
	if dropBatch {
		if len(shape) == 0 {
			return inference.TensorDesc{}, errors.Errorf("tensor %q has no batch axis", info.Name)
		}
		shape = shape[1:]
	}
	if len(shape) > inference.MaxDims {
		return inference.TensorDesc{}, errors.Errorf("tensor %q has rank %d, above %d", info.Name, len(shape), inference.MaxDims)
	}

	dims := make(inference.Dims, len(shape))
	for i, extent := range shape {
		if extent < 0 {
			if dropBatch || i > 0 {
				return inference.TensorDesc{}, errors.Errorf("tensor %q has dynamic axis %d in %v", info.Name, i, info.Dimensions)
			}
			dims[i] = inference.DynamicDim
			continue
		}
		dims[i] = int(extent)
	}
	return inference.LinearDesc(dt, dims...), nil
}

// LoadOutputDescs reads the descriptors of named graph outputs of an ONNX model, typically the
// boxes and scores heads of a detector that feed combined NMS.
//
// The onnxruntime environment is initialized from GetSharedLibPath if needed and torn down
// again afterwards.
//
// Arguments:
//   - modelPath: The path to the ONNX model file.
//   - dropBatch: Whether to drop the leading batch axis.
//   - names: The graph outputs, in the order the descriptors are returned.
//
// Returns:
//   - []inference.TensorDesc: One descriptor per name.
//   - error: An error if the model cannot be read or an output is missing or unsupported.
func LoadOutputDescs(modelPath string, dropBatch bool, names ...string) ([]inference.TensorDesc, error) {
	if !ort.IsInitialized() {
		ort.SetSharedLibraryPath(GetSharedLibPath())
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, errors.Wrap(err, "initializing onnxruntime environment")
		}
		defer func() {
			if err := ort.DestroyEnvironment(); err != nil {
				klog.Warningf("destroying onnxruntime environment: %v", err)
			}
		}()
	}

	_, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading tensor info of %q", modelPath)
	}
	return selectDescs(outputs, dropBatch, names)
}

func selectDescs(infos []ort.InputOutputInfo, dropBatch bool, names []string) ([]inference.TensorDesc, error) {
	byName := make(map[string]ort.InputOutputInfo, len(infos))
	for _, info := range infos {
		byName[info.Name] = info
	}
	descs := make([]inference.TensorDesc, 0, len(names))
	for _, name := range names {
		info, found := byName[name]
		if !found {
			return nil, errors.Errorf("model has no output %q", name)
		}
		desc, err := TensorDescFromInfo(info, dropBatch)
		if err != nil {
			return nil, err
		}
		klog.V(1).Infof("output %q: %s", name, desc)
		descs = append(descs, desc)
	}
	return descs, nil
}
