package combinednms

import "github.com/nvr-ai/go-combinednms/inference"

// kernelCall is one recorded Kernel.Inference invocation.
type kernelCall struct {
	params    Parameters
	inputs    KernelInputs
	outputs   KernelOutputs
	workspace inference.DevicePtr
	stream    inference.Stream
}

// workspaceQuery is one recorded Kernel.WorkspaceSize invocation.
type workspaceQuery struct {
	batchSize, numScoreElements, numClasses int32
	dataType                                inference.DataType
}

// recordingKernel stands in for the numeric kernel and records how it is called.
type recordingKernel struct {
	status        int32
	workspaceSize int
	calls         []kernelCall
	queries       []workspaceQuery
}

func (k *recordingKernel) WorkspaceSize(batchSize, numScoreElements, numClasses int32, dataType inference.DataType) int {
	k.queries = append(k.queries, workspaceQuery{batchSize, numScoreElements, numClasses, dataType})
	return k.workspaceSize
}

func (k *recordingKernel) Inference(
	params Parameters,
	inputs KernelInputs,
	outputs KernelOutputs,
	workspace inference.DevicePtr,
	stream inference.Stream,
) int32 {
	k.calls = append(k.calls, kernelCall{params, inputs, outputs, workspace, stream})
	return k.status
}

// nmsOutputs returns linear descriptors for the four outputs.
func nmsOutputs(t inference.DataType, batch ...int) []inference.TensorDesc {
	with := func(extents ...int) []int { return append(append([]int{}, batch...), extents...) }
	return []inference.TensorDesc{
		inference.LinearDesc(inference.DataTypeInt32, with()...),
		inference.LinearDesc(t, with(100, 4)...),
		inference.LinearDesc(t, with(100)...),
		inference.LinearDesc(inference.DataTypeInt32, with(100)...),
	}
}

// nmsInputs returns linear boxes and scores descriptors.
func nmsInputs(t inference.DataType, boxes, scores inference.Dims) []inference.TensorDesc {
	return []inference.TensorDesc{
		{Dims: boxes, Type: t, Format: inference.FormatLinear, Scale: 1},
		{Dims: scores, Type: t, Format: inference.FormatLinear, Scale: 1},
	}
}

// scenarioFields is the attribute set of a typical SSD-style post-processing layer.
func scenarioFields(perClass int32) inference.FieldCollection {
	return inference.FieldCollection{
		inference.Int32Field(FieldMaxTotalSize, 100),
		inference.Int32Field(FieldMaxOutputSizePerClass, perClass),
		inference.Int32Field(FieldPadPerClass, 1),
		inference.Float32Field(FieldIoUThreshold, 0.5),
		inference.Float32Field(FieldScoreThreshold, 0.0),
		inference.Int32Field(FieldClipBoxes, 1),
	}
}
