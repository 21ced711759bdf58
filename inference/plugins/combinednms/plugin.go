package combinednms

import (
	"math"

	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"

	"github.com/nvr-ai/go-combinednms/inference"
)

// Plugin is one live combined NMS operator in a compiled graph.
//
// A Plugin owns its Parameters exclusively. Shape queries (through the padding clamp),
// ConfigurePlugin and Enqueue mutate them, so the engine must not call those concurrently on
// the same instance. Clone returns a fully independent copy.
type Plugin struct {
	mode      Mode
	params    Parameters
	namespace string
	kernel    Kernel
}

var (
	_ inference.Plugin           = (*Plugin)(nil)
	_ inference.BatchBroadcaster = (*Plugin)(nil)
)

// NewPlugin returns an operator built from already populated parameters.
//
// Arguments:
//   - mode: The batch addressing of the operator.
//   - params: The operator parameters, copied.
//   - kernel: The suppression kernel Enqueue and WorkspaceSize delegate to. It may be nil for
//     operators that are only inspected or persisted.
//
// Returns:
//   - *Plugin: The new operator.
func NewPlugin(mode Mode, params Parameters, kernel Kernel) *Plugin {
	return &Plugin{mode: mode, params: params, kernel: kernel}
}

// NewPluginFromBytes rebuilds an operator from the image produced by Serialize. It panics if
// data is not exactly ParametersSize bytes long.
func NewPluginFromBytes(mode Mode, data []byte, kernel Kernel) *Plugin {
	return NewPlugin(mode, readParameters(data), kernel)
}

// Mode returns the batch addressing of the operator.
func (p *Plugin) Mode() Mode { return p.mode }

// Parameters returns a copy of the current parameters.
func (p *Plugin) Parameters() Parameters { return p.params }

// PluginType implements inference.Plugin.
func (p *Plugin) PluginType() string { return p.mode.PluginType() }

// PluginVersion implements inference.Plugin.
func (p *Plugin) PluginVersion() string { return PluginVersion }

// SetPluginNamespace implements inference.Plugin.
func (p *Plugin) SetPluginNamespace(namespace string) { p.namespace = namespace }

// PluginNamespace implements inference.Plugin.
func (p *Plugin) PluginNamespace() string { return p.namespace }

// NbOutputs implements inference.Plugin: num_detections, detection_boxes, detection_scores
// and detection_classes.
func (p *Plugin) NbOutputs() int { return numOutputs }

// Initialize implements inference.Plugin.
func (p *Plugin) Initialize() int32 { return inference.StatusSuccess }

// Terminate implements inference.Plugin.
func (p *Plugin) Terminate() {}

// Destroy implements inference.Plugin.
func (p *Plugin) Destroy() {}

// OutputDimensions implements inference.Plugin.
//
// Before answering it applies the per-class padding clamp using the class count of the scores
// input, so it may be called before ConfigurePlugin. The clamp only ever lowers
// NumOutputBoxes and later queries see the lowered value.
//
// Without the batch axis the outputs are num_detections [], detection_boxes [N 4],
// detection_scores [N] and detection_classes [N]; in ExplicitBatch mode every output gets the
// leading batch axis of the boxes input and num_detections becomes [B 1].
func (p *Plugin) OutputDimensions(outputIndex int, inputs []inference.Dims) inference.Dims {
	axes := p.mode.batchAxes()
	if len(inputs) <= InputScores {
		exceptions.Panicf("%s: output dims need the boxes and scores inputs, got %d inputs", p.PluginType(), len(inputs))
	}
	scores := inputs[InputScores]
	if scores.Rank() != 2+axes {
		exceptions.Panicf("%s: scores input must have rank %d, got %s", p.PluginType(), 2+axes, scores)
	}
	before := p.params.NumOutputBoxes
	if p.params.ClampOutputBoxes(p.narrow("class count", scores[axes+1])) {
		klog.V(1).Infof("%s: padded per class, output boxes lowered from %d to %d",
			p.PluginType(), before, p.params.NumOutputBoxes)
	}
	if outputIndex < 0 || outputIndex >= numOutputs {
		exceptions.Panicf("%s: output index %d out of range [0, %d)", p.PluginType(), outputIndex, numOutputs)
	}

	n := int(p.params.NumOutputBoxes)
	var dims inference.Dims
	switch outputIndex {
	case OutputNumDetections:
		dims = inference.Dims{}
	case OutputDetectionBoxes:
		dims = inference.Dims{n, 4}
	default:
		dims = inference.Dims{n}
	}
	if axes == 0 {
		return dims
	}

	boxes := inputs[InputBoxes]
	if boxes.Rank() < 1 {
		exceptions.Panicf("%s: boxes input has no batch axis", p.PluginType())
	}
	if outputIndex == OutputNumDetections {
		return inference.Dims{boxes[0], 1}
	}
	return append(inference.Dims{boxes[0]}, dims...)
}

// OutputDataType implements inference.Plugin: num_detections and detection_classes are Int32,
// the other outputs have the type of the boxes input.
func (p *Plugin) OutputDataType(index int, inputTypes []inference.DataType) inference.DataType {
	if index < 0 || index >= numOutputs {
		exceptions.Panicf("%s: output index %d out of range [0, %d)", p.PluginType(), index, numOutputs)
	}
	if index == OutputNumDetections || index == OutputDetectionClasses {
		return inference.DataTypeInt32
	}
	if len(inputTypes) == 0 {
		exceptions.Panicf("%s: output type %d needs the boxes input type", p.PluginType(), index)
	}
	return inputTypes[InputBoxes]
}

// SupportsFormatCombination implements inference.Plugin.
//
// Every slot must be linear. num_detections and detection_classes must be Int32; every other
// slot must be a float type (Float or Half) and match the type proposed for the boxes input. Only the boxes
// input type is compared against, since later slots may not be settled yet.
func (p *Plugin) SupportsFormatCombination(pos int, inOut []inference.TensorDesc, nbInputs, nbOutputs int) bool {
	if pos < 0 || pos >= len(inOut) {
		exceptions.Panicf("%s: format position %d out of range [0, %d)", p.PluginType(), pos, len(inOut))
	}
	if inOut[pos].Format != inference.FormatLinear {
		return false
	}
	p.checkArity(nbInputs, nbOutputs)
	if len(inOut) != nbInputs+nbOutputs {
		exceptions.Panicf("%s: %d descriptors for %d inputs and %d outputs", p.PluginType(), len(inOut), nbInputs, nbOutputs)
	}

	proposed := inOut[pos].Type
	var ok bool
	switch pos - nbInputs {
	case OutputNumDetections, OutputDetectionClasses:
		ok = proposed == inference.DataTypeInt32
	default:
		ok = proposed.IsFloat() && inOut[InputBoxes].Type == proposed
	}
	klog.V(2).Infof("%s: slot %d proposed %s: supported=%t", p.PluginType(), pos, inOut[pos], ok)
	return ok
}

// ConfigurePlugin implements inference.Plugin, deriving the tensor configuration of the
// parameters from the final input descriptors.
//
// Without the batch axis the scores input is [A C] or [A C 1] and the boxes input is [A 4]
// (boxes shared by all classes), [A 1 4] (shared) or [A C 4] (one box per class). In
// ExplicitBatch mode an optional third input holds decoded anchors, [1 A 4] or [B A 4].
func (p *Plugin) ConfigurePlugin(in []inference.TensorDesc, out []inference.TensorDesc) {
	p.checkArity(len(in), len(out))
	boxes := p.stripBatch("boxes", in[InputBoxes].Dims)
	scores := p.stripBatch("scores", in[InputScores].Dims)

	if !in[InputBoxes].Type.IsFloat() {
		exceptions.Panicf("%s: boxes input must be a float type, got %s", p.PluginType(), in[InputBoxes].Type)
	}
	p.params.DataType = in[InputBoxes].Type

	if !(scores.Rank() == 2 || (scores.Rank() == 3 && scores[2] == 1)) {
		exceptions.Panicf("%s: scores input must be [boxes classes] or [boxes classes 1], got %s",
			p.PluginType(), in[InputScores].Dims)
	}
	p.params.NumScoreElements = p.narrow("scores element count", scores.Volume())
	p.params.NumClasses = p.narrow("class count", scores[1])

	switch boxes.Rank() {
	case 2:
		if boxes[1] != 4 {
			exceptions.Panicf("%s: boxes input must end in 4 coordinates, got %s", p.PluginType(), in[InputBoxes].Dims)
		}
		p.params.ShareLocation = true
		p.params.NumBoxElements = p.narrow("boxes element count", boxes.Volume())
	case 3:
		p.params.ShareLocation = boxes[1] == 1
		if !p.params.ShareLocation && boxes[1] != int(p.params.NumClasses) {
			exceptions.Panicf("%s: boxes input has %d box sets for %d classes", p.PluginType(), boxes[1], p.params.NumClasses)
		}
		if boxes[2] != 4 {
			exceptions.Panicf("%s: boxes input must end in 4 coordinates, got %s", p.PluginType(), in[InputBoxes].Dims)
		}
		p.params.NumBoxElements = p.narrow("boxes element count", boxes.Volume())
	default:
		exceptions.Panicf("%s: boxes input must have rank 2 or 3 without the batch axis, got %s",
			p.PluginType(), in[InputBoxes].Dims)
	}
	p.params.NumAnchors = p.narrow("anchor count", boxes[0])

	if len(in) == 2 {
		p.params.BoxDecoder = false
		p.params.ShareAnchors = true
	} else {
		anchors := in[InputAnchors].Dims
		if anchors.Rank() != 3 || anchors[2] != 4 {
			exceptions.Panicf("%s: anchors input must be [1|batch anchors 4], got %s", p.PluginType(), anchors)
		}
		p.params.BoxDecoder = true
		p.params.ShareAnchors = anchors[0] == 1
	}

	klog.V(1).Infof("%s: configured %s boxes=%s scores=%s classes=%d anchors=%d shareLocation=%t outputBoxes=%d",
		p.PluginType(), p.params.DataType, in[InputBoxes].Dims, in[InputScores].Dims,
		p.params.NumClasses, p.params.NumAnchors, p.params.ShareLocation, p.params.NumOutputBoxes)
}

// WorkspaceSize implements inference.Plugin by asking the kernel.
func (p *Plugin) WorkspaceSize(maxBatchSize int) int {
	p.requireKernel()
	return p.kernel.WorkspaceSize(p.narrow("batch size", maxBatchSize),
		p.params.NumScoreElements, p.params.NumClasses, p.params.DataType)
}

// Enqueue implements inference.Plugin. It records batchSize in the parameters and hands them,
// with the buffers, to the kernel. The kernel status is returned unchanged.
//
// inputs are boxes, scores and, in ExplicitBatch mode only, optional decoded anchors. outputs
// are num_detections, detection_boxes, detection_scores and detection_classes.
func (p *Plugin) Enqueue(
	batchSize int,
	inputs, outputs []inference.DevicePtr,
	workspace inference.DevicePtr,
	stream inference.Stream,
) int32 {
	p.requireKernel()
	p.checkArity(len(inputs), len(outputs))
	p.params.BatchSize = p.narrow("batch size", batchSize)

	kernelInputs := KernelInputs{
		Boxes:  inputs[InputBoxes],
		Scores: inputs[InputScores],
	}
	if len(inputs) > InputAnchors {
		kernelInputs.Anchors = inputs[InputAnchors]
	}
	kernelOutputs := KernelOutputs{
		NumDetections:    outputs[OutputNumDetections],
		DetectionBoxes:   outputs[OutputDetectionBoxes],
		DetectionScores:  outputs[OutputDetectionScores],
		DetectionClasses: outputs[OutputDetectionClasses],
	}
	return p.kernel.Inference(p.params, kernelInputs, kernelOutputs, workspace, stream)
}

// SerializationSize implements inference.Plugin.
func (p *Plugin) SerializationSize() int { return ParametersSize }

// Serialize implements inference.Plugin. buf must be exactly SerializationSize bytes long.
func (p *Plugin) Serialize(buf []byte) { p.params.writeTo(buf) }

// Clone implements inference.Plugin.
func (p *Plugin) Clone() inference.Plugin {
	clone := NewPlugin(p.mode, p.params, p.kernel)
	clone.SetPluginNamespace(p.namespace)
	return clone
}

// SupportsBatchBroadcast implements inference.BatchBroadcaster. Only ExplicitBatch operators
// answer broadcast queries.
func (p *Plugin) SupportsBatchBroadcast() bool { return p.mode == ExplicitBatch }

// CanBroadcastInputAcrossBatch implements inference.BatchBroadcaster: any input may be
// broadcast.
func (p *Plugin) CanBroadcastInputAcrossBatch(inputIndex int) bool {
	p.requireBroadcast()
	return true
}

// IsOutputBroadcastAcrossBatch implements inference.BatchBroadcaster: every output is
// broadcastable.
func (p *Plugin) IsOutputBroadcastAcrossBatch(outputIndex int, inputIsBroadcast []bool) bool {
	p.requireBroadcast()
	return true
}

func (p *Plugin) requireBroadcast() {
	if !p.SupportsBatchBroadcast() {
		exceptions.Panicf("%s: %s batch operators do not answer broadcast queries", p.PluginType(), p.mode)
	}
}

func (p *Plugin) requireKernel() {
	if p.kernel == nil {
		exceptions.Panicf("%s: no suppression kernel attached", p.PluginType())
	}
}

// checkArity panics unless there are 2 inputs (3 allowed in ExplicitBatch mode) and 4 outputs.
func (p *Plugin) checkArity(nbInputs, nbOutputs int) {
	if nbInputs < 2 || nbInputs > p.mode.maxInputs() {
		exceptions.Panicf("%s: %s batch operators take 2 to %d inputs, got %d",
			p.PluginType(), p.mode, p.mode.maxInputs(), nbInputs)
	}
	if nbOutputs != numOutputs {
		exceptions.Panicf("%s: expected %d outputs, got %d", p.PluginType(), numOutputs, nbOutputs)
	}
}

// narrow converts a dim or element count to the int32 the parameters carry, panicking if it
// does not fit. DynamicDim passes through unchanged.
func (p *Plugin) narrow(what string, v int) int32 {
	if v < inference.DynamicDim || v > math.MaxInt32 {
		exceptions.Panicf("%s: %s %d does not fit in int32", p.PluginType(), what, v)
	}
	return int32(v)
}

// stripBatch drops the batch axis the mode adds.
func (p *Plugin) stripBatch(name string, dims inference.Dims) inference.Dims {
	axes := p.mode.batchAxes()
	if dims.Rank() < axes {
		exceptions.Panicf("%s: %s input %s has no batch axis", p.PluginType(), name, dims)
	}
	return dims[axes:]
}
