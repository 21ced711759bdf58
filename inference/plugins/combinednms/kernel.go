package combinednms

import "github.com/nvr-ai/go-combinednms/inference"

// Kernel is the numeric suppression routine the operator delegates to. Any implementation
// honoring these signatures may be plugged in.
type Kernel interface {
	// WorkspaceSize returns the scratch bytes Inference needs for the given problem.
	WorkspaceSize(batchSize, numScoreElements, numClasses int32, dataType inference.DataType) int
	// Inference enqueues the suppression of one batch onto stream and returns its status,
	// inference.StatusSuccess when the work was enqueued.
	Inference(
		params Parameters,
		inputs KernelInputs,
		outputs KernelOutputs,
		workspace inference.DevicePtr,
		stream inference.Stream,
	) int32
}

// KernelInputs are the input buffers of one invocation. Anchors is nil unless decoded anchors
// were supplied.
type KernelInputs struct {
	Boxes   inference.DevicePtr
	Scores  inference.DevicePtr
	Anchors inference.DevicePtr
}

// KernelOutputs are the output buffers of one invocation.
type KernelOutputs struct {
	NumDetections    inference.DevicePtr
	DetectionBoxes   inference.DevicePtr
	DetectionScores  inference.DevicePtr
	DetectionClasses inference.DevicePtr
}
