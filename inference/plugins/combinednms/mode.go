// Package combinednms provides the combined (batched, multi-class) Non-Maximum-Suppression
// operator for the inference engine: its output shape and type inference, legal format
// combinations, configuration from the final input descriptors, the persisted form of its
// parameters and the creators the engine builds it with.
//
// The suppression itself runs in an external Kernel.
package combinednms

import "fmt"

// Mode selects how the operator addresses the batch dimension.
type Mode int

const (
	// ExplicitBatch operators see the batch as the leading axis of every tensor. They accept an
	// optional third, decoded-anchors input and answer per-batch broadcast queries.
	ExplicitBatch Mode = iota
	// ImplicitBatch operators never see the batch axis in their dims and address every sample
	// separately.
	ImplicitBatch
)

const (
	// PluginVersion is the version of both operator kinds and their creators.
	PluginVersion = "1"

	// ExplicitPluginType is the operator kind of ExplicitBatch operators.
	ExplicitPluginType = "EfficientNMS_TRT"
	// ImplicitPluginType is the operator kind of ImplicitBatch operators.
	ImplicitPluginType = "EfficientNMS_Implicit_TRT"
	// ExplicitCreatorName is the name ExplicitBatch creators are registered under.
	ExplicitCreatorName = "CombinedNMS_Plugin"
	// ImplicitCreatorName is the name ImplicitBatch creators are registered under.
	ImplicitCreatorName = "CombinedNMS_Implicit_Plugin"
)

// Output slots.
const (
	OutputNumDetections = iota
	OutputDetectionBoxes
	OutputDetectionScores
	OutputDetectionClasses

	numOutputs = 4
)

// Input slots.
const (
	InputBoxes = iota
	InputScores
	InputAnchors
)

// PluginType returns the operator kind of the mode.
func (m Mode) PluginType() string {
	if m == ImplicitBatch {
		return ImplicitPluginType
	}
	return ExplicitPluginType
}

// CreatorName returns the name the mode's creator is registered under.
func (m Mode) CreatorName() string {
	if m == ImplicitBatch {
		return ImplicitCreatorName
	}
	return ExplicitCreatorName
}

// batchAxes is the number of leading axes the mode adds to every tensor.
func (m Mode) batchAxes() int {
	if m == ImplicitBatch {
		return 0
	}
	return 1
}

// maxInputs is the largest number of inputs the mode accepts; the minimum is always 2.
func (m Mode) maxInputs() int {
	if m == ImplicitBatch {
		return 2
	}
	return 3
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ExplicitBatch:
		return "explicit"
	case ImplicitBatch:
		return "implicit"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "explicit" or "implicit".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "explicit":
		return ExplicitBatch, nil
	case "implicit":
		return ImplicitBatch, nil
	default:
		return 0, fmt.Errorf("unknown batch mode %q, want explicit or implicit", s)
	}
}
