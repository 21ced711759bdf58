package combinednms

import (
	"encoding/binary"
	"fmt"

	"github.com/gomlx/exceptions"

	"github.com/nvr-ai/go-combinednms/inference"
)

// Parameters is the complete configuration handed to the suppression kernel.
//
// The struct is persisted field by field, in declaration order, as a fixed-size little-endian
// image (see MarshalBinary). Reordering, resizing, adding or removing a field breaks every
// previously serialized plan.
type Parameters struct {
	// IoUThreshold is the overlap above which the lower scoring box is suppressed.
	IoUThreshold float32 `json:"iou_threshold" yaml:"iou_threshold"`
	// ScoreThreshold discards candidates scoring below it.
	ScoreThreshold float32 `json:"score_threshold" yaml:"score_threshold"`
	// NumOutputBoxes is the number of surviving boxes per sample.
	NumOutputBoxes int32 `json:"num_output_boxes" yaml:"num_output_boxes"`
	// NumOutputBoxesPerClass caps the boxes kept per class; 0 or negative means no cap.
	NumOutputBoxesPerClass int32 `json:"num_output_boxes_per_class" yaml:"num_output_boxes_per_class"`
	// PadOutputBoxesPerClass shrinks NumOutputBoxes to NumOutputBoxesPerClass*NumClasses
	// whenever that product is smaller.
	PadOutputBoxesPerClass bool  `json:"pad_output_boxes_per_class" yaml:"pad_output_boxes_per_class"`
	BackgroundClass        int32 `json:"background_class" yaml:"background_class"`
	ScoreSigmoid           bool  `json:"score_sigmoid" yaml:"score_sigmoid"`
	ClipBoxes              bool  `json:"clip_boxes" yaml:"clip_boxes"`
	BoxCoding              int32 `json:"box_coding" yaml:"box_coding"`
	ClassAgnostic          bool  `json:"class_agnostic" yaml:"class_agnostic"`
	NumSelectedBoxes       int32 `json:"num_selected_boxes" yaml:"num_selected_boxes"`
	// ScoreBits is the score quantization width; -1 disables quantization.
	ScoreBits         int32 `json:"score_bits" yaml:"score_bits"`
	OutputONNXIndices bool  `json:"output_onnx_indices" yaml:"output_onnx_indices"`

	// The fields below are derived from the input descriptors by ConfigurePlugin, and BatchSize
	// by every Enqueue.

	BatchSize        int32              `json:"batch_size" yaml:"batch_size"`
	NumClasses       int32              `json:"num_classes" yaml:"num_classes"`
	NumBoxElements   int32              `json:"num_box_elements" yaml:"num_box_elements"`
	NumScoreElements int32              `json:"num_score_elements" yaml:"num_score_elements"`
	NumAnchors       int32              `json:"num_anchors" yaml:"num_anchors"`
	ShareLocation    bool               `json:"share_location" yaml:"share_location"`
	ShareAnchors     bool               `json:"share_anchors" yaml:"share_anchors"`
	BoxDecoder       bool               `json:"box_decoder" yaml:"box_decoder"`
	DataType         inference.DataType `json:"data_type" yaml:"data_type"`
}

// ParametersSize is the length in bytes of a serialized Parameters image.
const ParametersSize = 64

// DefaultParameters returns the parameters an operator starts from before any attribute is
// applied.
func DefaultParameters() Parameters {
	return Parameters{
		IoUThreshold:           0.5,
		ScoreThreshold:         0.5,
		NumOutputBoxes:         100,
		NumOutputBoxesPerClass: -1,
		BackgroundClass:        -1,
		NumSelectedBoxes:       4096,
		ScoreBits:              -1,
		BatchSize:              -1,
		NumClasses:             1,
		NumBoxElements:         -1,
		NumScoreElements:       -1,
		NumAnchors:             -1,
		ShareLocation:          true,
		ShareAnchors:           true,
		DataType:               inference.DataTypeFloat,
	}
}

// ClampOutputBoxes applies the per-class padding rule: when padding is requested and a
// per-class cap is set, NumOutputBoxes is lowered to NumOutputBoxesPerClass*numClasses if
// that is smaller. It never raises NumOutputBoxes, so applying it again is a no-op. A dynamic
// (negative) class count leaves it unchanged.
//
// Returns:
//   - bool: Whether NumOutputBoxes changed.
func (p *Parameters) ClampOutputBoxes(numClasses int32) bool {
	if !p.PadOutputBoxesPerClass || p.NumOutputBoxesPerClass <= 0 || numClasses < 0 {
		return false
	}
	limit := int64(p.NumOutputBoxesPerClass) * int64(numClasses)
	if limit < int64(p.NumOutputBoxes) {
		p.NumOutputBoxes = int32(limit)
		return true
	}
	return false
}

// MarshalBinary implements encoding.BinaryMarshaler, returning the ParametersSize bytes image.
func (p Parameters) MarshalBinary() ([]byte, error) {
	buf := make([]byte, ParametersSize)
	if _, err := binary.Encode(buf, binary.LittleEndian, &p); err != nil {
		return nil, err
	}
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. The image must be exactly
// ParametersSize bytes long.
func (p *Parameters) UnmarshalBinary(data []byte) error {
	if len(data) != ParametersSize {
		return &SizeError{Got: len(data)}
	}
	_, err := binary.Decode(data, binary.LittleEndian, p)
	return err
}

// writeTo serializes p into buf, panicking if buf is not exactly ParametersSize long.
func (p Parameters) writeTo(buf []byte) {
	if len(buf) != ParametersSize {
		exceptions.Panicf("combinednms: serialization buffer holds %d bytes, want exactly %d", len(buf), ParametersSize)
	}
	n, err := binary.Encode(buf, binary.LittleEndian, &p)
	if err != nil || n != ParametersSize {
		exceptions.Panicf("combinednms: wrote %d of %d parameter bytes: %v", n, ParametersSize, err)
	}
}

// readParameters deserializes an image, panicking if it is malformed.
func readParameters(data []byte) Parameters {
	var p Parameters
	if err := p.UnmarshalBinary(data); err != nil {
		exceptions.Panicf("combinednms: cannot deserialize parameters: %v", err)
	}
	return p
}

// SizeError reports a serialized image whose length is not ParametersSize.
type SizeError struct {
	Got int
}

// Error implements error.
func (e *SizeError) Error() string {
	return fmt.Sprintf("serialized parameters must be exactly %d bytes, got %d", ParametersSize, e.Got)
}
