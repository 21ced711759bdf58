package combinednms

import (
	"fmt"
	"os"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-combinednms/inference"
)

// Config is the attribute set of a combined NMS operator as written in tooling and model
// conversion configuration files.
type Config struct {
	// MaxOutputSizePerClass caps the boxes kept per class; 0 or negative means no cap.
	MaxOutputSizePerClass int32 `json:"max_output_size_per_class" yaml:"max_output_size_per_class"`
	// MaxTotalSize is the number of boxes kept per sample.
	MaxTotalSize int32 `json:"max_total_size"            yaml:"max_total_size"`
	// IoUThreshold is the overlap above which boxes are suppressed.
	IoUThreshold float32 `json:"iou_threshold"             yaml:"iou_threshold"`
	// ScoreThreshold discards candidates scoring below it.
	ScoreThreshold float32 `json:"score_threshold"           yaml:"score_threshold"`
	// PadPerClass lowers MaxTotalSize to MaxOutputSizePerClass*classes when that is smaller.
	PadPerClass bool `json:"pad_per_class"             yaml:"pad_per_class"`
	// ClipBoxes clips the output boxes to [0, 1].
	ClipBoxes bool `json:"clip_boxes"                yaml:"clip_boxes"`
}

// DefaultConfig returns the attributes matching DefaultParameters.
//
// Returns:
//   - Config: Configuration with the operator defaults.
func DefaultConfig() Config {
	params := DefaultParameters()
	return Config{
		MaxOutputSizePerClass: params.NumOutputBoxesPerClass,
		MaxTotalSize:          params.NumOutputBoxes,
		IoUThreshold:          params.IoUThreshold,
		ScoreThreshold:        params.ScoreThreshold,
		PadPerClass:           params.PadOutputBoxesPerClass,
		ClipBoxes:             params.ClipBoxes,
	}
}

// LoadConfig reads a YAML (or JSON) attribute file. Attributes missing from the file keep
// their DefaultConfig value.
//
// Arguments:
//   - path: The path of the configuration file.
//
// Returns:
//   - *Config: The loaded and validated configuration.
//   - error: An error if the file cannot be read, parsed or fails validation.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading combined NMS config %q", path)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrapf(err, "parsing combined NMS config %q", path)
	}
	if err := config.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "combined NMS config %q", path)
	}
	return &config, nil
}

// Validate rejects thresholds that are not finite numbers and a non-positive total size.
// The operator itself accepts any value; this only catches configuration typos early.
//
// Returns:
//   - error: The first problem found, nil if none.
func (c Config) Validate() error {
	thresholds := []struct {
		name  string
		value float32
	}{
		{FieldIoUThreshold, c.IoUThreshold},
		{FieldScoreThreshold, c.ScoreThreshold},
	}
	for _, threshold := range thresholds {
		if math32.IsNaN(threshold.value) || math32.IsInf(threshold.value, 0) {
			return fmt.Errorf("%s must be a finite number, got %v", threshold.name, threshold.value)
		}
	}
	if c.MaxTotalSize <= 0 {
		return fmt.Errorf("%s must be positive, got %d", FieldMaxTotalSize, c.MaxTotalSize)
	}
	return nil
}

// Fields converts the configuration into the attribute collection creators consume, in the
// order Creator.FieldNames advertises them.
func (c Config) Fields() inference.FieldCollection {
	return inference.FieldCollection{
		inference.Int32Field(FieldMaxOutputSizePerClass, c.MaxOutputSizePerClass),
		inference.Int32Field(FieldMaxTotalSize, c.MaxTotalSize),
		inference.Float32Field(FieldIoUThreshold, c.IoUThreshold),
		inference.Float32Field(FieldScoreThreshold, c.ScoreThreshold),
		inference.BoolField(FieldPadPerClass, c.PadPerClass),
		inference.BoolField(FieldClipBoxes, c.ClipBoxes),
	}
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
