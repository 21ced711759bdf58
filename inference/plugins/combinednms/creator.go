package combinednms

import (
	"github.com/gomlx/exceptions"
	"k8s.io/klog/v2"

	"github.com/nvr-ai/go-combinednms/inference"
)

// Attribute names understood by Creator.CreatePlugin.
const (
	FieldMaxOutputSizePerClass = "max_output_size_per_class"
	FieldMaxTotalSize          = "max_total_size"
	FieldIoUThreshold          = "iou_threshold"
	FieldScoreThreshold        = "score_threshold"
	FieldPadPerClass           = "pad_per_class"
	FieldClipBoxes             = "clip_boxes"
)

// fieldNames is the advertised attribute list, in order.
var fieldNames = inference.FieldCollection{
	inference.DeclareField(FieldMaxOutputSizePerClass, inference.FieldTypeInt32),
	inference.DeclareField(FieldMaxTotalSize, inference.FieldTypeInt32),
	inference.DeclareField(FieldIoUThreshold, inference.FieldTypeFloat32),
	inference.DeclareField(FieldScoreThreshold, inference.FieldTypeFloat32),
	inference.DeclareField(FieldPadPerClass, inference.FieldTypeInt32),
	inference.DeclareField(FieldClipBoxes, inference.FieldTypeInt32),
}

// Creator builds combined NMS operators of one Mode.
type Creator struct {
	mode      Mode
	namespace string
	kernel    Kernel
}

var _ inference.Creator = (*Creator)(nil)

// NewCreator returns the creator of mode operators. Every operator it builds delegates to
// kernel; kernel may be nil when operators are only inspected or persisted.
func NewCreator(mode Mode, kernel Kernel) *Creator {
	return &Creator{mode: mode, kernel: kernel}
}

// Mode returns the batch addressing of the operators built.
func (c *Creator) Mode() Mode { return c.mode }

// PluginName implements inference.Creator.
func (c *Creator) PluginName() string { return c.mode.CreatorName() }

// PluginVersion implements inference.Creator.
func (c *Creator) PluginVersion() string { return PluginVersion }

// SetPluginNamespace implements inference.Creator. Operators built afterwards inherit it.
func (c *Creator) SetPluginNamespace(namespace string) { c.namespace = namespace }

// PluginNamespace implements inference.Creator.
func (c *Creator) PluginNamespace() string { return c.namespace }

// FieldNames implements inference.Creator. The returned collection is a copy.
func (c *Creator) FieldNames() inference.FieldCollection {
	return append(inference.FieldCollection(nil), fieldNames...)
}

// CreatePlugin implements inference.Creator.
//
// Each recognized attribute must carry exactly its declared type, otherwise CreatePlugin
// panics; unrecognized attributes are ignored. Score quantization is always disabled.
func (c *Creator) CreatePlugin(name string, fields inference.FieldCollection) inference.Plugin {
	return c.Create(name, fields)
}

// Create is CreatePlugin returning the concrete operator.
func (c *Creator) Create(name string, fields inference.FieldCollection) *Plugin {
	params := DefaultParameters()
	for _, field := range fields {
		switch field.Name {
		case FieldMaxOutputSizePerClass:
			params.NumOutputBoxesPerClass = int32Attr(name, field)
		case FieldMaxTotalSize:
			params.NumOutputBoxes = int32Attr(name, field)
		case FieldIoUThreshold:
			params.IoUThreshold = float32Attr(name, field)
		case FieldScoreThreshold:
			params.ScoreThreshold = float32Attr(name, field)
		case FieldPadPerClass:
			params.PadOutputBoxesPerClass = int32Attr(name, field) != 0
		case FieldClipBoxes:
			params.ClipBoxes = int32Attr(name, field) != 0
		default:
			klog.V(1).Infof("%s %q: ignoring unknown attribute %q, accepted are %v",
				c.PluginName(), name, field.Name, fieldNames.Names())
		}
	}
	params.ScoreBits = -1

	p := NewPlugin(c.mode, params, c.kernel)
	p.SetPluginNamespace(c.namespace)
	return p
}

// DeserializePlugin implements inference.Creator. It panics unless data is exactly
// ParametersSize bytes long.
func (c *Creator) DeserializePlugin(name string, data []byte) inference.Plugin {
	return c.Deserialize(name, data)
}

// Deserialize is DeserializePlugin returning the concrete operator.
func (c *Creator) Deserialize(name string, data []byte) *Plugin {
	p := NewPluginFromBytes(c.mode, data, c.kernel)
	p.SetPluginNamespace(c.namespace)
	klog.V(1).Infof("%s %q: restored from %d bytes", c.PluginName(), name, len(data))
	return p
}

func int32Attr(layer string, field inference.PluginField) int32 {
	checkFieldType(layer, field, inference.FieldTypeInt32)
	v, ok := field.Data.(int32)
	if !ok {
		exceptions.Panicf("combinednms %q: attribute %q declared int32 holds %T", layer, field.Name, field.Data)
	}
	return v
}

func float32Attr(layer string, field inference.PluginField) float32 {
	checkFieldType(layer, field, inference.FieldTypeFloat32)
	v, ok := field.Data.(float32)
	if !ok {
		exceptions.Panicf("combinednms %q: attribute %q declared float32 holds %T", layer, field.Name, field.Data)
	}
	return v
}

func checkFieldType(layer string, field inference.PluginField, want inference.FieldType) {
	if field.Type != want {
		exceptions.Panicf("combinednms %q: attribute %q must be %s, got %s", layer, field.Name, want, field.Type)
	}
}

// RegisterCreators registers the creators of both batch modes, sharing kernel.
//
// Arguments:
//   - registry: The registry to add the creators to.
//   - kernel: The suppression kernel, may be nil.
//
// Returns:
//   - error: An error if either creator is already registered.
func RegisterCreators(registry *inference.Registry, kernel Kernel) error {
	for _, mode := range []Mode{ExplicitBatch, ImplicitBatch} {
		if err := registry.Register(NewCreator(mode, kernel)); err != nil {
			return err
		}
	}
	return nil
}
