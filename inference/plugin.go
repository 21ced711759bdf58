// Package inference - Contract between the engine and the operators plugged into it.
package inference

// StatusSuccess is the status code returned by operators and kernels when no error occurred.
const StatusSuccess int32 = 0

// Plugin is an operator the engine does not know the semantics of. The engine queries it at
// graph build time for its outputs and legal formats, configures it once the input shapes are
// final, invokes it at run time and persists it inside serialized plans.
//
// Precondition violations (wrong ranks, unknown indices, malformed serialized images) are not
// recoverable: implementations panic, and the graph cannot be compiled.
type Plugin interface {
	// PluginType is the operator kind, matched against the creator that rebuilds it.
	PluginType() string
	PluginVersion() string
	SetPluginNamespace(namespace string)
	PluginNamespace() string

	// NbOutputs is the number of output tensors.
	NbOutputs() int
	// OutputDimensions returns the dims of output outputIndex given the input dims.
	OutputDimensions(outputIndex int, inputs []Dims) Dims
	// OutputDataType returns the element type of output index given the input types.
	OutputDataType(index int, inputTypes []DataType) DataType
	// SupportsFormatCombination reports whether slot pos (inputs first, then outputs) may use
	// the type and format proposed in inOut[pos]. Only slots before pos may be assumed fixed.
	SupportsFormatCombination(pos int, inOut []TensorDesc, nbInputs, nbOutputs int) bool
	// ConfigurePlugin is called once with the final input and output descriptors.
	ConfigurePlugin(in []TensorDesc, out []TensorDesc)

	Initialize() int32
	Terminate()
	// WorkspaceSize is the scratch memory, in bytes, needed to run a batch of maxBatchSize.
	WorkspaceSize(maxBatchSize int) int
	// Enqueue schedules the operator on stream and returns the enqueue status.
	Enqueue(batchSize int, inputs, outputs []DevicePtr, workspace DevicePtr, stream Stream) int32

	SerializationSize() int
	// Serialize writes exactly SerializationSize bytes into buf.
	Serialize(buf []byte)
	// Clone returns an independent copy, including any configured state.
	Clone() Plugin
	Destroy()
}

// BatchBroadcaster is implemented by operators that can answer per-batch broadcast queries.
// Callers must check SupportsBatchBroadcast before asking.
type BatchBroadcaster interface {
	SupportsBatchBroadcast() bool
	CanBroadcastInputAcrossBatch(inputIndex int) bool
	IsOutputBroadcastAcrossBatch(outputIndex int, inputIsBroadcast []bool) bool
}

// Creator builds operators of one kind, either from typed attributes or from the bytes a
// previous Plugin.Serialize produced.
type Creator interface {
	PluginName() string
	PluginVersion() string
	// FieldNames lists the attributes CreatePlugin understands.
	FieldNames() FieldCollection
	CreatePlugin(name string, fields FieldCollection) Plugin
	// DeserializePlugin rebuilds an operator. data is only borrowed for the duration of the call.
	DeserializePlugin(name string, data []byte) Plugin
	SetPluginNamespace(namespace string)
	PluginNamespace() string
}
