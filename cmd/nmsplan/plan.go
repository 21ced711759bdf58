package main

import (
	"fmt"
	"os"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"

	"github.com/nvr-ai/go-combinednms/inference"
	"github.com/nvr-ai/go-combinednms/inference/plugins/combinednms"
	"github.com/nvr-ai/go-combinednms/inference/providers"
)

// planOptions are the flags shared by the commands that build an operator.
type planOptions struct {
	mode       string
	configPath string
	out        string
	cuda       providers.CUDAOptions
}

func addPlanFlags(cmd *cobra.Command, opts *planOptions) {
	cmd.Flags().StringVar(&opts.mode, "mode", "explicit", "Batch addressing of the operator: explicit or implicit")
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "YAML attribute file; operator defaults when empty")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Write the serialized parameter image to this file")
	cmd.Flags().IntVar(&opts.cuda.DeviceID, "device", 0, "CUDA device the kernel is launched on")
	cmd.Flags().StringVar(&opts.cuda.UserComputeStream, "stream", "", "CUDA stream address the kernel is launched on")
}

// planSummary is the printed description of a configured operator.
type planSummary struct {
	Plugin      string                 `yaml:"plugin"`
	Creator     string                 `yaml:"creator"`
	Version     string                 `yaml:"version"`
	Device      int                    `yaml:"device"`
	Stream      string                 `yaml:"stream"`
	Inputs      []inference.TensorDesc `yaml:"inputs"`
	Outputs     []inference.TensorDesc `yaml:"outputs"`
	OutputBytes []int                  `yaml:"output_bytes"`
	Parameters  combinednms.Parameters `yaml:"parameters"`
	Image       []byte                 `yaml:"-"`
}

// buildPlan creates an operator through a registry, runs the shape, type and format queries the
// engine would issue for inputs, and configures it. The summary carries the buffer size of
// every output so a host can allocate them.
func buildPlan(opts planOptions, inputs []inference.TensorDesc) (*planSummary, error) {
	mode, err := combinednms.ParseMode(opts.mode)
	if err != nil {
		return nil, err
	}
	stream, err := opts.cuda.Stream()
	if err != nil {
		return nil, err
	}
	config := combinednms.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := combinednms.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
		config = *loaded
	}

	registry := inference.NewRegistry()
	if err := combinednms.RegisterCreators(registry, nil); err != nil {
		return nil, err
	}
	p, err := registry.CreatePlugin(mode.CreatorName(), combinednms.PluginVersion, "nms", config.Fields())
	if err != nil {
		return nil, err
	}

	var outputs []inference.TensorDesc
	err = exceptions.TryCatch[error](func() {
		outputs = queryOutputs(p, inputs)
		inOut := append(append([]inference.TensorDesc{}, inputs...), outputs...)
		for pos, desc := range inOut {
			if !p.SupportsFormatCombination(pos, inOut, len(inputs), len(outputs)) {
				exceptions.Panicf("slot %d %s is not supported", pos, desc)
			}
		}
		p.ConfigurePlugin(inputs, outputs)
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "configuring %s", p.PluginType())
	}

	image := make([]byte, p.SerializationSize())
	p.Serialize(image)
	klog.V(1).Infof("built %s with %d inputs, image of %d bytes", p.PluginType(), len(inputs), len(image))

	outputBytes := make([]int, len(outputs))
	for i, desc := range outputs {
		outputBytes[i] = desc.Bytes()
	}

	return &planSummary{
		Plugin:      p.PluginType(),
		Creator:     mode.CreatorName(),
		Version:     p.PluginVersion(),
		Device:      opts.cuda.DeviceID,
		Stream:      fmt.Sprintf("%#x", uintptr(stream)),
		Inputs:      inputs,
		Outputs:     outputs,
		OutputBytes: outputBytes,
		Parameters:  p.(*combinednms.Plugin).Parameters(),
		Image:       image,
	}, nil
}

// queryOutputs asks the operator for the dims and type of every output.
func queryOutputs(p inference.Plugin, inputs []inference.TensorDesc) []inference.TensorDesc {
	dims := make([]inference.Dims, len(inputs))
	types := make([]inference.DataType, len(inputs))
	for i, in := range inputs {
		dims[i] = in.Dims
		types[i] = in.Type
	}
	outputs := make([]inference.TensorDesc, p.NbOutputs())
	for i := range outputs {
		outputs[i] = inference.LinearDesc(p.OutputDataType(i, types), p.OutputDimensions(i, dims)...)
	}
	return outputs
}

// writePlan prints the summary as YAML and persists the image when requested.
func writePlan(cmd *cobra.Command, opts planOptions, plan *planSummary) error {
	data, err := yaml.Marshal(plan)
	if err != nil {
		return errors.Wrap(err, "encoding plan")
	}
	if _, err := cmd.OutOrStdout().Write(data); err != nil {
		return err
	}
	if opts.out == "" {
		return nil
	}
	if err := os.WriteFile(opts.out, plan.Image, 0o644); err != nil {
		return errors.Wrapf(err, "writing parameter image %q", opts.out)
	}
	klog.Infof("wrote %d byte parameter image to %s", len(plan.Image), opts.out)
	return nil
}
