package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nvr-ai/go-combinednms/inference"
)

const buildExample = `  nmsplan build --mode implicit --boxes 1000,4 --scores 1000,90 -c nms.yaml -o nms.plan
  nmsplan build --boxes 8,1000,4 --scores 8,1000,90 --anchors 1,1000,4 --type FP16`

func newBuildCmd() *cobra.Command {
	var (
		opts                   planOptions
		boxes, scores, anchors string
		dataType               string
	)
	cmd := &cobra.Command{
		Use:     "build",
		Short:   "Configure an operator for the given input shapes",
		Example: buildExample,
		Args:    cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			var t inference.DataType
			if err := t.UnmarshalText([]byte(dataType)); err != nil {
				return err
			}
			inputs, err := parseInputs(t, boxes, scores, anchors)
			if err != nil {
				return err
			}
			plan, err := buildPlan(opts, inputs)
			if err != nil {
				return err
			}
			return writePlan(cmd, opts, plan)
		},
	}
	addPlanFlags(cmd, &opts)
	cmd.Flags().StringVar(&boxes, "boxes", "", "Dims of the boxes input, e.g. 8,1000,4")
	cmd.Flags().StringVar(&scores, "scores", "", "Dims of the scores input, e.g. 8,1000,90")
	cmd.Flags().StringVar(&anchors, "anchors", "", "Dims of the optional decoded anchors input (explicit mode)")
	cmd.Flags().StringVar(&dataType, "type", "FP32", "Element type of the inputs: FP32 or FP16")
	_ = cmd.MarkFlagRequired("boxes")
	_ = cmd.MarkFlagRequired("scores")
	return cmd
}

// parseInputs builds the linear input descriptors from textual dims.
func parseInputs(t inference.DataType, boxes, scores, anchors string) ([]inference.TensorDesc, error) {
	flags := []struct{ name, dims string }{{"boxes", boxes}, {"scores", scores}}
	if anchors != "" {
		flags = append(flags, struct{ name, dims string }{"anchors", anchors})
	}
	inputs := make([]inference.TensorDesc, 0, len(flags))
	for _, flag := range flags {
		dims, err := inference.ParseDims(flag.dims)
		if err != nil {
			return nil, errors.WithMessagef(err, "--%s", flag.name)
		}
		inputs = append(inputs, inference.LinearDesc(t, dims...))
	}
	return inputs, nil
}
