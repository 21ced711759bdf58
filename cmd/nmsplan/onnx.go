package main

import (
	"github.com/spf13/cobra"

	"github.com/nvr-ai/go-combinednms/inference/plugins/combinednms"
	"github.com/nvr-ai/go-combinednms/inference/providers"
)

func newONNXCmd() *cobra.Command {
	var (
		opts                 planOptions
		model, boxes, scores string
	)
	cmd := &cobra.Command{
		Use:     "onnx",
		Short:   "Configure an operator for the boxes and scores heads of an ONNX detector",
		Example: "  nmsplan onnx --model ssd_mobilenet.onnx --boxes-output boxes --scores-output scores -c nms.yaml",
		Args:    cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := combinednms.ParseMode(opts.mode)
			if err != nil {
				return err
			}
			inputs, err := providers.LoadOutputDescs(model, mode == combinednms.ImplicitBatch, boxes, scores)
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
	cmd.Flags().StringVar(&model, "model", "", "Path of the ONNX detector model")
	cmd.Flags().StringVar(&boxes, "boxes-output", "boxes", "Graph output holding the boxes")
	cmd.Flags().StringVar(&scores, "scores-output", "scores", "Graph output holding the class scores")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}
