package main

import (
	"flag"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "nmsplan",
		Short:         "Build and inspect combined NMS operator descriptors",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			klog.Flush()
		},
	}

	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	rootCmd.PersistentFlags().AddGoFlagSet(klogFlags)

	for _, cmd := range []*cobra.Command{
		newFieldsCmd(),
		newBuildCmd(),
		newInspectCmd(),
		newONNXCmd(),
	} {
		rootCmd.AddCommand(cmd)
	}
	return rootCmd
}

// addModeFlag registers the --mode flag shared by every subcommand.
func addModeFlag(cmd *cobra.Command) {
	cmd.Flags().String("mode", "explicit", "Batch addressing of the operator: explicit or implicit")
}
