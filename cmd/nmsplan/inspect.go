package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-combinednms/inference"
	"github.com/nvr-ai/go-combinednms/inference/plugins/combinednms"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect IMAGE",
		Short: "Print the parameters persisted in a serialized operator image",
		Args:  cobra.ExactArgs(1),
		RunE:  InspectHandler,
	}
	addModeFlag(cmd)
	return cmd
}

// InspectHandler restores an operator from its image and prints its parameters as YAML.
func InspectHandler(cmd *cobra.Command, args []string) error {
	modeName, err := cmd.Flags().GetString("mode")
	if err != nil {
		return err
	}
	mode, err := combinednms.ParseMode(modeName)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrapf(err, "reading parameter image %q", args[0])
	}

	registry := inference.NewRegistry()
	if err := combinednms.RegisterCreators(registry, nil); err != nil {
		return err
	}
	p, err := registry.DeserializePlugin(mode.CreatorName(), combinednms.PluginVersion, args[0], data)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(map[string]any{
		"plugin":     p.PluginType(),
		"parameters": p.(*combinednms.Plugin).Parameters(),
	})
	if err != nil {
		return errors.Wrap(err, "encoding parameters")
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
