package main

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/nvr-ai/go-combinednms/inference"
	"github.com/nvr-ai/go-combinednms/inference/plugins/combinednms"
)

// allModes selects every registered creator in the fields command.
const allModes = "all"

func newFieldsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List the attributes the operator creators accept",
		Args:  cobra.ExactArgs(0),
		RunE:  FieldsHandler,
	}
	cmd.Flags().String("mode", allModes, "Batch addressing of the operator: explicit, implicit or all")
	return cmd
}

// FieldsHandler prints the advertised attributes of the registered creators with their default
// values.
func FieldsHandler(cmd *cobra.Command, args []string) error {
	modeName, err := cmd.Flags().GetString("mode")
	if err != nil {
		return err
	}
	creatorName := ""
	if modeName != allModes {
		mode, err := combinednms.ParseMode(modeName)
		if err != nil {
			return err
		}
		creatorName = mode.CreatorName()
	}

	registry := inference.NewRegistry()
	if err := combinednms.RegisterCreators(registry, nil); err != nil {
		return err
	}
	defaults := combinednms.DefaultConfig().Fields()
	for _, creator := range registry.Creators() {
		if creatorName != "" && creator.PluginName() != creatorName {
			continue
		}
		printFields(cmd, creator, defaults)
	}
	return nil
}

func printFields(cmd *cobra.Command, creator inference.Creator, defaults inference.FieldCollection) {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"NAME", "TYPE", "DEFAULT"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	for _, field := range creator.FieldNames() {
		value := "-"
		if def, found := defaults.Lookup(field.Name); found {
			value = fmt.Sprint(def.Data)
		}
		table.Append([]string{field.Name, field.Type.String(), value})
	}
	table.Render()

	builds := creator.PluginName()
	if c, ok := creator.(*combinednms.Creator); ok {
		builds = c.Mode().PluginType()
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%s version %s builds %s\n\n",
		creator.PluginName(), creator.PluginVersion(), builds)
}
