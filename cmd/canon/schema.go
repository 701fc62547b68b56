package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getcanon/canon/bundle"
)

// schemaCmd prints the JSON Schema of the provider-definition authoring
// format, for external generators to validate their output against.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the authoring format",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := bundle.DefinitionSchema()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
