package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/quill/internal/config"
	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:    "schema",
	Short:  "Generate the JSON schema for the configuration file",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		r := new(jsonschema.Reflector)
		r.ExpandedStruct = true
		schema := r.Reflect(&config.Config{})
		schema.ID = jsonschema.ID("https://charm.land/quill.json")
		schema.Title = "Quill configuration"

		data, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal schema: %w", err)
		}
		cmd.Println(string(data))
		return nil
	},
}
