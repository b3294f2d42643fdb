package main

import (
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "List the searchable fields",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sch, err := current.session.LoadSchema(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			printSchemaJSON(cmd.OutOrStdout(), sch)
		} else {
			printSchemaTable(cmd.OutOrStdout(), sch)
		}
		return nil
	},
}
