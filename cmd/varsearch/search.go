package main

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
)

var searchForm formFlags

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search records by query text and field filters",
	Long: heredoc.Doc(`
		Search sends the query and the active filters to the API and prints
		one page of results. Filter values are typed by the field catalog:
		numbers must be positive, booleans are true or false, and blank
		values are ignored.
	`),
	Example: heredoc.Doc(`
		varsearch search -q "acme"
		varsearch search -f UF=SP -f Contribuinte=true -n 100
		varsearch --json search -f Quantity=3
	`),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s := current.session

		loadSchema(ctx, s, cmd.ErrOrStderr())
		if err := searchForm.apply(s); err != nil {
			return err
		}
		done, err := s.Search(ctx)
		if err != nil {
			return err
		}
		if err := waitSearch(ctx, s, done); err != nil {
			return err
		}

		resp := s.Snapshot().Search.Response
		if jsonOutput {
			printResponseJSON(cmd.OutOrStdout(), resp)
		} else {
			printResponseTable(cmd.OutOrStdout(), resp)
		}
		return nil
	},
}

func init() {
	searchForm.register(searchCmd, true)
}
