package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
)

var savedForm formFlags

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "Manage saved filter presets",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		return current.session.LoadSaved(cmd.Context())
	},
}

var savedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved filters, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		items := current.session.SavedFilters()
		if jsonOutput {
			printSavedListJSON(cmd.OutOrStdout(), items)
		} else {
			printSavedListTable(cmd.OutOrStdout(), items)
		}
		return nil
	},
}

var savedSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save the given query and filters under a name",
	Example: heredoc.Doc(`
		varsearch saved save SP contribuintes -f UF=SP -f Contribuinte=true
	`),
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s := current.session

		loadSchema(ctx, s, cmd.ErrOrStderr())
		if err := savedForm.apply(s); err != nil {
			return err
		}
		sf, created, err := s.SaveCurrent(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		if !created {
			return errors.New("saved filter name is required")
		}
		printSaved(cmd.OutOrStdout(), sf)
		return nil
	},
}

var savedApplyCmd = &cobra.Command{
	Use:   "apply <id>",
	Short: "Run the search stored in a saved filter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s := current.session

		loadSchema(ctx, s, cmd.ErrOrStderr())
		done, err := s.ApplySaved(ctx, args[0])
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

var savedRemoveCmd = &cobra.Command{
	Use:     "rm <id>...",
	Aliases: []string{"remove", "delete"},
	Short:   "Delete saved filters",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range args {
			if err := current.session.RemoveSaved(cmd.Context(), id); err != nil {
				return err
			}
			if !jsonOutput {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
			}
		}
		if jsonOutput {
			printJSON(cmd.OutOrStdout(), map[string]any{"removed": args})
		}
		return nil
	},
}

var savedRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a saved filter",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sf, err := current.session.RenameSaved(cmd.Context(), args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		printSaved(cmd.OutOrStdout(), sf)
		return nil
	},
}

func init() {
	savedForm.register(savedSaveCmd, true)

	savedCmd.AddCommand(savedListCmd)
	savedCmd.AddCommand(savedSaveCmd)
	savedCmd.AddCommand(savedApplyCmd)
	savedCmd.AddCommand(savedRemoveCmd)
	savedCmd.AddCommand(savedRenameCmd)
}
