package catalog

import "github.com/spf13/cobra"

// Actions defines catalog inspection and extension operations.
type Actions interface {
	List(cmd *cobra.Command, args []string) error
	Add(cmd *cobra.Command, args []string) error
	Remove(cmd *cobra.Command, args []string) error
}

// Command builds the "catalog" parent command with all subcommands.
func Command(h Actions) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and extend the workload catalog",
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all cataloged workloads",
		RunE:    h.List,
	}

	addCmd := &cobra.Command{
		Use:   "add ID NAME",
		Short: "Add or replace an extension catalog entry",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE:  h.Add,
	}
	addCmd.Flags().String("kind", "container", "workload kind (container|vm)")
	addCmd.Flags().String("category", "", "category (defaults by ID range)")
	addCmd.Flags().String("description", "", "description")

	removeCmd := &cobra.Command{
		Use:     "remove ID",
		Aliases: []string{"rm"},
		Short:   "Remove an extension catalog entry",
		Args:    cobra.ExactArgs(1),
		RunE:    h.Remove,
	}

	catalogCmd.AddCommand(listCmd, addCmd, removeCmd)
	return catalogCmd
}
