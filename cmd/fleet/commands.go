package fleet

import "github.com/spf13/cobra"

// Actions defines fleet inventory and control operations.
type Actions interface {
	Overview(cmd *cobra.Command, args []string) error
	List(cmd *cobra.Command, args []string) error
	Details(cmd *cobra.Command, args []string) error
	Start(cmd *cobra.Command, args []string) error
	Stop(cmd *cobra.Command, args []string) error
	Restart(cmd *cobra.Command, args []string) error
}

// Command builds the "fleet" parent command with all subcommands.
func Command(h Actions) *cobra.Command {
	fleetCmd := &cobra.Command{
		Use:   "fleet",
		Short: "Inspect and control the workload fleet",
	}

	overviewCmd := &cobra.Command{
		Use:     "overview",
		Aliases: []string{"ov"},
		Short:   "Show fleet counts and per-workload status",
		RunE:    h.Overview,
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all cataloged workloads with live status",
		RunE:    h.List,
	}

	detailsCmd := &cobra.Command{
		Use:   "details ID",
		Short: "Show guest OS and running services of a container",
		Args:  cobra.ExactArgs(1),
		RunE:  h.Details,
	}

	startCmd := &cobra.Command{
		Use:   "start ID [ID...]",
		Short: "Start workload(s)",
		Args:  cobra.MinimumNArgs(1),
		RunE:  h.Start,
	}
	addControlFlags(startCmd)

	stopCmd := &cobra.Command{
		Use:   "stop ID [ID...]",
		Short: "Stop workload(s)",
		Args:  cobra.MinimumNArgs(1),
		RunE:  h.Stop,
	}
	addControlFlags(stopCmd)

	restartCmd := &cobra.Command{
		Use:   "restart ID [ID...]",
		Short: "Restart workload(s)",
		Args:  cobra.MinimumNArgs(1),
		RunE:  h.Restart,
	}
	addControlFlags(restartCmd)

	fleetCmd.AddCommand(
		overviewCmd,
		listCmd,
		detailsCmd,
		startCmd,
		stopCmd,
		restartCmd,
	)
	return fleetCmd
}

func addControlFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("wait", false, "poll until the target state is confirmed")
}
