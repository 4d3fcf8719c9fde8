package node

import "github.com/spf13/cobra"

// Actions defines hypervisor-node operations.
type Actions interface {
	Info(cmd *cobra.Command, args []string) error
	Cluster(cmd *cobra.Command, args []string) error
	Update(cmd *cobra.Command, args []string) error
	Reboot(cmd *cobra.Command, args []string) error
	Shutdown(cmd *cobra.Command, args []string) error
}

// Command builds the "node" parent command with all subcommands.
func Command(h Actions) *cobra.Command {
	nodeCmd := &cobra.Command{
		Use:   "node",
		Short: "Inspect and manage the hypervisor node",
	}

	nodeCmd.AddCommand(
		&cobra.Command{
			Use:   "info",
			Short: "Show hostname, PVE version, kernel and uptime",
			RunE:  h.Info,
		},
		&cobra.Command{
			Use:   "cluster",
			Short: "Show raw cluster status",
			RunE:  h.Cluster,
		},
		&cobra.Command{
			Use:   "update",
			Short: "Upgrade all packages on the node",
			RunE:  h.Update,
		},
		&cobra.Command{
			Use:   "reboot",
			Short: "Reboot the node",
			RunE:  h.Reboot,
		},
		&cobra.Command{
			Use:   "shutdown",
			Short: "Power the node off",
			RunE:  h.Shutdown,
		},
	)
	return nodeCmd
}
