package maintain

import "github.com/spf13/cobra"

// Actions defines maintenance diagnostics and remediation operations.
type Actions interface {
	Status(cmd *cobra.Command, args []string) error
	FixServices(cmd *cobra.Command, args []string) error
	InstallBinaries(cmd *cobra.Command, args []string) error
	Script(cmd *cobra.Command, args []string) error
	Service(cmd *cobra.Command, args []string) error
	ReadConfig(cmd *cobra.Command, args []string) error
	WriteConfig(cmd *cobra.Command, args []string) error
	Suggest(cmd *cobra.Command, args []string) error
}

// Command builds the "maintain" parent command with all subcommands.
func Command(h Actions) *cobra.Command {
	maintainCmd := &cobra.Command{
		Use:   "maintain",
		Short: "Diagnose and remediate drift across the fleet",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show services, binaries, configs and system health",
		RunE:  h.Status,
	}

	fixCmd := &cobra.Command{
		Use:   "fix-services",
		Short: "Restart every inactive expected service",
		RunE:  h.FixServices,
	}

	installCmd := &cobra.Command{
		Use:   "install-binaries",
		Short: "Install every missing expected binary",
		RunE:  h.InstallBinaries,
	}

	scriptCmd := &cobra.Command{
		Use:   "script NAME",
		Short: "Run a named remediation script on the hypervisor",
		Args:  cobra.ExactArgs(1),
		RunE:  h.Script,
	}

	serviceCmd := &cobra.Command{
		Use:   "service NAME ACTION",
		Short: "Start/stop/restart one expected service",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE:  h.Service,
	}
	serviceCmd.Flags().Int("container", 0, "container ID scope")
	serviceCmd.Flags().Int("vm", 0, "VM ID scope")

	readCmd := &cobra.Command{
		Use:   "config-read ID PATH",
		Short: "Print a container config file",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE:  h.ReadConfig,
	}

	writeCmd := &cobra.Command{
		Use:   "config-write ID PATH",
		Short: "Replace a container config file (content from --file or stdin)",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE:  h.WriteConfig,
	}
	writeCmd.Flags().String("file", "", "local file with the new content")

	suggestCmd := &cobra.Command{
		Use:   "suggest ID PATH",
		Short: "Ask the advisor for config suggestions",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE:  h.Suggest,
	}

	maintainCmd.AddCommand(
		statusCmd,
		fixCmd,
		installCmd,
		scriptCmd,
		serviceCmd,
		readCmd,
		writeCmd,
		suggestCmd,
	)
	return maintainCmd
}
