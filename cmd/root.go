package cmd

import (
	"context"
	"fmt"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdcatalog "github.com/projecteru2/fleetd/cmd/catalog"
	cmdcore "github.com/projecteru2/fleetd/cmd/core"
	cmdfleet "github.com/projecteru2/fleetd/cmd/fleet"
	cmdmaintain "github.com/projecteru2/fleetd/cmd/maintain"
	cmdnode "github.com/projecteru2/fleetd/cmd/node"
	cmdothers "github.com/projecteru2/fleetd/cmd/others"
	cmdserve "github.com/projecteru2/fleetd/cmd/serve"
	"github.com/projecteru2/fleetd/config"
)

var (
	cfgFile string
	conf    *config.Config
)

var rootCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fleetd",
		Short: "Fleetd - Proxmox fleet reconciliation and maintenance",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(commandContext(cmd))
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	cmd.PersistentFlags().String("ssh-target", "", "ssh destination for the hypervisor node")
	cmd.PersistentFlags().String("run-dir", "", "runtime directory for locks")
	cmd.PersistentFlags().String("listen-addr", "", "HTTP API listen address")
	cmd.PersistentFlags().String("catalog-file", "", "catalog extension file")
	cmd.PersistentFlags().String("manifest-file", "", "maintenance manifest file")

	_ = viper.BindPFlag("ssh_target", cmd.PersistentFlags().Lookup("ssh-target"))
	_ = viper.BindPFlag("run_dir", cmd.PersistentFlags().Lookup("run-dir"))
	_ = viper.BindPFlag("listen_addr", cmd.PersistentFlags().Lookup("listen-addr"))
	_ = viper.BindPFlag("catalog_file", cmd.PersistentFlags().Lookup("catalog-file"))
	_ = viper.BindPFlag("manifest_file", cmd.PersistentFlags().Lookup("manifest-file"))

	viper.SetEnvPrefix("FLEETD")
	viper.AutomaticEnv()

	confProvider := func() *config.Config { return conf }
	base := cmdcore.BaseHandler{ConfProvider: confProvider}

	cmd.AddCommand(
		cmdfleet.Command(cmdfleet.Handler{BaseHandler: base}),
		cmdmaintain.Command(cmdmaintain.Handler{BaseHandler: base}),
		cmdnode.Command(cmdnode.Handler{BaseHandler: base}),
		cmdcatalog.Command(cmdcatalog.Handler{BaseHandler: base}),
		cmdserve.Command(cmdserve.Handler{BaseHandler: base}),
	)
	for _, c := range cmdothers.Commands(cmdothers.Handler{BaseHandler: base}) {
		cmd.AddCommand(c)
	}

	return cmd
}()

func initConfig(ctx context.Context) error {
	conf = config.DefaultConfig()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	_ = viper.ReadInConfig() // optional; missing file is OK

	if err := viper.Unmarshal(conf); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	conf.Normalize()

	return log.SetupLog(ctx, &conf.Log, "")
}

// Execute is the main entry point called from main.go.
func Execute() error {
	ctx, cancel := newCommandContext()
	defer cancel()
	return rootCmd.ExecuteContext(ctx)
}
