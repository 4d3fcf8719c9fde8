package node

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	cmdcore "github.com/projecteru2/fleetd/cmd/core"
	"github.com/projecteru2/fleetd/types"
)

type Handler struct {
	cmdcore.BaseHandler
}

func (h Handler) initEngine(cmd *cobra.Command) (context.Context, *cmdcore.Engine, error) {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return nil, nil, err
	}
	engine, err := cmdcore.InitEngine(ctx, conf)
	if err != nil {
		return nil, nil, err
	}
	return ctx, engine, nil
}

func (h Handler) Info(cmd *cobra.Command, _ []string) error {
	ctx, engine, err := h.initEngine(cmd)
	if err != nil {
		return err
	}
	info := engine.Host.Info(ctx)

	if !cmdcore.StdoutIsTTY() {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Printf("Hostname:  %s\nPVE:       %s\nKernel:    %s\nUptime:    %s\nLoad:      %s\n",
		info.Hostname, info.PVEVersion, info.Kernel, info.Uptime, info.LoadAverage)
	return nil
}

func (h Handler) Cluster(cmd *cobra.Command, _ []string) error {
	ctx, engine, err := h.initEngine(cmd)
	if err != nil {
		return err
	}
	fmt.Println(engine.Host.ClusterStatus(ctx))
	return nil
}

func (h Handler) Update(cmd *cobra.Command, _ []string) error {
	ctx, engine, err := h.initEngine(cmd)
	if err != nil {
		return err
	}
	return reportScript(ctx, "update", engine.Host.UpdatePackages(ctx))
}

func (h Handler) Reboot(cmd *cobra.Command, _ []string) error {
	ctx, engine, err := h.initEngine(cmd)
	if err != nil {
		return err
	}
	return reportScript(ctx, "reboot", engine.Host.Reboot(ctx))
}

func (h Handler) Shutdown(cmd *cobra.Command, _ []string) error {
	ctx, engine, err := h.initEngine(cmd)
	if err != nil {
		return err
	}
	return reportScript(ctx, "shutdown", engine.Host.Shutdown(ctx))
}

func reportScript(ctx context.Context, name string, result *types.ScriptResult) error {
	log.WithFunc("cmd.node").Infof(ctx, "%s finished in %s (success: %t)", name, result.Duration.Round(0), result.Success)
	if result.Output != "" {
		fmt.Println(result.Output)
	}
	if !result.Success {
		return fmt.Errorf("node %s failed", name)
	}
	return nil
}
